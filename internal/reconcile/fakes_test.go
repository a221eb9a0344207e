package reconcile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/knomic/pluginsync/internal/activator"
	"github.com/knomic/pluginsync/internal/installer"
	"github.com/knomic/pluginsync/internal/repository"
)

type memQueue struct {
	q       Queue
	saves   int
	saveErr error
	// onLoad runs before each LoadQueue; tests use it to simulate a
	// concurrent import.
	onLoad func(*memQueue)
}

func (m *memQueue) LoadQueue(context.Context) (Queue, error) {
	if m.onLoad != nil {
		m.onLoad(m)
	}
	out := m.q
	out.Entries = append([]Entry(nil), m.q.Entries...)
	return out, nil
}

func (m *memQueue) SaveQueue(_ context.Context, q Queue) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.q = q
	m.q.Entries = append([]Entry(nil), q.Entries...)
	return nil
}

// testNow is the fixed clock shared by the engine and fakeTrigger.
var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeTrigger struct {
	pending   bool
	delay     time.Duration
	at        time.Time
	schedules int
}

func (f *fakeTrigger) Schedule(_ context.Context, d time.Duration) error {
	f.pending = true
	f.delay = d
	f.at = testNow.Add(d)
	f.schedules++
	return nil
}

func (f *fakeTrigger) Cancel(context.Context) error {
	f.pending = false
	return nil
}

func (f *fakeTrigger) Pending(context.Context) (bool, time.Time, error) {
	if !f.pending {
		return false, time.Time{}, nil
	}
	return true, f.at, nil
}

// fakeHost tracks installed and active slugs.
type fakeHost struct {
	installed map[string]bool
	active    map[string]bool
	dir       string
}

func newFakeHost() *fakeHost {
	return &fakeHost{installed: map[string]bool{}, active: map[string]bool{}, dir: "/nonexistent"}
}

func (h *fakeHost) Installed(slug string) bool { return h.installed[slug] }

func (h *fakeHost) MainFile(slug string) string {
	return filepath.Join(h.dir, slug, slug+".php")
}

type fakeRepo struct {
	artifacts map[string]*repository.Artifact
	errs      map[string]error
	lookups   []string
}

func (r *fakeRepo) Lookup(ctx context.Context, slug string) (*repository.Artifact, error) {
	r.lookups = append(r.lookups, slug)
	if _, ok := ctx.Deadline(); !ok {
		return nil, errors.New("lookup must run under a deadline")
	}
	if err, ok := r.errs[slug]; ok {
		return nil, err
	}
	if a, ok := r.artifacts[slug]; ok {
		return a, nil
	}
	return nil, fmt.Errorf("%s: %w", slug, repository.ErrNotFound)
}

type fakeInstaller struct {
	host  *fakeHost
	errs  map[string]error
	calls []string
}

func (f *fakeInstaller) EnsureInstalled(_ context.Context, art *repository.Artifact) (installer.Result, error) {
	f.calls = append(f.calls, art.Slug)
	if err, ok := f.errs[art.Slug]; ok {
		return 0, fmt.Errorf("%w: %v", installer.ErrInstallFailed, err)
	}
	if f.host.installed[art.Slug] {
		return installer.AlreadyPresent, nil
	}
	f.host.installed[art.Slug] = true
	return installer.Installed, nil
}

type fakeActivator struct {
	host        *fakeHost
	activations []string
	fail        map[string]bool
}

func (f *fakeActivator) IsActive(_ context.Context, slug string) (bool, error) {
	return f.host.active[slug], nil
}

func (f *fakeActivator) EnsureActivationState(_ context.Context, slug string, desired bool) (activator.Result, error) {
	if f.fail[slug] || !f.host.installed[slug] {
		return activator.NoOp, activator.ErrActivationFailed
	}
	if f.host.active[slug] == desired {
		return activator.NoOp, nil
	}
	f.host.active[slug] = desired
	if desired {
		f.activations = append(f.activations, slug)
		return activator.Activated, nil
	}
	return activator.Deactivated, nil
}

type harness struct {
	engine    *Engine
	queue     *memQueue
	trigger   *fakeTrigger
	host      *fakeHost
	repo      *fakeRepo
	installer *fakeInstaller
	activator *fakeActivator
}

func newHarness(opts ...Option) *harness {
	h := &harness{
		queue:   &memQueue{},
		trigger: &fakeTrigger{},
		host:    newFakeHost(),
		repo:    &fakeRepo{artifacts: map[string]*repository.Artifact{}, errs: map[string]error{}},
	}
	h.installer = &fakeInstaller{host: h.host, errs: map[string]error{}}
	h.activator = &fakeActivator{host: h.host, fail: map[string]bool{}}

	ids := 0
	base := []Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(func() time.Time { return testNow }),
		WithIDGenerator(func() string { ids++; return fmt.Sprintf("batch-%d", ids) }),
	}
	e, err := NewEngine(Deps{
		Queue:      h.queue,
		Trigger:    h.trigger,
		Repository: h.repo,
		Installer:  h.installer,
		Activator:  h.activator,
		Host:       h.host,
	}, append(base, opts...)...)
	if err != nil {
		panic(err)
	}
	h.engine = e
	return h
}

func (h *harness) publish(slugs ...string) {
	for _, s := range slugs {
		h.repo.artifacts[s] = &repository.Artifact{Slug: s, Name: s, Version: "1.0", DownloadURL: "https://example.test/" + s + ".zip"}
	}
}
