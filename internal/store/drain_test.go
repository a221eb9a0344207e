package store

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knomic/pluginsync/internal/activator"
	"github.com/knomic/pluginsync/internal/host"
	"github.com/knomic/pluginsync/internal/installer"
	"github.com/knomic/pluginsync/internal/manifest"
	"github.com/knomic/pluginsync/internal/reconcile"
	"github.com/knomic/pluginsync/internal/repository"
	"github.com/knomic/pluginsync/internal/scheduler"
)

// gatedRepo serves unpacked extensions from dir, holding every lookup until
// release is closed.
type gatedRepo struct {
	dir     string
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func (g *gatedRepo) Lookup(ctx context.Context, slug string) (*repository.Artifact, error) {
	g.once.Do(func() { close(g.started) })
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, &repository.TransientError{Slug: slug, Err: ctx.Err()}
	}
	return &repository.Artifact{Slug: slug, Name: slug, Version: "1.0", SourceDir: filepath.Join(g.dir, slug)}, nil
}

func TestDrain_ShutdownFinishesRunningTick(t *testing.T) {
	src := t.TempDir()
	for _, slug := range []string{"foo", "bar"} {
		p := filepath.Join(src, slug, slug+".php")
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(fmt.Sprintf("<?php\n/* Plugin Name: %s\nVersion: 1.0 */\n", slug)), 0o644))
	}

	st := createTestStore(t)
	layout := host.NewLayout(t.TempDir())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sched := scheduler.New(st, "pluginsync_scheduled_task")
	repo := &gatedRepo{dir: src, started: make(chan struct{}), release: make(chan struct{})}

	engine, err := reconcile.NewEngine(reconcile.Deps{
		Queue:      st,
		Trigger:    sched,
		Repository: repo,
		Installer:  installer.New(layout, installer.WithLogger(logger)),
		Activator:  activator.New(layout, st),
		Host:       layout,
	}, reconcile.WithLogger(logger), reconcile.WithDelay(time.Hour))
	require.NoError(t, err)

	bg := context.Background()
	_, err = engine.Import(bg, manifest.Manifest{{Slug: "foo", Active: true}, {Slug: "bar"}})
	require.NoError(t, err)
	require.NoError(t, sched.Schedule(bg, 0))

	ctx, cancel := context.WithCancel(bg)
	defer cancel()
	runner := scheduler.NewRunner(sched, func(ctx context.Context) error {
		_, err := engine.Tick(ctx)
		return err
	}, 5*time.Millisecond, logger)
	require.NoError(t, runner.Start(ctx))

	select {
	case <-repo.started:
	case <-time.After(5 * time.Second):
		t.Fatal("tick never started")
	}
	cancel()
	close(repo.release)

	stopCtx, stopCancel := context.WithTimeout(bg, 5*time.Second)
	defer stopCancel()
	require.NoError(t, runner.Stop(stopCtx))

	assert.True(t, layout.Installed("foo"), "the running tick completes its install")
	active, err := st.IsActive(bg, host.Key("foo"))
	require.NoError(t, err)
	assert.True(t, active)

	q, err := st.LoadQueue(bg)
	require.NoError(t, err)
	assert.Equal(t, manifest.Manifest{{Slug: "bar"}}, q.Records())

	pending, _, err := sched.Pending(bg)
	require.NoError(t, err)
	assert.True(t, pending, "the remaining queue stays armed")
}
