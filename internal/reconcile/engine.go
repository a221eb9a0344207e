package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/knomic/pluginsync/internal/activator"
	"github.com/knomic/pluginsync/internal/host"
	"github.com/knomic/pluginsync/internal/installer"
	"github.com/knomic/pluginsync/internal/manifest"
	"github.com/knomic/pluginsync/internal/repository"
)

// Defaults applied by NewEngine.
const (
	DefaultDelay   = 30 * time.Second
	DefaultTimeout = 60 * time.Second
)

// RetryPolicy controls what happens to entries whose lookup or install
// failed for a reason other than not-found. MaxAttempts <= 1 drops them.
type RetryPolicy struct {
	MaxAttempts int
	MaxDelay    time.Duration
}

// Engine drains the work queue. Ticks must not run concurrently; the
// scheduler runner guarantees that.
type Engine struct {
	deps    Deps
	logger  *slog.Logger
	delay   time.Duration
	timeout time.Duration
	retry   RetryPolicy
	now     func() time.Time
	newID   func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithDelay sets the delay between ticks.
func WithDelay(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.delay = d
		}
	}
}

// WithTimeout bounds the lookup and the install of a single tick.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithRetry sets the retry policy.
func WithRetry(p RetryPolicy) Option {
	return func(e *Engine) { e.retry = p }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator replaces the batch ID generator.
func WithIDGenerator(f func() string) Option {
	return func(e *Engine) { e.newID = f }
}

// NewEngine creates an Engine. Every field of deps must be set.
func NewEngine(deps Deps, opts ...Option) (*Engine, error) {
	switch {
	case deps.Queue == nil:
		return nil, errors.New("reconcile: queue store is required")
	case deps.Trigger == nil:
		return nil, errors.New("reconcile: trigger is required")
	case deps.Repository == nil:
		return nil, errors.New("reconcile: repository client is required")
	case deps.Installer == nil:
		return nil, errors.New("reconcile: installer is required")
	case deps.Activator == nil:
		return nil, errors.New("reconcile: activator is required")
	case deps.Host == nil:
		return nil, errors.New("reconcile: host is required")
	}

	e := &Engine{
		deps:    deps,
		logger:  slog.Default(),
		delay:   DefaultDelay,
		timeout: DefaultTimeout,
		retry:   RetryPolicy{MaxAttempts: 1},
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Import replaces the queue with m and makes sure exactly one tick is
// pending. An empty manifest leaves an empty queue and no pending tick.
func (e *Engine) Import(ctx context.Context, m manifest.Manifest) (string, error) {
	q := Queue{
		BatchID:    e.newID(),
		ImportedAt: e.now(),
		Entries:    entriesFrom(m),
	}
	if err := e.deps.Queue.SaveQueue(ctx, q); err != nil {
		return "", fmt.Errorf("saving work queue: %w", err)
	}

	log := e.logger.With("batch", q.BatchID)
	if q.Empty() {
		if err := e.deps.Trigger.Cancel(ctx); err != nil {
			return "", fmt.Errorf("cancelling trigger: %w", err)
		}
		log.Info("Imported an empty manifest; nothing to do")
		return q.BatchID, nil
	}

	if err := e.ensurePending(ctx, e.delay); err != nil {
		return "", err
	}
	log.Info("Plugins scheduled for installation", "count", q.Len())
	return q.BatchID, nil
}

// Resume arms the trigger when the queue holds work and nothing is pending,
// for instance after Deactivate. It reports whether work remains.
func (e *Engine) Resume(ctx context.Context) (bool, error) {
	q, err := e.deps.Queue.LoadQueue(ctx)
	if err != nil {
		return false, fmt.Errorf("loading work queue: %w", err)
	}
	if q.Empty() {
		return false, nil
	}
	if err := e.ensurePending(ctx, e.delay); err != nil {
		return false, err
	}
	return true, nil
}

// Deactivate cancels the pending tick and leaves the queue intact.
func (e *Engine) Deactivate(ctx context.Context) error {
	if err := e.deps.Trigger.Cancel(ctx); err != nil {
		return fmt.Errorf("cancelling trigger: %w", err)
	}
	e.logger.Info("Scheduled task cleared")
	return nil
}

// Status reports the queue and trigger state.
func (e *Engine) Status(ctx context.Context) (Status, error) {
	q, err := e.deps.Queue.LoadQueue(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("loading work queue: %w", err)
	}
	pending, next, err := e.deps.Trigger.Pending(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("reading trigger: %w", err)
	}

	st := Status{
		State:      Idle,
		BatchID:    q.BatchID,
		ImportedAt: q.ImportedAt,
		Remaining:  q.Len(),
		Pending:    pending,
		NextRun:    next,
	}
	if !q.Empty() {
		st.State = Draining
		head := q.Entries[0]
		st.Head = &head
	}
	return st, nil
}

// Tick processes at most one entry. Failures of the entry itself are
// logged and reported in the outcome; only storage and trigger failures are
// returned as errors.
func (e *Engine) Tick(ctx context.Context) (TickOutcome, error) {
	q, err := e.deps.Queue.LoadQueue(ctx)
	if err != nil {
		return TickOutcome{}, fmt.Errorf("loading work queue: %w", err)
	}
	if q.Empty() {
		if err := e.deps.Trigger.Cancel(ctx); err != nil {
			return TickOutcome{}, fmt.Errorf("cancelling trigger: %w", err)
		}
		return TickOutcome{Result: ResultNone}, nil
	}

	head := q.Entries[0]
	q.Entries = q.Entries[1:]
	// Persist the pop before doing any work so a crash mid-install cannot
	// replay the entry forever.
	if err := e.deps.Queue.SaveQueue(ctx, q); err != nil {
		return TickOutcome{}, fmt.Errorf("saving work queue: %w", err)
	}

	record := head.ExtensionRecord
	out := e.process(ctx, q.BatchID, head)
	out.Processed = &record

	// Re-read: an import may have replaced the queue while we worked.
	current, err := e.deps.Queue.LoadQueue(ctx)
	if err != nil {
		return out, fmt.Errorf("loading work queue: %w", err)
	}

	delay := e.delay
	if out.Result == ResultRequeued {
		if current.BatchID == q.BatchID {
			head.Attempts++
			current.Entries = append(current.Entries, head)
			if err := e.deps.Queue.SaveQueue(ctx, current); err != nil {
				return out, fmt.Errorf("saving work queue: %w", err)
			}
			delay = e.backoff(head.Attempts)
		} else {
			out.Result = ResultFailed
		}
	}

	out.Remaining = current.Len()
	out.Rearm = !current.Empty()
	if out.Rearm {
		out.Delay = delay
		if err := e.deps.Trigger.Schedule(ctx, delay); err != nil {
			return out, fmt.Errorf("re-arming trigger: %w", err)
		}
	} else if err := e.deps.Trigger.Cancel(ctx); err != nil {
		return out, fmt.Errorf("cancelling trigger: %w", err)
	}
	return out, nil
}

func (e *Engine) process(ctx context.Context, batch string, entry Entry) TickOutcome {
	rec := entry.ExtensionRecord
	if !rec.Actionable() {
		e.logger.Warn("Skipping a record without a slug", "batch", batch, "name", rec.Name)
		return TickOutcome{Result: ResultSkipped}
	}
	if !host.SafeSlug(rec.Slug) {
		e.logger.Warn("Skipping a record whose slug is not a directory name", "batch", batch, "slug", rec.Slug)
		return TickOutcome{Result: ResultSkipped}
	}

	log := e.logger.With("batch", batch, "slug", rec.Slug)
	log.Info("Processing the plugin", "name", rec.DisplayName(), "attempt", entry.Attempts+1)

	out := TickOutcome{Result: ResultAlreadyPresent}
	if e.deps.Host.Installed(rec.Slug) {
		e.logDrift(log, "installed", e.installedVersion(rec.Slug), rec.Version)
	} else {
		res, err := e.install(ctx, log, entry)
		if err != nil {
			return res
		}
		out.Result = res.Result
	}

	if rec.Active {
		out.Activation = e.activate(ctx, log, rec)
	}
	return out
}

// install resolves and installs entry. On failure the returned outcome holds
// the classification and the error.
func (e *Engine) install(ctx context.Context, log *slog.Logger, entry Entry) (TickOutcome, error) {
	rec := entry.ExtensionRecord
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	art, err := e.deps.Repository.Lookup(ctx, rec.Slug)
	if errors.Is(err, repository.ErrNotFound) {
		log.Warn(fmt.Sprintf("Plugin %q could not be found in the repository. This might be a custom or premium plugin.", rec.DisplayName()))
		return TickOutcome{Result: ResultNotFound, Err: err}, err
	}
	if err != nil {
		result := ResultFailed
		if repository.IsTransient(err) && e.canRetry(entry) {
			result = ResultRequeued
		}
		log.Error("Failed to look up plugin", "name", rec.DisplayName(), "error", err, "result", result)
		return TickOutcome{Result: result, Err: err}, err
	}

	res, err := e.deps.Installer.EnsureInstalled(ctx, art)
	if err != nil {
		result := ResultFailed
		if e.canRetry(entry) {
			result = ResultRequeued
		}
		log.Error(fmt.Sprintf("Failed to install plugin %q", rec.DisplayName()), "error", err, "result", result)
		return TickOutcome{Result: result, Err: err}, err
	}

	if res == installer.Installed {
		log.Info("Installed plugin", "version", art.Version)
		e.logDrift(log, "repository", art.Version, rec.Version)
		return TickOutcome{Result: ResultInstalled}, nil
	}
	return TickOutcome{Result: ResultAlreadyPresent}, nil
}

func (e *Engine) activate(ctx context.Context, log *slog.Logger, rec manifest.ExtensionRecord) activator.Result {
	active, err := e.deps.Activator.IsActive(ctx, rec.Slug)
	if err != nil {
		log.Error(fmt.Sprintf("Failed to activate plugin %q", rec.DisplayName()), "error", err)
		return activator.NoOp
	}
	if active {
		return activator.NoOp
	}

	res, err := e.deps.Activator.EnsureActivationState(ctx, rec.Slug, true)
	if err != nil {
		log.Error(fmt.Sprintf("Failed to activate plugin %q", rec.DisplayName()), "error", err)
		return activator.NoOp
	}
	if res == activator.Activated {
		log.Info("Activated plugin")
	}
	return res
}

func (e *Engine) canRetry(entry Entry) bool {
	return entry.Attempts+1 < e.retry.MaxAttempts
}

// backoff returns the re-arm delay after the attempts-th failure.
func (e *Engine) backoff(attempts int) time.Duration {
	d := e.delay
	for i := 1; i < attempts; i++ {
		d *= 2
		if e.retry.MaxDelay > 0 && d >= e.retry.MaxDelay {
			return e.retry.MaxDelay
		}
	}
	if e.retry.MaxDelay > 0 && d > e.retry.MaxDelay {
		return e.retry.MaxDelay
	}
	return d
}

// ensurePending arms the trigger to fire within delay. A pending firing that
// is due sooner is kept; one pushed further out, e.g. by retry backoff of a
// replaced batch, is pulled in.
func (e *Engine) ensurePending(ctx context.Context, delay time.Duration) error {
	pending, next, err := e.deps.Trigger.Pending(ctx)
	if err != nil {
		return fmt.Errorf("reading trigger: %w", err)
	}
	if pending && !next.After(e.now().Add(delay)) {
		return nil
	}
	if err := e.deps.Trigger.Schedule(ctx, delay); err != nil {
		return fmt.Errorf("scheduling trigger: %w", err)
	}
	return nil
}

func (e *Engine) installedVersion(slug string) string {
	h, err := host.ReadHeader(e.deps.Host.MainFile(slug))
	if err != nil {
		return ""
	}
	return h.Version
}

func (e *Engine) logDrift(log *slog.Logger, source, have, want string) {
	if d := drift(have, want); d != "" {
		log.Info("Plugin version differs from the manifest",
			"source", source, "version", have, "manifest_version", want, "drift", d)
	}
}
