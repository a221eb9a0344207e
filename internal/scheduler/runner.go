package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Handler is invoked once per claimed firing.
type Handler func(ctx context.Context) error

// Runner polls a Scheduler and runs its handler when a firing is due.
// Handlers never overlap: polling and execution share one goroutine.
type Runner struct {
	sched    *Scheduler
	handler  Handler
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	started bool
	stopCh  chan struct{}
	done    chan struct{}
}

// NewRunner binds handler to sched. interval is the polling period.
func NewRunner(sched *Scheduler, handler Handler, interval time.Duration, logger *slog.Logger) *Runner {
	if interval <= 0 {
		interval = time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		sched:    sched,
		handler:  handler,
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the polling loop. It checks for a due firing immediately.
// Cancelling ctx stops polling like Stop does; a handler that is already
// running keeps its context values but not the cancellation, so it always
// runs to completion.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return nil
	}
	r.started = true

	r.logger.Info("Starting scheduler", "hook", r.sched.Hook(), "interval", r.interval)

	go func() {
		defer close(r.done)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		work := context.WithoutCancel(ctx)
		r.RunDue(work)
		for {
			select {
			case <-ticker.C:
				if ctx.Err() != nil || r.stopping() {
					return
				}
				r.RunDue(work)
			case <-r.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

// Stop ends the loop and waits for an in-flight handler to finish, or for
// ctx to expire.
func (r *Runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return nil
	}
	select {
	case <-r.stopCh:
	default:
		close(r.stopCh)
	}
	r.mu.Unlock()

	r.logger.Info("Waiting for the current tick to finish...")
	select {
	case <-r.done:
		r.logger.Info("Scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		r.logger.Warn("Context cancelled while waiting for scheduler to stop")
		return ctx.Err()
	}
}

func (r *Runner) stopping() bool {
	select {
	case <-r.stopCh:
		return true
	default:
		return false
	}
}

// RunDue claims a due firing and runs the handler. It reports whether the
// handler ran. Handler errors are logged, never propagated.
func (r *Runner) RunDue(ctx context.Context) bool {
	claimed, err := r.sched.Claim(ctx)
	if err != nil {
		r.logger.Error("Failed to check schedule", "hook", r.sched.Hook(), "error", err)
		return false
	}
	if !claimed {
		return false
	}

	if err := r.handler(ctx); err != nil {
		r.logger.Error("Scheduled task failed", "hook", r.sched.Hook(), "error", err)
	}
	return true
}
