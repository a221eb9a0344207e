package scheduler

import (
	"context"
	"fmt"
	"time"
)

// EventStore persists scheduled firings, at most one per hook.
type EventStore interface {
	ScheduleEvent(ctx context.Context, hook string, runAt time.Time) error
	UnscheduleEvent(ctx context.Context, hook string) error
	NextEvent(ctx context.Context, hook string) (time.Time, bool, error)
	ClaimEvent(ctx context.Context, hook string, now time.Time) (bool, error)
}

// Scheduler manages the pending firing of one hook.
type Scheduler struct {
	store EventStore
	hook  string
	now   func() time.Time
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// New creates a Scheduler for hook.
func New(store EventStore, hook string, opts ...Option) *Scheduler {
	s := &Scheduler{store: store, hook: hook, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hook returns the hook name.
func (s *Scheduler) Hook() string { return s.hook }

// Schedule sets the single pending firing to now+delay. An existing firing is
// replaced, never duplicated.
func (s *Scheduler) Schedule(ctx context.Context, delay time.Duration) error {
	if delay < 0 {
		delay = 0
	}
	if err := s.store.ScheduleEvent(ctx, s.hook, s.now().Add(delay)); err != nil {
		return fmt.Errorf("scheduling %s: %w", s.hook, err)
	}
	return nil
}

// Cancel removes the pending firing. Cancelling nothing is not an error.
func (s *Scheduler) Cancel(ctx context.Context) error {
	if err := s.store.UnscheduleEvent(ctx, s.hook); err != nil {
		return fmt.Errorf("cancelling %s: %w", s.hook, err)
	}
	return nil
}

// Pending reports whether a firing is scheduled and when.
func (s *Scheduler) Pending(ctx context.Context) (bool, time.Time, error) {
	at, ok, err := s.store.NextEvent(ctx, s.hook)
	if err != nil {
		return false, time.Time{}, fmt.Errorf("reading schedule of %s: %w", s.hook, err)
	}
	return ok, at, nil
}

// Claim consumes the pending firing if it is due. It reports whether the
// caller should run the handler.
func (s *Scheduler) Claim(ctx context.Context) (bool, error) {
	claimed, err := s.store.ClaimEvent(ctx, s.hook, s.now())
	if err != nil {
		return false, fmt.Errorf("claiming %s: %w", s.hook, err)
	}
	return claimed, nil
}
