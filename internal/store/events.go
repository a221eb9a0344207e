package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ScheduleEvent sets hook to fire at runAt, replacing any pending time.
func (s *Store) ScheduleEvent(ctx context.Context, hook string, runAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scheduled_events (hook, run_at) VALUES (?, ?)
		 ON CONFLICT(hook) DO UPDATE SET run_at = excluded.run_at`,
		hook, runAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule %s: %w", hook, err)
	}
	return nil
}

// UnscheduleEvent removes the pending event for hook, if any.
func (s *Store) UnscheduleEvent(ctx context.Context, hook string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM scheduled_events WHERE hook = ?", hook); err != nil {
		return fmt.Errorf("failed to unschedule %s: %w", hook, err)
	}
	return nil
}

// NextEvent returns when hook is due to fire. ok is false when nothing is pending.
func (s *Store) NextEvent(ctx context.Context, hook string) (runAt time.Time, ok bool, err error) {
	var ns int64
	err = s.db.QueryRowContext(ctx, "SELECT run_at FROM scheduled_events WHERE hook = ?", hook).Scan(&ns)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to read schedule for %s: %w", hook, err)
	}
	return time.Unix(0, ns), true, nil
}

// ClaimEvent atomically removes hook's pending event if it is due at now.
// It reports whether the caller now owns the firing.
func (s *Store) ClaimEvent(ctx context.Context, hook string, now time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM scheduled_events WHERE hook = ? AND run_at <= ?", hook, now.UnixNano(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to claim %s: %w", hook, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to claim %s: %w", hook, err)
	}
	return n > 0, nil
}
