package store

import (
	"context"
	"fmt"
	"time"
)

// IsActive reports whether the extension with the given main-file key is active.
func (s *Store) IsActive(ctx context.Context, key string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM active_extensions WHERE ext_key = ?", key,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to read activation state: %w", err)
	}
	return n > 0, nil
}

// SetActive records key as active or inactive.
func (s *Store) SetActive(ctx context.Context, key string, active bool) error {
	var err error
	if active {
		_, err = s.db.ExecContext(ctx,
			"INSERT INTO active_extensions (ext_key, activated_at) VALUES (?, ?) ON CONFLICT(ext_key) DO NOTHING",
			key, time.Now().UnixNano(),
		)
	} else {
		_, err = s.db.ExecContext(ctx, "DELETE FROM active_extensions WHERE ext_key = ?", key)
	}
	if err != nil {
		return fmt.Errorf("failed to update activation state for %s: %w", key, err)
	}
	return nil
}

// ActiveKeys lists the keys of all active extensions in key order.
func (s *Store) ActiveKeys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT ext_key FROM active_extensions ORDER BY ext_key")
	if err != nil {
		return nil, fmt.Errorf("failed to list active extensions: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("failed to scan active extension: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
