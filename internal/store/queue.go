package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/knomic/pluginsync/internal/reconcile"
)

// LoadQueue reads the persisted work queue. An empty Queue is returned when
// nothing was ever imported.
func (s *Store) LoadQueue(ctx context.Context) (reconcile.Queue, error) {
	var q reconcile.Queue

	var batchID string
	var importedAt int64
	err := s.db.QueryRowContext(ctx,
		"SELECT batch_id, imported_at FROM queue_batches WHERE id = 1",
	).Scan(&batchID, &importedAt)
	if err != nil && err != sql.ErrNoRows {
		return q, fmt.Errorf("failed to load queue batch: %w", err)
	}
	if err == nil {
		q.BatchID = batchID
		q.ImportedAt = time.Unix(0, importedAt).UTC()
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT name, version, active, slug, attempts FROM queue_entries ORDER BY position",
	)
	if err != nil {
		return q, fmt.Errorf("failed to load queue entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e reconcile.Entry
		var active int
		if err := rows.Scan(&e.Name, &e.Version, &active, &e.Slug, &e.Attempts); err != nil {
			return q, fmt.Errorf("failed to scan queue entry: %w", err)
		}
		e.Active = active != 0
		q.Entries = append(q.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return q, fmt.Errorf("failed to iterate queue entries: %w", err)
	}

	return q, nil
}

// SaveQueue replaces the persisted work queue with q in one transaction.
func (s *Store) SaveQueue(ctx context.Context, q reconcile.Queue) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM queue_entries"); err != nil {
		return fmt.Errorf("failed to clear queue entries: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO queue_entries (position, name, version, active, slug, attempts) VALUES (?, ?, ?, ?, ?, ?)",
	)
	if err != nil {
		return fmt.Errorf("failed to prepare queue insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range q.Entries {
		if _, err := stmt.ExecContext(ctx, i, e.Name, e.Version, boolToInt(e.Active), e.Slug, e.Attempts); err != nil {
			return fmt.Errorf("failed to insert queue entry %d: %w", i, err)
		}
	}

	if q.BatchID == "" {
		if _, err := tx.ExecContext(ctx, "DELETE FROM queue_batches"); err != nil {
			return fmt.Errorf("failed to clear queue batch: %w", err)
		}
	} else {
		now := time.Now().UnixNano()
		importedAt := q.ImportedAt.UnixNano()
		if q.ImportedAt.IsZero() {
			importedAt = now
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO queue_batches (id, batch_id, imported_at, updated_at) VALUES (1, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET batch_id = excluded.batch_id, imported_at = excluded.imported_at, updated_at = excluded.updated_at`,
			q.BatchID, importedAt, now,
		)
		if err != nil {
			return fmt.Errorf("failed to save queue batch: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit queue: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
