package reconcile

import (
	"context"
	"time"

	"github.com/knomic/pluginsync/internal/manifest"
)

// Entry is one pending record in the work queue.
type Entry struct {
	manifest.ExtensionRecord
	// Attempts counts how many times the entry was tried and re-queued.
	Attempts int
}

// Queue is the durable work queue: everything that remains to reconcile.
type Queue struct {
	BatchID    string
	ImportedAt time.Time
	Entries    []Entry
}

// Len returns the number of pending entries.
func (q Queue) Len() int {
	return len(q.Entries)
}

// Empty reports whether nothing remains to reconcile.
func (q Queue) Empty() bool {
	return len(q.Entries) == 0
}

// Records returns the pending entries as manifest records.
func (q Queue) Records() manifest.Manifest {
	out := make(manifest.Manifest, len(q.Entries))
	for i, e := range q.Entries {
		out[i] = e.ExtensionRecord
	}
	return out
}

// QueueStore persists the work queue. The engine is its only writer.
// LoadQueue returns an empty Queue when nothing was ever saved.
type QueueStore interface {
	LoadQueue(ctx context.Context) (Queue, error)
	SaveQueue(ctx context.Context, q Queue) error
}

func entriesFrom(m manifest.Manifest) []Entry {
	entries := make([]Entry, len(m))
	for i, r := range m {
		entries[i] = Entry{ExtensionRecord: r}
	}
	return entries
}
