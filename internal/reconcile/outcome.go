package reconcile

import (
	"time"

	"github.com/knomic/pluginsync/internal/activator"
	"github.com/knomic/pluginsync/internal/manifest"
)

// State is the engine's lifecycle state, derived from the queue.
type State int

const (
	Idle State = iota
	Draining
)

func (s State) String() string {
	if s == Draining {
		return "draining"
	}
	return "idle"
}

// Result classifies what a tick did with the entry it processed.
type Result int

const (
	// ResultNone means the queue was empty.
	ResultNone Result = iota
	ResultInstalled
	ResultAlreadyPresent
	// ResultSkipped means the record had no usable slug.
	ResultSkipped
	// ResultNotFound means the repository does not know the slug.
	ResultNotFound
	// ResultFailed means lookup or installation failed and the entry was dropped.
	ResultFailed
	// ResultRequeued means a failed entry went back to the tail of the queue.
	ResultRequeued
)

var resultNames = map[Result]string{
	ResultNone:           "none",
	ResultInstalled:      "installed",
	ResultAlreadyPresent: "already-present",
	ResultSkipped:        "skipped",
	ResultNotFound:       "not-found",
	ResultFailed:         "failed",
	ResultRequeued:       "requeued",
}

func (r Result) String() string {
	if s, ok := resultNames[r]; ok {
		return s
	}
	return "unknown"
}

// TickOutcome reports the effect of one Tick.
type TickOutcome struct {
	// Processed is the entry removed from the head, nil when the queue was empty.
	Processed *manifest.ExtensionRecord
	// Rearm is true iff the queue is non-empty after the tick.
	Rearm bool
	// Delay is the re-arm delay, zero when Rearm is false.
	Delay     time.Duration
	Remaining int
	Result    Result
	// Activation is the activation step's result; NoOp when nothing changed.
	Activation activator.Result
	// Err is the logged failure of the processed entry, if any. Per-entry
	// failures are never returned as Tick errors.
	Err error
}

// Status is a read-only snapshot for operators.
type Status struct {
	State      State
	BatchID    string
	ImportedAt time.Time
	Remaining  int
	Head       *Entry
	Pending    bool
	NextRun    time.Time
}
