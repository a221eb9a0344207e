package reconcile

import (
	"context"
	"time"

	"github.com/knomic/pluginsync/internal/activator"
	"github.com/knomic/pluginsync/internal/installer"
	"github.com/knomic/pluginsync/internal/repository"
)

// Trigger is the single-event scheduler that invokes Tick.
type Trigger interface {
	Schedule(ctx context.Context, delay time.Duration) error
	Cancel(ctx context.Context) error
	Pending(ctx context.Context) (bool, time.Time, error)
}

// Installer places artifacts on disk.
type Installer interface {
	EnsureInstalled(ctx context.Context, art *repository.Artifact) (installer.Result, error)
}

// Activator reads and changes activation state by slug.
type Activator interface {
	IsActive(ctx context.Context, slug string) (bool, error)
	EnsureActivationState(ctx context.Context, slug string, desired bool) (activator.Result, error)
}

// Host answers questions about the local extension directory.
type Host interface {
	Installed(slug string) bool
	MainFile(slug string) string
}

// Deps are the collaborators an Engine needs. All are required.
type Deps struct {
	Queue      QueueStore
	Trigger    Trigger
	Repository repository.Client
	Installer  Installer
	Activator  Activator
	Host       Host
}
