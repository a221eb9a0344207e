// Package activator toggles extension activation in the host store.
package activator

import (
	"context"
	"errors"
	"fmt"

	"github.com/knomic/pluginsync/internal/host"
)

// ErrActivationFailed wraps every activation failure.
var ErrActivationFailed = errors.New("activation failed")

// Store is the host's record of active extensions, keyed by main-file key.
type Store interface {
	IsActive(ctx context.Context, key string) (bool, error)
	SetActive(ctx context.Context, key string, active bool) error
}

// Result classifies a successful EnsureActivationState call.
type Result int

const (
	NoOp Result = iota
	Activated
	Deactivated
)

func (r Result) String() string {
	switch r {
	case Activated:
		return "activated"
	case Deactivated:
		return "deactivated"
	default:
		return "no-op"
	}
}

// Activator reads and changes activation state.
type Activator struct {
	layout host.Layout
	store  Store
}

// New creates an Activator.
func New(layout host.Layout, store Store) *Activator {
	return &Activator{layout: layout, store: store}
}

// IsActive reports whether slug's conventional main file is active.
func (a *Activator) IsActive(ctx context.Context, slug string) (bool, error) {
	active, err := a.store.IsActive(ctx, host.Key(slug))
	if err != nil {
		return false, fmt.Errorf("reading activation state of %s: %w", slug, err)
	}
	return active, nil
}

// EnsureActivationState brings slug to the desired state. Activation
// requires the main file to exist; deactivation does not.
func (a *Activator) EnsureActivationState(ctx context.Context, slug string, desired bool) (Result, error) {
	current, err := a.IsActive(ctx, slug)
	if err != nil {
		return NoOp, fmt.Errorf("%w: %v", ErrActivationFailed, err)
	}
	if current == desired {
		return NoOp, nil
	}

	if desired && !a.layout.Installed(slug) {
		return NoOp, fmt.Errorf("%w: %s: main file %s does not exist", ErrActivationFailed, slug, host.Key(slug))
	}

	if err := a.store.SetActive(ctx, host.Key(slug), desired); err != nil {
		return NoOp, fmt.Errorf("%w: %s: %v", ErrActivationFailed, slug, err)
	}
	if desired {
		return Activated, nil
	}
	return Deactivated, nil
}
