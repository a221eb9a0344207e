package repository

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound reports that the repository does not know the slug. It is
// permanent: retrying will not help.
var ErrNotFound = errors.New("extension not found in repository")

// TransientError wraps a lookup failure that may succeed on retry
// (network errors, timeouts, rate limiting, 5xx responses).
type TransientError struct {
	Slug string
	Err  error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("looking up %s: %v", e.Slug, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err is, or wraps, a *TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

func notFound(slug string) error {
	return fmt.Errorf("%s: %w", slug, ErrNotFound)
}

func transient(slug string, err error) error {
	return &TransientError{Slug: slug, Err: err}
}

// Artifact is a resolved, installable extension.
type Artifact struct {
	Slug    string
	Name    string
	Version string

	// DownloadURL is an http(s) URL or a local path to a zip archive.
	DownloadURL string
	// SourceDir is set instead of DownloadURL for unpacked local extensions.
	SourceDir string
	// Checksum is the expected hex sha256 of the archive, when known.
	Checksum string
}

// Client looks up extensions by slug.
type Client interface {
	Lookup(ctx context.Context, slug string) (*Artifact, error)
}
