package installer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/knomic/pluginsync/internal/host"
	"github.com/knomic/pluginsync/internal/repository"
)

// StagingPrefix starts the name of every temporary directory created inside
// the extension directory during an install.
const StagingPrefix = ".pluginsync-"

// ErrInstallFailed wraps every installation failure.
var ErrInstallFailed = errors.New("install failed")

// Result classifies a successful EnsureInstalled call.
type Result int

const (
	// Installed means the artifact was placed on disk by this call.
	Installed Result = iota + 1
	// AlreadyPresent means the main file existed and nothing was touched.
	AlreadyPresent
)

func (r Result) String() string {
	switch r {
	case Installed:
		return "installed"
	case AlreadyPresent:
		return "already-present"
	default:
		return "unknown"
	}
}

// Installer installs artifacts into a host layout.
type Installer struct {
	layout     host.Layout
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures an Installer.
type Option func(*Installer)

// WithHTTPClient sets the client used for downloads.
func WithHTTPClient(c *http.Client) Option {
	return func(i *Installer) { i.httpClient = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(i *Installer) { i.logger = l }
}

// New creates an Installer for layout.
func New(layout host.Layout, opts ...Option) *Installer {
	i := &Installer{
		layout:     layout,
		httpClient: http.DefaultClient,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// EnsureInstalled makes sure the artifact's extension is on disk.
func (i *Installer) EnsureInstalled(ctx context.Context, art *repository.Artifact) (Result, error) {
	if art == nil || art.Slug == "" {
		return 0, fmt.Errorf("%w: artifact has no slug", ErrInstallFailed)
	}
	slug := art.Slug
	if i.layout.Installed(slug) {
		return AlreadyPresent, nil
	}

	dest := i.layout.ExtensionDir(slug)
	if _, err := os.Stat(dest); err == nil {
		return 0, fmt.Errorf("%w: destination folder already exists: %s", ErrInstallFailed, dest)
	}

	if err := os.MkdirAll(i.layout.Dir, 0o755); err != nil {
		return 0, fmt.Errorf("%w: creating extension directory: %v", ErrInstallFailed, err)
	}

	staging, err := os.MkdirTemp(i.layout.Dir, StagingPrefix+slug+"-")
	if err != nil {
		return 0, fmt.Errorf("%w: creating staging directory: %v", ErrInstallFailed, err)
	}
	defer os.RemoveAll(staging)

	root, err := i.stage(ctx, art, staging)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInstallFailed, slug, err)
	}

	if err := os.Rename(root, dest); err != nil {
		return 0, fmt.Errorf("%w: moving %s into place: %v", ErrInstallFailed, slug, err)
	}

	if !i.layout.Installed(slug) {
		i.logger.Warn("Installed plugin has no conventional main file",
			"slug", slug, "expected", host.Key(slug))
	}
	return Installed, nil
}

// stage materialises the artifact under staging and returns the directory
// that becomes the extension directory.
func (i *Installer) stage(ctx context.Context, art *repository.Artifact, staging string) (string, error) {
	if art.SourceDir != "" {
		dst := filepath.Join(staging, art.Slug)
		if err := copyDir(art.SourceDir, dst); err != nil {
			return "", fmt.Errorf("copying %s: %w", art.SourceDir, err)
		}
		return dst, nil
	}

	if art.DownloadURL == "" {
		return "", fmt.Errorf("artifact has neither a download URL nor a source directory")
	}

	archive, err := i.fetch(ctx, art, staging)
	if err != nil {
		return "", err
	}
	if art.Checksum != "" {
		if err := verifyChecksum(archive, art.Checksum); err != nil {
			return "", err
		}
	}

	out := filepath.Join(staging, "extract")
	if err := extractZip(archive, out); err != nil {
		return "", err
	}
	return archiveRoot(out)
}
