package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/knomic/pluginsync/internal/activator"
	"github.com/knomic/pluginsync/internal/branding"
	"github.com/knomic/pluginsync/internal/config"
	"github.com/knomic/pluginsync/internal/host"
	"github.com/knomic/pluginsync/internal/installer"
	"github.com/knomic/pluginsync/internal/inventory"
	"github.com/knomic/pluginsync/internal/reconcile"
	"github.com/knomic/pluginsync/internal/repository"
	"github.com/knomic/pluginsync/internal/scheduler"
	"github.com/knomic/pluginsync/internal/secrets"
	"github.com/knomic/pluginsync/internal/store"
)

// app holds the components a command needs. Build it with newApp and release
// it with Close.
type app struct {
	settings  config.Settings
	logger    *slog.Logger
	store     *store.Store
	layout    host.Layout
	scheduler *scheduler.Scheduler
	activator *activator.Activator
	inventory *inventory.Reader
	engine    *reconcile.Engine
	secrets   *secrets.Resolver
}

// newApp resolves settings and opens the state database. logFormat overrides
// the configured format when non-empty.
func newApp(ctx context.Context, logOut io.Writer, logFormat string) (*app, error) {
	settings, err := config.Resolve()
	if err != nil {
		return nil, fmt.Errorf("resolving configuration: %w", err)
	}
	if logFormat == "" {
		logFormat = settings.Log.Format
	}
	logger, err := newLogger(logOut, settings.Log.Level, logFormat)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(settings.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening state database: %w", err)
	}

	a := &app{
		settings: settings,
		logger:   logger,
		store:    st,
		layout:   host.NewLayout(settings.PluginsDir),
		secrets:  secrets.NewResolver(nil),
	}
	a.scheduler = scheduler.New(st, branding.HookName())
	a.activator = activator.New(a.layout, st)
	a.inventory = inventory.NewReader(a.layout, st)
	return a, nil
}

// Engine builds the reconciliation engine on first use. Commands that only
// read the inventory never touch the repository backend.
func (a *app) Engine(ctx context.Context) (*reconcile.Engine, error) {
	if a.engine != nil {
		return a.engine, nil
	}

	httpClient := &http.Client{Timeout: a.settings.HTTPTimeout}
	repo, err := newRepository(ctx, a.settings, httpClient, a.secrets)
	if err != nil {
		return nil, err
	}

	engine, err := reconcile.NewEngine(reconcile.Deps{
		Queue:      a.store,
		Trigger:    a.scheduler,
		Repository: repo,
		Installer:  installer.New(a.layout, installer.WithHTTPClient(httpClient), installer.WithLogger(a.logger)),
		Activator:  a.activator,
		Host:       a.layout,
	},
		reconcile.WithLogger(a.logger),
		reconcile.WithDelay(a.settings.TickDelay),
		reconcile.WithTimeout(a.settings.HTTPTimeout),
		reconcile.WithRetry(reconcile.RetryPolicy{
			MaxAttempts: a.settings.Retry.MaxAttempts,
			MaxDelay:    a.settings.Retry.MaxDelay,
		}),
	)
	if err != nil {
		return nil, err
	}
	a.engine = engine
	return engine, nil
}

// Close releases the database and any secret manager client.
func (a *app) Close() error {
	if err := a.secrets.Close(); err != nil {
		a.logger.Warn("Failed to close secret manager client", "error", err)
	}
	return a.store.Close()
}

// newRepository builds the backend selected by repository.kind.
func newRepository(ctx context.Context, s config.Settings, httpClient *http.Client, res *secrets.Resolver) (repository.Client, error) {
	switch s.Repository.Kind {
	case "github":
		token, err := res.GitHubToken(ctx, s.GitHub.Token, s.GitHub.TokenSecret)
		if err != nil {
			return nil, fmt.Errorf("resolving GitHub token: %w", err)
		}
		var opts []repository.GitHubOption
		if s.Repository.URL != "" && s.Repository.URL != repository.DefaultCatalogURL {
			opts = append(opts, repository.WithGitHubBaseURL(s.Repository.URL))
		}
		return repository.NewGitHubClient(ctx, s.GitHub.Owner, token, httpClient, opts...)
	case "local":
		sources := repository.SourcesFromPathList(s.Repository.Dir)
		if len(sources) == 0 {
			return nil, fmt.Errorf("%s must name at least one directory for the local repository", config.KeyRepositoryDir)
		}
		return repository.NewLocalClient(sources...), nil
	default:
		return repository.NewCatalogClient(s.Repository.URL, repository.WithHTTPClient(httpClient)), nil
	}
}
