package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func setupConfig(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	viper.Reset()
	t.Cleanup(viper.Reset)
	Load()
}

func TestResolve_Defaults(t *testing.T) {
	setupConfig(t)

	s, err := Resolve()
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if s.TickDelay != 30*time.Second {
		t.Errorf("TickDelay = %s, want 30s", s.TickDelay)
	}
	if s.HTTPTimeout != 60*time.Second {
		t.Errorf("HTTPTimeout = %s, want 60s", s.HTTPTimeout)
	}
	if s.Repository.Kind != "catalog" {
		t.Errorf("Repository.Kind = %q, want %q", s.Repository.Kind, "catalog")
	}
	if s.Retry.MaxAttempts != 1 {
		t.Errorf("Retry.MaxAttempts = %d, want 1", s.Retry.MaxAttempts)
	}
	if s.PluginsDir == "" || s.DBPath == "" {
		t.Errorf("expected default paths, got plugins=%q db=%q", s.PluginsDir, s.DBPath)
	}
}

func TestResolve_EnvOverride(t *testing.T) {
	setupConfig(t)
	t.Setenv("PLUGINSYNC_TICK_DELAY", "5s")
	t.Setenv("PLUGINSYNC_REPOSITORY_KIND", "local")
	t.Setenv("PLUGINSYNC_RETRY_MAX_ATTEMPTS", "3")

	s, err := Resolve()
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if s.TickDelay != 5*time.Second {
		t.Errorf("TickDelay = %s, want 5s", s.TickDelay)
	}
	if s.Repository.Kind != "local" {
		t.Errorf("Repository.Kind = %q, want %q", s.Repository.Kind, "local")
	}
	if s.Retry.MaxAttempts != 3 {
		t.Errorf("Retry.MaxAttempts = %d, want 3", s.Retry.MaxAttempts)
	}
}

func TestResolve_UnknownRepositoryKind(t *testing.T) {
	setupConfig(t)
	t.Setenv("PLUGINSYNC_REPOSITORY_KIND", "ftp")

	if _, err := Resolve(); err == nil {
		t.Fatal("expected error for unknown repository kind, got nil")
	}
}

func TestSetAndGet(t *testing.T) {
	setupConfig(t)

	if err := Set("github.owner", "acme"); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if got := Get("github.owner"); got != "acme" {
		t.Errorf("Get() = %q, want %q", got, "acme")
	}
}
