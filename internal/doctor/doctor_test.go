package doctor

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/knomic/pluginsync/internal/config"
)

func testSettings(t *testing.T) config.Settings {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	base := t.TempDir()
	return config.Settings{
		PluginsDir: filepath.Join(base, "plugins"),
		DBPath:     filepath.Join(base, "state.db"),
	}
}

func TestCheck_ReportsMissingWithoutFix(t *testing.T) {
	s := testSettings(t)
	var buf bytes.Buffer

	r := Check(context.Background(), &buf, s, false)
	if !r.Healthy() {
		t.Fatalf("expected no failures, got %+v:\n%s", r, buf.String())
	}
	if r.Warnings == 0 {
		t.Errorf("expected warnings for missing directories:\n%s", buf.String())
	}
	if _, err := os.Stat(s.PluginsDir); !os.IsNotExist(err) {
		t.Error("check without fix must not create the extension directory")
	}
}

func TestCheck_FixCreatesAndCleans(t *testing.T) {
	s := testSettings(t)
	leftover := filepath.Join(s.PluginsDir, ".pluginsync-foo-123")
	if err := os.MkdirAll(leftover, 0o755); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer

	r := Check(context.Background(), &buf, s, true)
	if !r.Healthy() {
		t.Fatalf("unexpected failures:\n%s", buf.String())
	}
	if r.Fixed < 2 {
		t.Errorf("expected the config dir and the leftover to be fixed, got %+v:\n%s", r, buf.String())
	}
	if _, err := os.Stat(leftover); !os.IsNotExist(err) {
		t.Error("leftover staging directory should be removed")
	}
	if _, err := os.Stat(config.Dir()); err != nil {
		t.Errorf("config dir not created: %v", err)
	}
	if !strings.Contains(buf.String(), "(0 queued)") {
		t.Errorf("expected database summary:\n%s", buf.String())
	}
}

func TestCheck_PluginsDirIsFile(t *testing.T) {
	s := testSettings(t)
	if err := os.WriteFile(s.PluginsDir, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if r := Check(context.Background(), &buf, s, true); r.Healthy() {
		t.Errorf("expected a failure:\n%s", buf.String())
	}
}
