package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func mkfile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLocalLookup_Priority(t *testing.T) {
	high := t.TempDir()
	low := t.TempDir()

	mkfile(t, filepath.Join(low, "foo", "foo.php"), "<?php\n/*\n * Plugin Name: Foo Low\n * Version: 1.0\n */\n")
	mkfile(t, filepath.Join(high, "foo", "foo.php"), "<?php\n/*\n * Plugin Name: Foo High\n * Version: 2.0\n */\n")

	c := NewLocalClient(Source{Name: "high", BasePath: high}, Source{Name: "low", BasePath: low})
	art, err := c.Lookup(context.Background(), "foo")
	if err != nil {
		t.Fatalf("Lookup() error: %v", err)
	}
	if art.SourceDir != filepath.Join(high, "foo") {
		t.Errorf("SourceDir = %q, want high-priority source", art.SourceDir)
	}
	if art.Name != "Foo High" || art.Version != "2.0" {
		t.Errorf("artifact = %+v", art)
	}
}

func TestLocalLookup_ArchiveWinsInSameSource(t *testing.T) {
	dir := t.TempDir()
	mkfile(t, filepath.Join(dir, "foo.zip"), "PK")
	mkfile(t, filepath.Join(dir, "foo", "foo.php"), "<?php")

	art, err := NewLocalClient(Source{BasePath: dir}).Lookup(context.Background(), "foo")
	if err != nil {
		t.Fatalf("Lookup() error: %v", err)
	}
	if art.DownloadURL != filepath.Join(dir, "foo.zip") || art.SourceDir != "" {
		t.Errorf("artifact = %+v", art)
	}
}

func TestLocalLookup_NotFound(t *testing.T) {
	c := NewLocalClient(Source{BasePath: t.TempDir()})
	for _, slug := range []string{"absent", "", "..", "a/b"} {
		if _, err := c.Lookup(context.Background(), slug); !errors.Is(err, ErrNotFound) {
			t.Errorf("Lookup(%q) = %v, want ErrNotFound", slug, err)
		}
	}
}

func TestSourcesFromPathList(t *testing.T) {
	list := strings.Join([]string{"/a/one", "", " /b/two "}, string(os.PathListSeparator))
	got := SourcesFromPathList(list)
	if len(got) != 2 {
		t.Fatalf("got %d sources, want 2", len(got))
	}
	if got[0].BasePath != "/a/one" || got[0].Name != "one" {
		t.Errorf("got[0] = %+v", got[0])
	}
	if got[1].BasePath != "/b/two" {
		t.Errorf("got[1] = %+v", got[1])
	}
}
