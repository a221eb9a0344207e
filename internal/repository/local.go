package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knomic/pluginsync/internal/host"
)

// Source is a directory searched by the LocalClient.
type Source struct {
	Name     string
	BasePath string
}

// LocalClient resolves slugs against directories on disk. Sources are
// searched in slice order (first source = highest priority). A source may
// hold <slug>.zip archives or unpacked <slug>/ directories; within one source
// an archive wins over a directory.
type LocalClient struct {
	sources []Source
}

// NewLocalClient creates a client over sources.
func NewLocalClient(sources ...Source) *LocalClient {
	return &LocalClient{sources: sources}
}

// SourcesFromPathList splits a list of directories separated by
// os.PathListSeparator. Empty elements are ignored.
func SourcesFromPathList(list string) []Source {
	var sources []Source
	for _, p := range filepath.SplitList(list) {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		sources = append(sources, Source{Name: filepath.Base(p), BasePath: p})
	}
	return sources
}

// Lookup returns the highest-priority match for slug.
func (c *LocalClient) Lookup(_ context.Context, slug string) (*Artifact, error) {
	if slug == "" || strings.ContainsAny(slug, `/\`) || slug == "." || slug == ".." {
		return nil, notFound(slug)
	}

	for _, src := range c.sources {
		archive := filepath.Join(src.BasePath, slug+".zip")
		if info, err := os.Stat(archive); err == nil && !info.IsDir() {
			return &Artifact{Slug: slug, Name: slug, DownloadURL: archive}, nil
		}

		dir := filepath.Join(src.BasePath, slug)
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			continue
		}

		art := &Artifact{Slug: slug, Name: slug, SourceDir: dir}
		if h, err := host.ReadHeader(filepath.Join(dir, slug+".php")); err == nil {
			if h.Name != "" {
				art.Name = h.Name
			}
			art.Version = h.Version
		}
		return art, nil
	}

	return nil, fmt.Errorf("searched %d source(s): %w", len(c.sources), notFound(slug))
}
