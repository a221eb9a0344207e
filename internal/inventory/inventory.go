// Package inventory reports the extensions installed on this host as a
// manifest, with live activation state.
package inventory

import (
	"context"
	"fmt"

	"github.com/knomic/pluginsync/internal/host"
	"github.com/knomic/pluginsync/internal/manifest"
)

// ActiveSet answers whether an extension key is active.
type ActiveSet interface {
	IsActive(ctx context.Context, key string) (bool, error)
}

// Reader lists installed extensions. It does not cache.
type Reader struct {
	layout host.Layout
	active ActiveSet
}

// NewReader creates a Reader.
func NewReader(layout host.Layout, active ActiveSet) *Reader {
	return &Reader{layout: layout, active: active}
}

// ListInstalled returns one record per discovered extension, sorted by
// extension key.
func (r *Reader) ListInstalled(ctx context.Context) (manifest.Manifest, error) {
	exts, err := r.layout.Discover()
	if err != nil {
		return nil, fmt.Errorf("listing installed extensions: %w", err)
	}

	out := make(manifest.Manifest, 0, len(exts))
	for _, ext := range exts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		active, err := r.active.IsActive(ctx, ext.Key)
		if err != nil {
			return nil, fmt.Errorf("reading activation state of %s: %w", ext.Key, err)
		}
		out = append(out, manifest.ExtensionRecord{
			Name:    ext.Header.Name,
			Version: ext.Header.Version,
			Active:  active,
			Slug:    ext.Slug(),
		})
	}
	return out, nil
}
