package manifest

import (
	"fmt"
	"strings"
)

// ExtensionRecord describes one extension as exported from a host.
type ExtensionRecord struct {
	Name    string `yaml:"name" json:"name"`
	Version string `yaml:"version" json:"version"`
	Active  bool   `yaml:"active" json:"active"`
	Slug    string `yaml:"slug" json:"slug"`
}

// Actionable reports whether the record can be reconciled. Records without a
// slug are tolerated by Decode but cannot be looked up or installed.
func (r ExtensionRecord) Actionable() bool {
	return r.Slug != ""
}

// DisplayName returns the name, falling back to the slug.
func (r ExtensionRecord) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Slug
}

// Manifest is an ordered list of extension records. Slugs are not required
// to be unique.
type Manifest []ExtensionRecord

// Slugs returns the slugs of all records in order, including empty ones.
func (m Manifest) Slugs() []string {
	out := make([]string, len(m))
	for i, r := range m {
		out[i] = r.Slug
	}
	return out
}

// Format is a manifest serialization format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat maps a user-supplied format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown manifest format %q (want json or yaml)", s)
	}
}

// FormatFromPath guesses the format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml") {
		return FormatYAML
	}
	return FormatJSON
}
