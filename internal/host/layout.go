package host

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// headerReadLimit is how much of a file is scanned for header fields.
const headerReadLimit = 8 * 1024

// mainFileExt is the extension of files that may carry a header.
const mainFileExt = ".php"

var headerFields = map[string]*regexp.Regexp{
	"Name":        headerRegexp("Plugin Name"),
	"Version":     headerRegexp("Version"),
	"Description": headerRegexp("Description"),
	"Author":      headerRegexp("Author"),
}

func headerRegexp(field string) *regexp.Regexp {
	return regexp.MustCompile(`(?mi)^[ \t/*#@]*` + regexp.QuoteMeta(field) + `:(.*)$`)
}

// Header holds the metadata read from an extension's main file.
type Header struct {
	Name        string
	Version     string
	Description string
	Author      string
}

// Extension is an extension found on disk.
type Extension struct {
	Key    string // e.g. "akismet/akismet.php" or "hello.php"
	Path   string // absolute path to the main file
	Header Header
}

// Slug returns the extension's slug: its directory name, or the slugified
// display name for single-file extensions.
func (e Extension) Slug() string {
	return SlugForKey(e.Key, e.Header.Name)
}

// Layout resolves paths inside an extension directory.
type Layout struct {
	Dir string
}

// NewLayout returns a Layout rooted at dir.
func NewLayout(dir string) Layout {
	return Layout{Dir: dir}
}

// Key returns the conventional main-file key for slug ("<slug>/<slug>.php").
func Key(slug string) string {
	return slug + "/" + slug + mainFileExt
}

// SlugForKey derives a slug from an extension key. Keys at the top level of
// the directory (dirname ".") fall back to the slugified name.
func SlugForKey(key, name string) string {
	dir := path.Dir(key)
	if dir != "." {
		return dir
	}
	if s := Slugify(name); s != "" {
		return s
	}
	return Slugify(strings.TrimSuffix(path.Base(key), mainFileExt))
}

// ExtensionDir returns the directory an extension with slug is installed into.
func (l Layout) ExtensionDir(slug string) string {
	return filepath.Join(l.Dir, slug)
}

// MainFile returns the absolute path of slug's conventional main file.
func (l Layout) MainFile(slug string) string {
	return filepath.Join(l.Dir, filepath.FromSlash(Key(slug)))
}

// Installed reports whether slug's conventional main file exists.
func (l Layout) Installed(slug string) bool {
	if slug == "" {
		return false
	}
	info, err := os.Stat(l.MainFile(slug))
	return err == nil && !info.IsDir()
}

// Discover lists every extension in the directory: top-level files and files
// one directory deep that carry a name header. Results are sorted by key.
// A missing directory yields an empty list.
func (l Layout) Discover() ([]Extension, error) {
	entries, err := os.ReadDir(l.Dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading extension directory %s: %w", l.Dir, err)
	}

	var found []Extension
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		if !entry.IsDir() {
			if ext, ok := l.probe(name); ok {
				found = append(found, ext)
			}
			continue
		}

		subEntries, err := os.ReadDir(filepath.Join(l.Dir, name))
		if err != nil {
			continue
		}
		for _, sub := range subEntries {
			if sub.IsDir() || strings.HasPrefix(sub.Name(), ".") {
				continue
			}
			if ext, ok := l.probe(name + "/" + sub.Name()); ok {
				found = append(found, ext)
			}
		}
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Key < found[j].Key })
	return found, nil
}

// probe reads the header of key and reports whether it names an extension.
func (l Layout) probe(key string) (Extension, bool) {
	if !strings.HasSuffix(key, mainFileExt) {
		return Extension{}, false
	}
	p := filepath.Join(l.Dir, filepath.FromSlash(key))
	hdr, err := ReadHeader(p)
	if err != nil || hdr.Name == "" {
		return Extension{}, false
	}
	return Extension{Key: key, Path: p, Header: hdr}, true
}

// ReadHeader reads header fields from the start of the file at path.
func ReadHeader(path string) (Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	return ParseHeader(f)
}

// ParseHeader scans at most the first 8 KiB of r for header fields.
func ParseHeader(r io.Reader) (Header, error) {
	buf, err := io.ReadAll(io.LimitReader(bufio.NewReader(r), headerReadLimit))
	if err != nil {
		return Header{}, fmt.Errorf("reading header: %w", err)
	}
	text := strings.ReplaceAll(string(buf), "\r", "\n")

	field := func(name string) string {
		m := headerFields[name].FindStringSubmatch(text)
		if m == nil {
			return ""
		}
		return cleanHeaderValue(m[1])
	}

	return Header{
		Name:        field("Name"),
		Version:     field("Version"),
		Description: field("Description"),
		Author:      field("Author"),
	}, nil
}

// cleanHeaderValue strips a trailing comment terminator and whitespace.
func cleanHeaderValue(v string) string {
	v = strings.TrimSpace(v)
	if i := strings.Index(v, "*/"); i >= 0 {
		v = strings.TrimSpace(v[:i])
	}
	if i := strings.Index(v, "?>"); i >= 0 {
		v = strings.TrimSpace(v[:i])
	}
	return v
}
