// Package doctor checks the local pluginsync installation: configuration
// directory, extension directory, state database and leftovers of
// interrupted installs. With fix enabled it repairs what it can.
package doctor

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/knomic/pluginsync/internal/config"
	"github.com/knomic/pluginsync/internal/installer"
	"github.com/knomic/pluginsync/internal/store"
)

// Permission bits expected by the checks.
const (
	DirPermSecure  os.FileMode = 0o700
	DirPermNormal  os.FileMode = 0o755
	FilePermSecure os.FileMode = 0o600
)

// Report counts check outcomes.
type Report struct {
	OK, Warnings, Failures, Fixed int
}

// Healthy reports whether no check failed.
func (r Report) Healthy() bool { return r.Failures == 0 }

type checker struct {
	w   io.Writer
	fix bool
	r   Report
}

func (c *checker) ok(format string, args ...any) {
	c.r.OK++
	fmt.Fprintf(c.w, "  [ OK ] "+format+"\n", args...)
}

func (c *checker) warn(format string, args ...any) {
	c.r.Warnings++
	fmt.Fprintf(c.w, "  [WARN] "+format+"\n", args...)
}

func (c *checker) fail(format string, args ...any) {
	c.r.Failures++
	fmt.Fprintf(c.w, "  [FAIL] "+format+"\n", args...)
}

func (c *checker) fixed(format string, args ...any) {
	c.r.Fixed++
	fmt.Fprintf(c.w, "  [FIX ] "+format+"\n", args...)
}

// Check runs every check against s and writes one line per finding to w.
func Check(ctx context.Context, w io.Writer, s config.Settings, fix bool) Report {
	c := &checker{w: w, fix: fix}

	fmt.Fprintln(w, "Configuration:")
	c.checkDir(config.Dir(), DirPermSecure, true)
	c.checkFilePerm(config.FilePath(), FilePermSecure)

	fmt.Fprintln(w, "Extension directory:")
	c.checkDir(s.PluginsDir, DirPermNormal, false)
	c.checkStaging(s.PluginsDir)

	fmt.Fprintln(w, "State database:")
	c.checkStore(ctx, s.DBPath)

	return c.r
}

// checkDir verifies path is a directory. When strict, its permissions must
// match perm exactly.
func (c *checker) checkDir(path string, perm os.FileMode, strict bool) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		if !c.fix {
			c.warn("%s does not exist", path)
			return
		}
		if err := os.MkdirAll(path, perm); err != nil {
			c.fail("could not create %s: %v", path, err)
			return
		}
		c.fixed("created %s", path)
		return
	}
	if err != nil {
		c.fail("%s: %v", path, err)
		return
	}
	if !info.IsDir() {
		c.fail("%s exists but is not a directory", path)
		return
	}

	actual := info.Mode().Perm()
	if strict && runtime.GOOS != "windows" && actual != perm {
		if !c.fix {
			c.warn("%s has permissions %o (expected %o)", path, actual, perm)
			return
		}
		if err := os.Chmod(path, perm); err != nil {
			c.fail("could not fix permissions on %s: %v", path, err)
			return
		}
		c.fixed("fixed permissions on %s to %o", path, perm)
		return
	}
	c.ok("%s (permissions %o)", path, actual)
}

// checkFilePerm warns when an existing file is readable by others. The
// config file may hold a GitHub token.
func (c *checker) checkFilePerm(path string, perm os.FileMode) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		c.ok("%s not present (defaults and environment in use)", path)
		return
	}
	if err != nil {
		c.fail("%s: %v", path, err)
		return
	}
	actual := info.Mode().Perm()
	if runtime.GOOS == "windows" || actual == perm {
		c.ok("%s (permissions %o)", path, actual)
		return
	}
	if !c.fix {
		c.warn("%s has permissions %o (expected %o)", path, actual, perm)
		return
	}
	if err := os.Chmod(path, perm); err != nil {
		c.fail("could not fix permissions on %s: %v", path, err)
		return
	}
	c.fixed("fixed permissions on %s to %o", path, perm)
}

// checkStaging reports staging directories left by interrupted installs.
func (c *checker) checkStaging(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return // already reported by checkDir
	}

	var leftovers []string
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), installer.StagingPrefix) {
			leftovers = append(leftovers, filepath.Join(dir, e.Name()))
		}
	}
	if len(leftovers) == 0 {
		c.ok("no interrupted installs")
		return
	}
	for _, p := range leftovers {
		if !c.fix {
			c.warn("%s is left over from an interrupted install", p)
			continue
		}
		if err := os.RemoveAll(p); err != nil {
			c.fail("could not remove %s: %v", p, err)
			continue
		}
		c.fixed("removed %s", p)
	}
}

func (c *checker) checkStore(ctx context.Context, path string) {
	st, err := store.Open(path)
	if err != nil {
		c.fail("%s: %v", path, err)
		return
	}
	defer st.Close()

	q, err := st.LoadQueue(ctx)
	if err != nil {
		c.fail("reading work queue: %v", err)
		return
	}
	c.ok("%s (%d queued)", path, q.Len())
}
