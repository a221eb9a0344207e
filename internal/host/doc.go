// Package host models the extension directory of a host installation: where
// an extension's main file lives, how its header is read, and how a stable
// slug is derived for it.
//
// Extensions live either in their own subdirectory (<dir>/<slug>/<file>.php)
// or as a single file at the top of the directory (<dir>/<file>.php). An
// extension is identified by its key, the path of its main file relative to
// the extension directory using forward slashes.
package host
