// Package repository resolves an extension slug to a downloadable artifact.
//
// Three backends are provided: an HTTP catalog speaking the WordPress.org
// plugin-information API, GitHub releases, and local directories holding
// archives or unpacked extensions. All of them separate a permanent
// ErrNotFound from a *TransientError so callers can decide whether a failed
// lookup is worth retrying.
package repository
