// Package cli defines the Cobra command tree for the pluginsync CLI. Each file
// registers one top-level command (export, import, tick, run, status, ...)
// with the root command. Commands build their collaborators through newApp
// and only handle flag parsing, output formatting and process lifecycle.
package cli
