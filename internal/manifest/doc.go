// Package manifest encodes and decodes the desired-state manifest exchanged
// between hosts: an ordered list of extension records (name, version, active
// flag, slug). Manifests are written as JSON or YAML and validated against an
// embedded JSON Schema on the way in.
package manifest
