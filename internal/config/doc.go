// Package config manages user-level settings stored at ~/.pluginsync/config.yaml
// and PLUGINSYNC_* environment variables. It exposes raw key access for the
// config command and a typed Settings view for everything else: the extension
// directory, the SQLite database path, scheduler delays, the repository
// backend, and the retry policy.
package config
