// Package branding provides compile-time identity values for the CLI.
//
// The values live in branding.yaml next to this file and are baked into the
// binary with //go:embed, so a fork can rename the tool without touching code.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName       string `yaml:"cli_name"`
	DisplayName   string `yaml:"display_name"`
	Description   string `yaml:"description"`
	HomeDir       string `yaml:"home_dir"`
	EnvPrefix     string `yaml:"env_prefix"`
	HookName      string `yaml:"hook_name"`
	UserAgent     string `yaml:"user_agent"`
	DefaultFormat string `yaml:"default_format"`
}

func load() {
	once.Do(func() {
		// Hard defaults in case the embedded file is missing or empty.
		defaults = brand{
			CLIName:       "pluginsync",
			DisplayName:   "PluginSync",
			Description:   "Export and import plugin data, including installation and activation status",
			HomeDir:       ".pluginsync",
			EnvPrefix:     "PLUGINSYNC",
			HookName:      "pluginsync_scheduled_task",
			UserAgent:     "pluginsync",
			DefaultFormat: "json",
		}
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "pluginsync").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name.
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// HomeDir returns the dot-directory name under $HOME (e.g., ".pluginsync").
func HomeDir() string { load(); return defaults.HomeDir }

// EnvPrefix returns the environment variable prefix (e.g., "PLUGINSYNC").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// HookName returns the scheduler hook the reconciliation tick is bound to.
func HookName() string { load(); return defaults.HookName }

// UserAgent returns the User-Agent sent on catalog and download requests.
func UserAgent() string { load(); return defaults.UserAgent }

// DefaultFormat returns the manifest format used by export when none is given.
func DefaultFormat() string { load(); return defaults.DefaultFormat }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("DB_PATH") → "PLUGINSYNC_DB_PATH".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
