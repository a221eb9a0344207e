package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/knomic/pluginsync/internal/branding"
	"github.com/knomic/pluginsync/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var (
	flagPluginsDir string
	flagDBPath     string
	flagLogLevel   string
)

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` exports the extensions installed on a host to a manifest file and
re-applies a manifest on another host. Imported manifests are drained one
extension per scheduled tick: missing extensions are installed from the
configured repository and activated when the manifest asks for it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		bindings := map[string]string{
			config.KeyPluginsDir: "plugins-dir",
			config.KeyDBPath:     "db",
			config.KeyLogLevel:   "log-level",
		}
		for key, name := range bindings {
			if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
				if err := viper.BindPFlag(key, f); err != nil {
					return fmt.Errorf("binding --%s: %w", name, err)
				}
			}
		}
		config.Load()
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagPluginsDir, "plugins-dir", "", "Extension directory (default ~/"+branding.HomeDir()+"/plugins)")
	pf.StringVar(&flagDBPath, "db", "", "State database path (default ~/"+branding.HomeDir()+"/pluginsync.db)")
	pf.StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	return rootCmd.Execute()
}

// newLogger builds the slog logger for the configured level and format.
func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q (want text or json)", format)
	}
}
