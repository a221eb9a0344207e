package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knomic/pluginsync/internal/branding"
	"github.com/spf13/viper"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Config keys. Nested keys map to PLUGINSYNC_<SECTION>_<KEY> env vars.
const (
	KeyPluginsDir        = "plugins_dir"
	KeyDBPath            = "db_path"
	KeyTickDelay         = "tick_delay"
	KeyPollInterval      = "poll_interval"
	KeyHTTPTimeout       = "http_timeout"
	KeyRepositoryKind    = "repository.kind"
	KeyRepositoryURL     = "repository.url"
	KeyRepositoryDir     = "repository.dir"
	KeyGitHubOwner       = "github.owner"
	KeyGitHubToken       = "github.token"
	KeyGitHubTokenSecret = "github.token_secret"
	KeyRetryMaxAttempts  = "retry.max_attempts"
	KeyRetryMaxDelay     = "retry.max_delay"
	KeyLogLevel          = "log.level"
	KeyLogFormat         = "log.format"
)

// Settings is the typed view of the configuration used by the commands.
type Settings struct {
	PluginsDir   string
	DBPath       string
	TickDelay    time.Duration
	PollInterval time.Duration
	HTTPTimeout  time.Duration
	Repository   RepositorySettings
	GitHub       GitHubSettings
	Retry        RetrySettings
	Log          LogSettings
}

// RepositorySettings selects and configures the extension catalog backend.
type RepositorySettings struct {
	Kind string // "catalog", "github", or "local"
	URL  string
	Dir  string
}

// GitHubSettings configures the GitHub releases backend.
type GitHubSettings struct {
	Owner       string
	Token       string
	TokenSecret string // Secret Manager resource name, used when Token is empty
}

// RetrySettings bounds how often a transiently failing entry is re-queued.
type RetrySettings struct {
	MaxAttempts int
	MaxDelay    time.Duration
}

// LogSettings configures the slog handler.
type LogSettings struct {
	Level  string
	Format string
}

// Dir returns the path to the config directory (~/.pluginsync/).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file (~/.pluginsync/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

// setDefaults registers the default for every known key.
func setDefaults() {
	viper.SetDefault(KeyPluginsDir, filepath.Join(Dir(), "plugins"))
	viper.SetDefault(KeyDBPath, filepath.Join(Dir(), "pluginsync.db"))
	viper.SetDefault(KeyTickDelay, 30*time.Second)
	viper.SetDefault(KeyPollInterval, 5*time.Second)
	viper.SetDefault(KeyHTTPTimeout, 60*time.Second)
	viper.SetDefault(KeyRepositoryKind, "catalog")
	viper.SetDefault(KeyRepositoryURL, "https://api.wordpress.org")
	viper.SetDefault(KeyRepositoryDir, "")
	viper.SetDefault(KeyGitHubOwner, "")
	viper.SetDefault(KeyGitHubToken, "")
	viper.SetDefault(KeyGitHubTokenSecret, "")
	viper.SetDefault(KeyRetryMaxAttempts, 1)
	viper.SetDefault(KeyRetryMaxDelay, 10*time.Minute)
	viper.SetDefault(KeyLogLevel, "info")
	viper.SetDefault(KeyLogFormat, "text")
}

// Load initializes Viper to read from the config file and environment.
func Load() {
	setDefaults()
	viper.SetConfigFile(FilePath())
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Ignore error if config file doesn't exist yet.
	_ = viper.ReadInConfig()
}

// Get returns a config value by key. Returns empty string if not set.
func Get(key string) string {
	return viper.GetString(key)
}

// Resolve returns the typed settings. Load must have been called first.
func Resolve() (Settings, error) {
	s := Settings{
		PluginsDir:   viper.GetString(KeyPluginsDir),
		DBPath:       viper.GetString(KeyDBPath),
		TickDelay:    viper.GetDuration(KeyTickDelay),
		PollInterval: viper.GetDuration(KeyPollInterval),
		HTTPTimeout:  viper.GetDuration(KeyHTTPTimeout),
		Repository: RepositorySettings{
			Kind: strings.ToLower(viper.GetString(KeyRepositoryKind)),
			URL:  viper.GetString(KeyRepositoryURL),
			Dir:  viper.GetString(KeyRepositoryDir),
		},
		GitHub: GitHubSettings{
			Owner:       viper.GetString(KeyGitHubOwner),
			Token:       viper.GetString(KeyGitHubToken),
			TokenSecret: viper.GetString(KeyGitHubTokenSecret),
		},
		Retry: RetrySettings{
			MaxAttempts: viper.GetInt(KeyRetryMaxAttempts),
			MaxDelay:    viper.GetDuration(KeyRetryMaxDelay),
		},
		Log: LogSettings{
			Level:  viper.GetString(KeyLogLevel),
			Format: viper.GetString(KeyLogFormat),
		},
	}

	if s.PluginsDir == "" {
		return s, fmt.Errorf("%s must not be empty", KeyPluginsDir)
	}
	if s.TickDelay <= 0 {
		return s, fmt.Errorf("%s must be positive, got %s", KeyTickDelay, s.TickDelay)
	}
	if s.Retry.MaxAttempts < 1 {
		s.Retry.MaxAttempts = 1
	}
	switch s.Repository.Kind {
	case "catalog", "github", "local":
	default:
		return s, fmt.Errorf("unknown %s %q (want catalog, github, or local)", KeyRepositoryKind, s.Repository.Kind)
	}
	return s, nil
}

// Set writes a config key-value pair and saves the config file.
func Set(key, value string) error {
	if err := EnsureDir(); err != nil {
		return err
	}

	viper.Set(key, value)

	configFile := FilePath()

	// Create the file if it doesn't exist.
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("creating config file %s: %w", configFile, err)
		}
		f.Close()
	}

	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
