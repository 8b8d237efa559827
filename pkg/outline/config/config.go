package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level"`
	Path       string            `mapstructure:"path"`
	Components map[string]string `mapstructure:"components"`
}

// BackendConfig configures the remote store client and its offline
// cache.
type BackendConfig struct {
	CachePath    string `mapstructure:"cache_path"` // Empty means use default XDG path
	CacheEnabled bool   `mapstructure:"cache_enabled"`
}

// EngineConfig tunes the mutation engine's replication polling.
type EngineConfig struct {
	RetryAttempts int `mapstructure:"retry_attempts"`
	RetryDelayMS  int `mapstructure:"retry_delay_ms"`
}

// UIStateConfig configures window state persistence.
type UIStateConfig struct {
	Path         string `mapstructure:"path"` // Empty means use default XDG path
	SaveInterval int    `mapstructure:"save_interval"`
	PerWindow    bool   `mapstructure:"per_window"` // One file per window instead of a shared file
}

// Config represents the application configuration.
type Config struct {
	Backend BackendConfig `mapstructure:"backend"`
	Engine  EngineConfig  `mapstructure:"engine"`
	UIState UIStateConfig `mapstructure:"uistate"`
	Logging LoggingConfig `mapstructure:"logging"`
	Debug   bool          `mapstructure:"debug"`
}

// Load loads configuration from file and environment variables.
// Config file locations (in order of precedence):
//   - $XDG_CONFIG_HOME/arbor/config.yaml
//   - $HOME/.config/arbor/config.yaml
//
// Environment variables are prefixed with ARBOR_ (e.g., ARBOR_DEBUG).
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		v.AddConfigPath(filepath.Join(xdgConfigHome, "arbor"))
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}
	v.AddConfigPath(filepath.Join(homeDir, ".config", "arbor"))

	v.SetEnvPrefix("ARBOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("backend.cache_path", "") // Empty means use DefaultCachePath
	v.SetDefault("backend.cache_enabled", true)
	v.SetDefault("engine.retry_attempts", DefaultRetryAttempts)
	v.SetDefault("engine.retry_delay_ms", DefaultRetryDelayMS)
	v.SetDefault("uistate.path", "") // Empty means use DefaultUIStatePath
	v.SetDefault("uistate.save_interval", DefaultSaveInterval)
	v.SetDefault("uistate.per_window", false)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "") // Empty means use default: $XDG_STATE_HOME/arbor/arbor.log
	v.SetDefault("logging.components", map[string]string{
		"engine":  "info",
		"backend": "info",
		"uistate": "warn",
		"tui":     "info",
	})
	v.SetDefault("debug", false)

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if strings.HasPrefix(cfg.Backend.CachePath, "~") {
		cfg.Backend.CachePath = filepath.Join(homeDir, cfg.Backend.CachePath[1:])
	}
	if strings.HasPrefix(cfg.UIState.Path, "~") {
		cfg.UIState.Path = filepath.Join(homeDir, cfg.UIState.Path[1:])
	}

	return &cfg, nil
}

// ConfigDir returns the configuration directory path.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "arbor"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", "arbor"), nil
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return nil
}

// DefaultCachePath is the offline node cache location used when the
// config leaves backend.cache_path empty.
func DefaultCachePath() string {
	return filepath.Join(xdg.DataHome, "arbor", "cache")
}

// DefaultUIStatePath is the window state file location used when the
// config leaves uistate.path empty.
func DefaultUIStatePath() string {
	return filepath.Join(xdg.StateHome, "arbor", "uistate.json")
}

// WriteDefault writes a default config file if none exists.
// Returns nil if a config file already exists.
func WriteDefault() error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}

	configDir, err := ConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.yaml")

	if _, err := os.Stat(configPath); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to check config file: %w", err)
	}

	defaultConfig := fmt.Sprintf(`# Arbor Outline Client Configuration

# Remote store client
backend:
  # Offline node cache path (empty means use default: $XDG_DATA_HOME/arbor/cache)
  cache_path: ""
  cache_enabled: true

# Mutation engine replication polling
engine:
  retry_attempts: %d
  retry_delay_ms: %d

# Window state persistence
uistate:
  # State file path (empty means use default: $XDG_STATE_HOME/arbor/uistate.json)
  path: ""
  # Seconds between unsaved-change checks
  save_interval: %d
  # One state file per window instead of a shared file
  per_window: false

# Logging configuration
logging:
  # Log level: debug, info, warn, error
  level: info
  # Log file path (empty means use default: $XDG_STATE_HOME/arbor/arbor.log)
  path: ""
  # Per-component log levels
  components:
    engine: info
    backend: info
    uistate: warn
    tui: info

# Enable tree validation after every mutation
debug: false
`, DefaultRetryAttempts, DefaultRetryDelayMS, DefaultSaveInterval)

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("failed to write default config: %w", err)
	}

	return nil
}
