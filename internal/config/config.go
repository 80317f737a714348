package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Default config file path.
const DefaultConfigPath = "~/.config/jobtrail/config.yaml"

// EnvPrefix prefixes every environment override, e.g. JOBTRAIL_DATABASE_URL.
const EnvPrefix = "JOBTRAIL"

// Config holds all jobtrail configuration.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Remote  RemoteConfig  `yaml:"remote"`
	Auth    AuthConfig    `yaml:"auth"`
	Logging LoggingConfig `yaml:"logging"`
	Sync    SyncConfig    `yaml:"sync"`
}

type StorageConfig struct {
	Path              string `yaml:"path"`
	SQLiteFile        string `yaml:"sqlite_file"`
	SQLiteJournalMode string `yaml:"sqlite_journal_mode"`
}

type RemoteConfig struct {
	DatabaseURL           string `yaml:"database_url"`
	MaxConns              int32  `yaml:"max_conns"`
	ConnectTimeoutSeconds int    `yaml:"connect_timeout_seconds"`
}

type AuthConfig struct {
	Secret string `yaml:"secret"`
	Issuer string `yaml:"issuer"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

type SyncConfig struct {
	IntervalMinutes    int `yaml:"interval_minutes"`
	StaleAfterDays     int `yaml:"stale_after_days"`
	MigrateConcurrency int `yaml:"migrate_concurrency"`
}

// envOverrides are read from JOBTRAIL_* variables and win over the file.
type envOverrides struct {
	DataDir     string `envconfig:"DATA_DIR"`
	DatabaseURL string `envconfig:"DATABASE_URL"`
	AuthSecret  string `envconfig:"AUTH_SECRET"`
	AuthIssuer  string `envconfig:"AUTH_ISSUER"`
	LogLevel    string `envconfig:"LOG_LEVEL"`
	LogFile     string `envconfig:"LOG_FILE"`
}

// Load reads a YAML config file at path, merges it with defaults and
// applies environment overrides.
// Returns an error if the file cannot be read or contains invalid YAML.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyEnv overlays JOBTRAIL_* environment variables onto cfg.
func ApplyEnv(cfg *Config) error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("reading environment: %w", err)
	}

	if env.DataDir != "" {
		cfg.Storage.Path = env.DataDir
	}
	if env.DatabaseURL != "" {
		cfg.Remote.DatabaseURL = env.DatabaseURL
	}
	if env.AuthSecret != "" {
		cfg.Auth.Secret = env.AuthSecret
	}
	if env.AuthIssuer != "" {
		cfg.Auth.Issuer = env.AuthIssuer
	}
	if env.LogLevel != "" {
		cfg.Logging.Level = env.LogLevel
	}
	if env.LogFile != "" {
		cfg.Logging.File = env.LogFile
	}
	return nil
}

// Validate checks enumerated and numeric settings.
func (c *Config) Validate() error {
	switch c.Storage.SQLiteJournalMode {
	case "wal", "delete", "truncate", "memory":
	default:
		return fmt.Errorf("config error: unsupported sqlite_journal_mode %q", c.Storage.SQLiteJournalMode)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config error: unsupported logging level %q", c.Logging.Level)
	}
	if c.Remote.MaxConns < 0 {
		return fmt.Errorf("config error: 'max_conns' must be non-negative")
	}
	if c.Sync.StaleAfterDays < 1 {
		return fmt.Errorf("config error: 'stale_after_days' must be at least 1")
	}
	if c.Sync.MigrateConcurrency < 1 {
		return fmt.Errorf("config error: 'migrate_concurrency' must be at least 1")
	}
	return nil
}

// SQLitePath returns the absolute path of the local database file.
func (c *Config) SQLitePath() (string, error) {
	dir, err := expandPath(c.Storage.Path)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, c.Storage.SQLiteFile), nil
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) (string, error) {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// LoadOrCreate loads the config from the default path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreate() (*Config, error) {
	path, err := expandPath(DefaultConfigPath)
	if err != nil {
		return nil, err
	}
	return LoadOrCreateAt(path)
}

// LoadOrCreateAt loads the config from the given path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreateAt(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()

		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating config directory: %w", err)
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("marshaling default config: %w", err)
		}

		if err := os.WriteFile(path, data, 0600); err != nil {
			return nil, fmt.Errorf("writing default config: %w", err)
		}

		if err := ApplyEnv(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	return Load(path)
}
