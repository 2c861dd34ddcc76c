// Package config loads taskbench settings from defaults, an optional YAML
// file, a .env file and TASKBENCH_* environment variables, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g.
// TASKBENCH_SERVER_ADDR for server.addr.
const EnvPrefix = "TASKBENCH"

// Config is the resolved configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Runner  RunnerConfig  `mapstructure:"runner"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Store   StoreConfig   `mapstructure:"store"`
	Schema  SchemaConfig  `mapstructure:"schema"`
	Log     LogConfig     `mapstructure:"log"`
}

// ServerConfig configures the HTTP viewer.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// RunnerConfig configures the change-detecting test runner.
type RunnerConfig struct {
	Interval      time.Duration `mapstructure:"interval"`
	ClearOnSwitch bool          `mapstructure:"clear_on_switch"`
}

// CatalogConfig selects the task catalog.
type CatalogConfig struct {
	// Path to a catalog YAML file. Empty selects the built-in catalog.
	Path string `mapstructure:"path"`
}

// StoreConfig configures verdict persistence.
type StoreConfig struct {
	// Path to the SQLite verdict log. Empty disables persistence.
	Path string `mapstructure:"path"`
}

// SchemaConfig bounds the compiled submission schema cache.
type SchemaConfig struct {
	CacheSize int `mapstructure:"cache_size"`
}

// LogConfig configures the slog handler and optional rotated log file.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// LOG_LEVEL is honored as a fallback; the prefixed name wins.
	_ = v.BindEnv("log.level", EnvPrefix+"_LOG_LEVEL", "LOG_LEVEL")
	return v
}

// SetDefaults registers every key so environment overrides apply even when
// no config file sets them.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("runner.interval", 200*time.Millisecond)
	v.SetDefault("runner.clear_on_switch", true)
	v.SetDefault("catalog.path", "")
	v.SetDefault("store.path", "")
	v.SetDefault("schema.cache_size", 128)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 3)
}

// LoadDotEnv loads variables from the given .env files (default ".env")
// without overriding ones already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads file (or ./config.yaml when file is empty) into v and
// returns the validated configuration. A missing default config file is
// not an error.
func Load(v *viper.Viper, file string) (Config, error) {
	if file != "" {
		if _, err := os.Stat(file); err != nil {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.Runner.Interval <= 0 {
		return fmt.Errorf("runner.interval: must be positive, got %s", c.Runner.Interval)
	}
	if c.Schema.CacheSize <= 0 {
		return fmt.Errorf("schema.cache_size: must be positive, got %d", c.Schema.CacheSize)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format: must be 'text' or 'json', got %q", c.Log.Format)
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		return fmt.Errorf("server.addr: is required")
	}
	return nil
}
