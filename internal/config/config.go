// Package config loads insession settings. Precedence, lowest first:
// built-in defaults, the YAML config file, INSESSION_* environment
// variables, then command-line flags bound by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. INSESSION_DB_PATH.
const EnvPrefix = "INSESSION"

// Config holds all configuration options for insession.
type Config struct {
	DBPath         string        `mapstructure:"db_path"`
	LogTransitions bool          `mapstructure:"log_transitions"`
	TickInterval   time.Duration `mapstructure:"tick_interval"`  // live counter refresh
	WatchDebounce  time.Duration `mapstructure:"watch_debounce"` // coalesce DB change events
	AutoRefresh    bool          `mapstructure:"auto_refresh"`   // reload when another process writes
}

// Defaults returns the built-in configuration. The database lives in
// ~/.insession unless the home directory cannot be resolved.
func Defaults() Config {
	dbPath := filepath.Join(".insession", "insession.db")
	if home, err := os.UserHomeDir(); err == nil {
		dbPath = filepath.Join(home, ".insession", "insession.db")
	}
	return Config{
		DBPath:         dbPath,
		LogTransitions: false,
		TickInterval:   time.Second,
		WatchDebounce:  200 * time.Millisecond,
		AutoRefresh:    true,
	}
}

// DefaultConfigDir is where Load looks for config.yaml when no file is given.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "insession")
}

// Load resolves the configuration into v and returns it. cfgFile, when set,
// must exist; otherwise a missing default config file is not an error.
func Load(v *viper.Viper, cfgFile string) (Config, error) {
	defaults := Defaults()
	v.SetDefault("db_path", defaults.DBPath)
	v.SetDefault("log_transitions", defaults.LogTransitions)
	v.SetDefault("tick_interval", defaults.TickInterval)
	v.SetDefault("watch_debounce", defaults.WatchDebounce)
	v.SetDefault("auto_refresh", defaults.AutoRefresh)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if dir := DefaultConfigDir(); dir != "" {
			v.AddConfigPath(dir)
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	return cfg.normalized(defaults), nil
}

// normalized replaces unusable values with defaults and expands a leading
// "~/" in the database path.
func (c Config) normalized(defaults Config) Config {
	if strings.TrimSpace(c.DBPath) == "" {
		c.DBPath = defaults.DBPath
	}
	if strings.HasPrefix(c.DBPath, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			c.DBPath = filepath.Join(home, c.DBPath[2:])
		}
	}
	if c.TickInterval <= 0 {
		c.TickInterval = defaults.TickInterval
	}
	if c.WatchDebounce <= 0 {
		c.WatchDebounce = defaults.WatchDebounce
	}
	return c
}
