// Package config loads lanform settings from defaults, an optional TOML
// file, LANFORM_* environment variables and bound command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
)

// FileName is the base name of the config file searched for on disk.
const FileName = "lanform.toml"

// EnvPrefix prefixes every environment override, e.g. LANFORM_RELAY_URL.
const EnvPrefix = "LANFORM"

// RelayConfig configures the aggregator forwarder.
type RelayConfig struct {
	URL     string        `mapstructure:"url"`
	Path    string        `mapstructure:"path"`
	Timeout time.Duration `mapstructure:"timeout"` // 0 = no client timeout
}

// ConnectivityConfig configures the reachability prober.
type ConnectivityConfig struct {
	// ProbeTarget is a host:port dialed to decide online/offline. When
	// empty it is derived from the relay URL.
	ProbeTarget   string        `mapstructure:"probe_target"`
	ProbeInterval time.Duration `mapstructure:"probe_interval"`
	DialTimeout   time.Duration `mapstructure:"dial_timeout"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
	Quiet      bool   `mapstructure:"quiet"`
}

type DashboardConfig struct {
	Port int `mapstructure:"port"` // 0 = disabled
}

type ServeConfig struct {
	Addr string `mapstructure:"addr"`
}

// Config is the complete lanform configuration.
type Config struct {
	StateDir     string             `mapstructure:"state_dir"`
	Relay        RelayConfig        `mapstructure:"relay"`
	Connectivity ConnectivityConfig `mapstructure:"connectivity"`
	Log          LogConfig          `mapstructure:"log"`
	Dashboard    DashboardConfig    `mapstructure:"dashboard"`
	Serve        ServeConfig        `mapstructure:"serve"`

	// File is the config file that was read, or "" if none.
	File string `mapstructure:"-"`
}

// MarkerPath returns the location of the grant marker database.
func (c *Config) MarkerPath() string {
	return filepath.Join(c.StateDir, "state.db")
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		StateDir: defaultStateDir(),
		Relay: RelayConfig{
			URL:     "http://localhost:8080",
			Path:    "/api/submit",
			Timeout: 10 * time.Second,
		},
		Connectivity: ConnectivityConfig{
			ProbeInterval: 5 * time.Second,
			DialTimeout:   2 * time.Second,
		},
		Log: LogConfig{
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Serve: ServeConfig{
			Addr: ":8080",
		},
	}
}

func defaultStateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "lanform")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "state", "lanform")
	}
	return ".lanform"
}

// SearchDirs returns the directories searched for FileName, in order.
func SearchDirs() []string {
	var dirs []string
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		dirs = append(dirs, filepath.Join(dir, "lanform"))
	} else if dir, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(dir, "lanform"))
	}
	return append(dirs, ".")
}

// NewViper returns a viper instance preloaded with defaults and the
// environment binding. Callers may bind flags on it before Load.
func NewViper() *viper.Viper {
	v := viper.New()
	d := Default()

	v.SetDefault("state_dir", d.StateDir)
	v.SetDefault("relay.url", d.Relay.URL)
	v.SetDefault("relay.path", d.Relay.Path)
	v.SetDefault("relay.timeout", d.Relay.Timeout)
	v.SetDefault("connectivity.probe_target", d.Connectivity.ProbeTarget)
	v.SetDefault("connectivity.probe_interval", d.Connectivity.ProbeInterval)
	v.SetDefault("connectivity.dial_timeout", d.Connectivity.DialTimeout)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.max_size_mb", d.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
	v.SetDefault("log.max_age_days", d.Log.MaxAgeDays)
	v.SetDefault("log.compress", d.Log.Compress)
	v.SetDefault("log.quiet", d.Log.Quiet)
	v.SetDefault("dashboard.port", d.Dashboard.Port)
	v.SetDefault("serve.addr", d.Serve.Addr)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file into v and returns the merged configuration.
//
// If path is set, that file must exist. Otherwise FileName is looked up in
// SearchDirs and a missing file is not an error.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(strings.TrimSuffix(FileName, filepath.Ext(FileName)))
		for _, dir := range SearchDirs() {
			v.AddConfigPath(dir)
		}
	}
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	if c.StateDir == "" {
		return fmt.Errorf("state_dir cannot be empty")
	}
	if c.Relay.Timeout < 0 {
		return fmt.Errorf("relay.timeout cannot be negative")
	}
	if c.Connectivity.ProbeInterval <= 0 {
		return fmt.Errorf("connectivity.probe_interval must be positive")
	}
	if c.Dashboard.Port < 0 || c.Dashboard.Port > 65535 {
		return fmt.Errorf("dashboard.port out of range: %d", c.Dashboard.Port)
	}
	return nil
}

// fileConfig mirrors Config for TOML output with durations as strings.
type fileConfig struct {
	StateDir     string `toml:"state_dir"`
	Relay        struct {
		URL     string `toml:"url"`
		Path    string `toml:"path"`
		Timeout string `toml:"timeout"`
	} `toml:"relay"`
	Connectivity struct {
		ProbeTarget   string `toml:"probe_target"`
		ProbeInterval string `toml:"probe_interval"`
		DialTimeout   string `toml:"dial_timeout"`
	} `toml:"connectivity"`
	Log struct {
		File       string `toml:"file"`
		MaxSizeMB  int    `toml:"max_size_mb"`
		MaxBackups int    `toml:"max_backups"`
		MaxAgeDays int    `toml:"max_age_days"`
		Compress   bool   `toml:"compress"`
		Quiet      bool   `toml:"quiet"`
	} `toml:"log"`
	Dashboard struct {
		Port int `toml:"port"`
	} `toml:"dashboard"`
	Serve struct {
		Addr string `toml:"addr"`
	} `toml:"serve"`
}

func toFile(c *Config) fileConfig {
	var f fileConfig
	f.StateDir = c.StateDir
	f.Relay.URL = c.Relay.URL
	f.Relay.Path = c.Relay.Path
	f.Relay.Timeout = c.Relay.Timeout.String()
	f.Connectivity.ProbeTarget = c.Connectivity.ProbeTarget
	f.Connectivity.ProbeInterval = c.Connectivity.ProbeInterval.String()
	f.Connectivity.DialTimeout = c.Connectivity.DialTimeout.String()
	f.Log.File = c.Log.File
	f.Log.MaxSizeMB = c.Log.MaxSizeMB
	f.Log.MaxBackups = c.Log.MaxBackups
	f.Log.MaxAgeDays = c.Log.MaxAgeDays
	f.Log.Compress = c.Log.Compress
	f.Log.Quiet = c.Log.Quiet
	f.Dashboard.Port = c.Dashboard.Port
	f.Serve.Addr = c.Serve.Addr
	return f
}

// WriteDefault writes the default configuration to path as TOML. It
// refuses to overwrite an existing file.
func WriteDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	if err := toml.NewEncoder(f).Encode(toFile(Default())); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return f.Close()
}
