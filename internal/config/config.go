package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultListen          = "127.0.0.1:8080"
	DefaultSource          = "data/events.json"
	DefaultDurationHours   = 8
	DefaultRefreshInterval = "1s"
	DefaultFetchTimeout    = "15s"
	DefaultLogLevel        = "info"
)

// Environment variables that override the file.
const (
	EnvListen   = "EVENTBOARD_LISTEN"
	EnvSource   = "EVENTBOARD_SOURCE"
	EnvLogLevel = "EVENTBOARD_LOG_LEVEL"
)

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen" json:"listen"`

	// Source is the event document: an http(s) URL, file:// URL or path.
	Source string `yaml:"source" json:"source"`

	// Timezone is the IANA zone used for timestamps without an offset.
	// Empty means the host's local zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// DefaultDurationHours is the event length assumed when "end" is
	// missing.
	DefaultDurationHours int `yaml:"default_duration_hours" json:"default_duration_hours"`

	// RefreshInterval is the render tick period (Go duration string). The
	// board is designed around a one-second cadence; any other value makes
	// countdowns step by that period instead of by the second.
	RefreshInterval string `yaml:"refresh_interval" json:"refresh_interval"`

	// Reload is an optional cron expression (e.g. "*/15 * * * *") that
	// re-fetches the source. Empty means load once at startup.
	Reload string `yaml:"reload" json:"reload"`

	// FetchTimeout bounds a single HTTP fetch of the source.
	FetchTimeout string `yaml:"fetch_timeout" json:"fetch_timeout"`

	// DateLayout is the Go time layout for card time ranges. Empty means
	// the renderer default.
	DateLayout string `yaml:"date_layout" json:"date_layout"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:               DefaultListen,
		Source:               DefaultSource,
		DefaultDurationHours: DefaultDurationHours,
		RefreshInterval:      DefaultRefreshInterval,
		FetchTimeout:         DefaultFetchTimeout,
		LogLevel:             DefaultLogLevel,
	}
}

// Normalize fills in missing or invalid values so that partially-filled
// configs still behave.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.Source == "" {
		c.Source = DefaultSource
	}
	if c.DefaultDurationHours <= 0 {
		c.DefaultDurationHours = DefaultDurationHours
	}
	if d, err := time.ParseDuration(c.RefreshInterval); err != nil || d <= 0 {
		c.RefreshInterval = DefaultRefreshInterval
	}
	if d, err := time.ParseDuration(c.FetchTimeout); err != nil || d <= 0 {
		c.FetchTimeout = DefaultFetchTimeout
	}
	c.Reload = strings.TrimSpace(c.Reload)
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}

// Validate reports settings that cannot be defaulted away.
func (c *Config) Validate() error {
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return fmt.Errorf("config: timezone %q: %w", c.Timezone, err)
		}
	}
	if c.Reload != "" {
		if _, err := cron.ParseStandard(c.Reload); err != nil {
			return fmt.Errorf("config: reload %q: %w", c.Reload, err)
		}
	}
	return nil
}

// Location resolves Timezone; empty or invalid means time.Local.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// DefaultDuration is DefaultDurationHours as a duration.
func (c *Config) DefaultDuration() time.Duration {
	return time.Duration(c.DefaultDurationHours) * time.Hour
}

// RefreshPeriod parses RefreshInterval, falling back to one second.
func (c *Config) RefreshPeriod() time.Duration {
	d, err := time.ParseDuration(c.RefreshInterval)
	if err != nil || d <= 0 {
		return time.Second
	}
	return d
}

// FetchTimeoutDuration parses FetchTimeout, falling back to 15s.
func (c *Config) FetchTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.FetchTimeout)
	if err != nil || d <= 0 {
		return 15 * time.Second
	}
	return d
}

// ApplyEnv overrides fields from the environment. Call after godotenv has
// loaded any .env file.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvListen); v != "" {
		c.Listen = v
	}
	if v := os.Getenv(EnvSource); v != "" {
		c.Source = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms and returned.
//   - Otherwise the YAML is read and normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Caller decides whether an unwritable default is fatal.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.Normalize()

	return cfg, nil
}

// Save writes cfg atomically (temp file + rename) with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".eventboard-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
