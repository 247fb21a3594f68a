// Package config provides configuration loading from YAML files.
package config

import (
	"net/url"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig            `yaml:"server"`
	Client   ClientConfig            `yaml:"client"`
	Player   PlayerConfig            `yaml:"player"`
	Progress ProgressConfig          `yaml:"progress"`
	Menu     MenuConfig              `yaml:"menu"`
	Filters  map[string]FilterConfig `yaml:"filters"`
}

// ServerConfig represents playlist server configuration.
type ServerConfig struct {
	Addr        string `yaml:"addr" default:":5001"`
	CatalogFile string `yaml:"catalog_file" default:"config/catalog.yaml"`
	PerPage     int    `yaml:"per_page" default:"15" validate:"gte=1,lte=100"`
}

// ClientConfig represents how the player reaches the server.
type ClientConfig struct {
	ServerURL string `yaml:"server_url" default:"http://localhost:5001" validate:"required,url"`
	TimeoutMs int    `yaml:"timeout_ms" default:"0" validate:"gte=0"` // 0 means no timeout
}

// PlayerConfig represents embedded player configuration.
type PlayerConfig struct {
	Backend   string         `yaml:"backend" default:"mpv" validate:"oneof=mpv"`
	MPVPath   string         `yaml:"mpv_path" default:"mpv"`
	SocketDir string         `yaml:"socket_dir"`
	WatchURL  string         `yaml:"watch_url" default:"https://www.youtube.com/watch?v=" validate:"url"`
	Height    int            `yaml:"height" default:"0" validate:"gte=0"`
	Width     int            `yaml:"width" default:"0" validate:"gte=0"`
	Autoplay  *bool          `yaml:"autoplay" default:"true"`
	Controls  bool           `yaml:"controls"`
	Settings  map[string]any `yaml:"settings"`
}

// ProgressConfig represents progress polling configuration.
type ProgressConfig struct {
	IntervalMs       int     `yaml:"interval_ms" default:"1000" validate:"gte=100,lte=60000"`
	ThresholdPercent float64 `yaml:"threshold_percent" default:"60" validate:"gt=0,lte=100"`
}

// MenuConfig represents dropdown menu configuration.
type MenuConfig struct {
	TriggerClass string `yaml:"trigger_class" default:"bg-sky-800" validate:"required"`
	MenuClass    string `yaml:"menu_class" default:"origin-top-right" validate:"required"`
}

// FilterConfig represents a track admission filter's configuration.
type FilterConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// Default returns a configuration with every default applied.
func Default() (*Config, error) {
	var cfg Config
	cfg.overrideFromEnv()
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}
	return &cfg, nil
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("PLAYDECK_SERVER_URL"); v != "" {
		c.Client.ServerURL = v
	}
	if v := os.Getenv("PLAYDECK_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("PLAYDECK_MPV_PATH"); v != "" {
		c.Player.MPVPath = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	u, err := url.Parse(c.Client.ServerURL)
	if err != nil {
		return errors.Wrap(err, "failed to parse server_url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.Newf("server_url (%s) must use http or https", c.Client.ServerURL)
	}

	return nil
}

// IsFilterEnabled checks if a filter is enabled.
func (c *Config) IsFilterEnabled(filterName string) bool {
	if f, ok := c.Filters[filterName]; ok {
		return f.Enabled
	}
	return false
}

// EnabledFilters returns the settings of every enabled filter by name.
func (c *Config) EnabledFilters() map[string]map[string]any {
	enabled := make(map[string]map[string]any)
	for name, f := range c.Filters {
		if f.Enabled {
			enabled[name] = f.Settings
		}
	}
	return enabled
}

// Interval returns the progress polling period.
func (p ProgressConfig) Interval() time.Duration {
	return time.Duration(p.IntervalMs) * time.Millisecond
}

// Timeout returns the HTTP client timeout.
func (c ClientConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// AutoplayEnabled reports whether players start on load.
func (p PlayerConfig) AutoplayEnabled() bool {
	return p.Autoplay == nil || *p.Autoplay
}
