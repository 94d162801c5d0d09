// Package config provides configuration loading and validation for the
// gang sheet server and CLI.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/ramonerose/dtfgangsheet/internal/geom"
	"github.com/ramonerose/dtfgangsheet/pkg/api"
)

// DefaultPath is where Load looks when no config path is given.
const DefaultPath = "gangsheet.toml"

// Config is the full TOML configuration. Every field has a default; a
// config file and environment overrides are both optional.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Storage StorageConfig `toml:"storage"`
	Sheet   SheetConfig   `toml:"sheet"`
	Pricing PricingConfig `toml:"pricing"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Addr                string `toml:"addr"`                  // listen address, e.g. ":8080"
	ReadTimeoutSeconds  int    `toml:"read_timeout_seconds"`  // per-request read deadline
	WriteTimeoutSeconds int    `toml:"write_timeout_seconds"` // per-request write deadline
	MaxConnections      int    `toml:"max_connections"`       // concurrent connection cap, 0 = unlimited
	MaxUploadMB         int64  `toml:"max_upload_mb"`         // multipart upload cap
}

// StorageConfig selects where finished jobs are kept for download.
type StorageConfig struct {
	Backend       string `toml:"backend"`         // "memory" or "redis"
	RedisURL      string `toml:"redis_url"`       // required for the redis backend
	JobTTLMinutes int    `toml:"job_ttl_minutes"` // how long a finished job stays downloadable
}

// SheetConfig sets the default sheet geometry and packing behavior.
type SheetConfig struct {
	WidthInches     float64 `toml:"width_inches"`      // roll width, 22 or 30
	MaxLengthInches float64 `toml:"max_length_inches"` // sheet length cap
	MarginInches    float64 `toml:"margin_inches"`     // edge margin
	SpacingInches   float64 `toml:"spacing_inches"`    // spacing between copies
	Rotate          bool    `toml:"rotate"`            // rotate every copy 90 degrees
	AutoOrient      bool    `toml:"auto_orient"`       // per-design orientation choice
	DPI             float64 `toml:"dpi"`               // SVG rasterization DPI
}

// PricingConfig replaces the standard price table when tiers are given.
type PricingConfig struct {
	Tiers []TierConfig `toml:"tier"`
}

// TierConfig is one [[pricing.tier]] entry.
type TierConfig struct {
	LengthInches int     `toml:"length_inches"`
	Price        float64 `toml:"price"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:                ":8080",
			ReadTimeoutSeconds:  30,
			WriteTimeoutSeconds: 120,
			MaxConnections:      256,
			MaxUploadMB:         50,
		},
		Storage: StorageConfig{
			Backend:       "memory",
			JobTTLMinutes: 60,
		},
		Sheet: SheetConfig{
			WidthInches:     22,
			MaxLengthInches: 200,
			MarginInches:    0.125,
			SpacingInches:   0.5,
			DPI:             300,
		},
	}
}

// Load reads the TOML file at path on top of the defaults and applies
// environment overrides. An empty path falls back to GANGSHEET_CONFIG,
// then to DefaultPath when that file exists, otherwise the defaults are
// returned as-is.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("GANGSHEET_CONFIG")
	}
	if path == "" {
		if _, err := os.Stat(DefaultPath); err == nil {
			path = DefaultPath
		}
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv lets deployment environments override the values that vary
// between installs without editing the config file.
func (c *Config) applyEnv() {
	if v := os.Getenv("GANGSHEET_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("GANGSHEET_STORAGE_BACKEND"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("GANGSHEET_REDIS_URL"); v != "" {
		c.Storage.RedisURL = v
	}
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("config error: 'server.addr' must not be empty")
	}
	if c.Server.ReadTimeoutSeconds < 0 || c.Server.WriteTimeoutSeconds < 0 {
		return fmt.Errorf("config error: server timeouts must be non-negative")
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("config error: 'server.max_upload_mb' must be positive")
	}

	switch c.Storage.Backend {
	case "memory":
	case "redis":
		if c.Storage.RedisURL == "" {
			return fmt.Errorf("config error: 'storage.redis_url' is required for the redis backend")
		}
	default:
		return fmt.Errorf("config error: unknown storage backend %q (memory or redis)", c.Storage.Backend)
	}
	if c.Storage.JobTTLMinutes <= 0 {
		return fmt.Errorf("config error: 'storage.job_ttl_minutes' must be positive")
	}

	if c.Sheet.WidthInches != 22 && c.Sheet.WidthInches != 30 {
		return fmt.Errorf("config error: 'sheet.width_inches' must be 22 or 30, got %g", c.Sheet.WidthInches)
	}
	if c.Sheet.MaxLengthInches < api.MinSheetLengthInches || c.Sheet.MaxLengthInches > api.MaxSheetLengthInches {
		return fmt.Errorf("config error: 'sheet.max_length_inches' must be between %d and %d",
			api.MinSheetLengthInches, api.MaxSheetLengthInches)
	}
	if c.Sheet.MarginInches < 0 || c.Sheet.SpacingInches < 0 {
		return fmt.Errorf("config error: sheet margin and spacing must be non-negative")
	}
	if c.Sheet.DPI <= 0 {
		return fmt.Errorf("config error: 'sheet.dpi' must be positive")
	}

	for i, tier := range c.Pricing.Tiers {
		if tier.LengthInches <= 0 || tier.Price <= 0 {
			return fmt.Errorf("config error: pricing tier %d must have positive length and price", i)
		}
		if i > 0 && tier.LengthInches <= c.Pricing.Tiers[i-1].LengthInches {
			return fmt.Errorf("config error: pricing tiers must increase in length, tier %d does not", i)
		}
	}

	return nil
}

// ReadTimeout returns the server read deadline.
func (c *ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSeconds) * time.Second
}

// WriteTimeout returns the server write deadline.
func (c *ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSeconds) * time.Second
}

// MaxUploadBytes returns the multipart upload cap in bytes.
func (c *ServerConfig) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

// JobTTL returns how long finished jobs stay downloadable.
func (c *StorageConfig) JobTTL() time.Duration {
	return time.Duration(c.JobTTLMinutes) * time.Minute
}

// Options converts the sheet and pricing sections into generator options.
func (c *Config) Options() api.Options {
	options := api.DefaultOptions()
	options.SheetWidth = geom.InchesToPoints(c.Sheet.WidthInches)
	options.MaxSheetHeight = geom.InchesToPoints(c.Sheet.MaxLengthInches)
	options.Margin = geom.InchesToPoints(c.Sheet.MarginInches)
	options.Spacing = geom.InchesToPoints(c.Sheet.SpacingInches)
	options.Rotate = c.Sheet.Rotate
	options.AutoOrient = c.Sheet.AutoOrient
	options.DPI = c.Sheet.DPI

	if len(c.Pricing.Tiers) > 0 {
		tiers := make([]api.Tier, len(c.Pricing.Tiers))
		for i, t := range c.Pricing.Tiers {
			tiers[i] = api.Tier{LengthInches: t.LengthInches, Price: t.Price}
		}
		options.Tiers = tiers
	}

	return options
}
