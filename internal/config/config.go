package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	Log     Log     `mapstructure:"log" yaml:"log"`
	Storage Storage `mapstructure:"storage" yaml:"storage"`
	JWT     JWT     `mapstructure:"jwt" yaml:"jwt"`
	Auth    Auth    `mapstructure:"auth" yaml:"auth"`
	Relay   Relay   `mapstructure:"relay" yaml:"relay"`
}

// Log configures logging output.
type Log struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"` // "json" or "console"
}

// Storage selects and configures the message log backend.
type Storage struct {
	// Driver is one of "sqlite", "badger", "memory".
	Driver string `mapstructure:"driver" yaml:"driver"`
	// Path is the SQLite database file or the Badger directory. Unused by
	// the memory driver.
	Path string `mapstructure:"path" yaml:"path"`
}

// JWT configures credential token issuance and validation.
type JWT struct {
	Secret   string        `mapstructure:"secret" yaml:"secret"`
	Issuer   string        `mapstructure:"issuer" yaml:"issuer"`
	Audience string        `mapstructure:"audience" yaml:"audience"`
	TTL      time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// Auth configures account issuance behavior.
type Auth struct {
	AllowGuests bool `mapstructure:"allow_guests" yaml:"allow_guests"`
}

// Relay configures per-connection relay behavior.
type Relay struct {
	// RateLimit is the sustained messages-per-second rate per
	// connection; 0 disables limiting.
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"`
	// RateBurst is the burst allowance when limiting is enabled.
	RateBurst int `mapstructure:"rate_burst" yaml:"rate_burst"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		Log: Log{
			Level:  "info",
			Format: "json",
		},
		Storage: Storage{
			Driver: "sqlite",
			Path:   "wirerelay.db",
		},
		JWT: JWT{
			Issuer:   "wirerelay",
			Audience: "wirerelay-clients",
			TTL:      24 * time.Hour,
		},
		Auth: Auth{
			AllowGuests: true,
		},
		Relay: Relay{
			RateLimit: 10,
			RateBurst: 20,
		},
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
	if other.Log.Format != "" {
		c.Log.Format = other.Log.Format
	}
	if other.Storage.Driver != "" {
		c.Storage.Driver = other.Storage.Driver
	}
	if other.Storage.Path != "" {
		c.Storage.Path = other.Storage.Path
	}
	if other.JWT.Secret != "" {
		c.JWT.Secret = other.JWT.Secret
	}
	if other.JWT.Issuer != "" {
		c.JWT.Issuer = other.JWT.Issuer
	}
	if other.JWT.Audience != "" {
		c.JWT.Audience = other.JWT.Audience
	}
	if other.JWT.TTL != 0 {
		c.JWT.TTL = other.JWT.TTL
	}
	if other.Relay.RateLimit != 0 {
		c.Relay.RateLimit = other.Relay.RateLimit
	}
	if other.Relay.RateBurst != 0 {
		c.Relay.RateBurst = other.Relay.RateBurst
	}
}
