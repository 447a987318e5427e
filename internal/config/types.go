package config

import "time"

// ServerConfig controls the HTTP API listener.
type ServerConfig struct {
	Addr              string `json:"addr,omitempty"`                // Listen address (e.g., ":8080")
	ReadHeaderTimeout string `json:"read_header_timeout,omitempty"` // Go duration string
}

// DatabaseConfig points at the SQLite database file.
type DatabaseConfig struct {
	Path string `json:"path,omitempty"`
}

// RetryConfig configures exponential backoff for image lookups.
type RetryConfig struct {
	InitialInterval     string  `json:"initial_interval,omitempty"`
	MaxInterval         string  `json:"max_interval,omitempty"`
	MaxElapsedTime      string  `json:"max_elapsed_time,omitempty"`
	Multiplier          float64 `json:"multiplier,omitempty"`
	RandomizationFactor float64 `json:"randomization_factor,omitempty"`
}

// BreakerConfig configures the circuit breaker in front of the image service.
type BreakerConfig struct {
	ConsecutiveFailures uint32 `json:"consecutive_failures,omitempty"` // Trip after this many failures in a row
	OpenTimeout         string `json:"open_timeout,omitempty"`         // How long to stay open before probing
}

// ImagesConfig configures the stock photo lookup.
type ImagesConfig struct {
	APIKey   string        `json:"api_key,omitempty"`  // Empty disables lookups
	Endpoint string        `json:"endpoint,omitempty"` // Search endpoint URL
	Timeout  string        `json:"timeout,omitempty"`  // Per-request timeout
	Retry    RetryConfig   `json:"retry"`
	Breaker  BreakerConfig `json:"breaker"`
}

// LogConfig selects the log level and an optional log file.
type LogConfig struct {
	Level string `json:"level,omitempty"` // debug, info, warn, error
	File  string `json:"file,omitempty"`  // Used by the TUI; empty means stderr
}

// Config is the top-level configuration.
type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Images   ImagesConfig   `json:"images"`
	Log      LogConfig      `json:"log"`
}

// Duration parses a config duration string, falling back to def when the
// string is empty or malformed.
func Duration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return def
	}
	return d
}
