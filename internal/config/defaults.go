package config

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:              ":3000",
			ReadHeaderTimeout: "10s",
		},
		Database: DatabaseConfig{
			Path: "todograph.db",
		},
		Images: ImagesConfig{
			Endpoint: "https://api.pexels.com/v1/search",
			Timeout:  "5s",
			Retry: RetryConfig{
				InitialInterval:     "100ms",
				MaxInterval:         "2s",
				MaxElapsedTime:      "10s",
				Multiplier:          2.0,
				RandomizationFactor: 0.5,
			},
			Breaker: BreakerConfig{
				ConsecutiveFailures: 5,
				OpenTimeout:         "30s",
			},
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
