package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Environment variables that override file configuration.
const (
	EnvAPIKey   = "PEXELS_API_KEY"
	EnvDatabase = "TODOGRAPH_DB"
	EnvAddr     = "TODOGRAPH_ADDR"
)

// Load reads and merges configuration from global and project paths.
// Order of precedence (highest to lowest): environment, project config, global config, defaults.
// Missing files are not errors; malformed JSON returns an error.
func Load(globalPath, projectPath string) (*Config, error) {
	// Start with defaults
	cfg := DefaultConfig()

	// Merge global config if exists
	if globalPath != "" {
		if err := mergeConfigFile(cfg, globalPath); err != nil {
			return nil, fmt.Errorf("loading global config: %w", err)
		}
	}

	// Merge project config if exists
	if projectPath != "" {
		if err := mergeConfigFile(cfg, projectPath); err != nil {
			return nil, fmt.Errorf("loading project config: %w", err)
		}
	}

	applyEnv(cfg)

	return cfg, nil
}

// DefaultPaths returns the conventional config locations.
// Global: ~/.todograph/config.json
// Project: .todograph/config.json (relative to cwd)
func DefaultPaths() (globalPath, projectPath string, err error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(homeDir, ".todograph", "config.json"), filepath.Join(".todograph", "config.json"), nil
}

// LoadDefault loads configuration from the conventional paths.
func LoadDefault() (*Config, error) {
	globalPath, projectPath, err := DefaultPaths()
	if err != nil {
		return nil, err
	}
	return Load(globalPath, projectPath)
}

// mergeConfigFile reads a JSON config file and merges it into the base config.
// Only fields present with non-zero values override the base.
func mergeConfigFile(base *Config, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil // Missing file is not an error
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	merge(base, &loaded)
	return nil
}

func merge(base, over *Config) {
	setString(&base.Server.Addr, over.Server.Addr)
	setString(&base.Server.ReadHeaderTimeout, over.Server.ReadHeaderTimeout)

	setString(&base.Database.Path, over.Database.Path)

	setString(&base.Images.APIKey, over.Images.APIKey)
	setString(&base.Images.Endpoint, over.Images.Endpoint)
	setString(&base.Images.Timeout, over.Images.Timeout)
	setString(&base.Images.Retry.InitialInterval, over.Images.Retry.InitialInterval)
	setString(&base.Images.Retry.MaxInterval, over.Images.Retry.MaxInterval)
	setString(&base.Images.Retry.MaxElapsedTime, over.Images.Retry.MaxElapsedTime)
	if over.Images.Retry.Multiplier > 0 {
		base.Images.Retry.Multiplier = over.Images.Retry.Multiplier
	}
	if over.Images.Retry.RandomizationFactor > 0 {
		base.Images.Retry.RandomizationFactor = over.Images.Retry.RandomizationFactor
	}
	if over.Images.Breaker.ConsecutiveFailures > 0 {
		base.Images.Breaker.ConsecutiveFailures = over.Images.Breaker.ConsecutiveFailures
	}
	setString(&base.Images.Breaker.OpenTimeout, over.Images.Breaker.OpenTimeout)

	setString(&base.Log.Level, over.Log.Level)
	setString(&base.Log.File, over.Log.File)
}

func applyEnv(cfg *Config) {
	setString(&cfg.Images.APIKey, os.Getenv(EnvAPIKey))
	setString(&cfg.Database.Path, os.Getenv(EnvDatabase))
	setString(&cfg.Server.Addr, os.Getenv(EnvAddr))
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
