package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearEnv keeps the host environment from leaking into config tests.
func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvDatabase, "")
	t.Setenv(EnvAddr, "")
}

func writeConfig(t *testing.T, path string, cfg any) {
	t.Helper()
	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshaling config: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name          string
		globalConfig  *Config
		projectConfig *Config
		expectAddr    string
		expectDB      string
		expectAPIKey  string
		expectLevel   string
	}{
		{
			name:        "No config files - returns defaults",
			expectAddr:  ":3000",
			expectDB:    "todograph.db",
			expectLevel: "info",
		},
		{
			name: "Global only - sets api key",
			globalConfig: &Config{
				Images: ImagesConfig{APIKey: "global-key"},
			},
			expectAddr:   ":3000",
			expectDB:     "todograph.db",
			expectAPIKey: "global-key",
			expectLevel:  "info",
		},
		{
			name: "Project only - overrides database",
			projectConfig: &Config{
				Database: DatabaseConfig{Path: "/tmp/project.db"},
			},
			expectAddr:  ":3000",
			expectDB:    "/tmp/project.db",
			expectLevel: "info",
		},
		{
			name: "Project overrides global - project wins",
			globalConfig: &Config{
				Server: ServerConfig{Addr: ":4000"},
				Log:    LogConfig{Level: "debug"},
			},
			projectConfig: &Config{
				Server: ServerConfig{Addr: ":5000"},
			},
			expectAddr:  ":5000",
			expectDB:    "todograph.db",
			expectLevel: "debug",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			tmpDir := t.TempDir()

			globalPath := ""
			if tt.globalConfig != nil {
				globalPath = filepath.Join(tmpDir, "global.json")
				writeConfig(t, globalPath, tt.globalConfig)
			}

			projectPath := ""
			if tt.projectConfig != nil {
				projectPath = filepath.Join(tmpDir, "project.json")
				writeConfig(t, projectPath, tt.projectConfig)
			}

			cfg, err := Load(globalPath, projectPath)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if cfg.Server.Addr != tt.expectAddr {
				t.Errorf("addr = %q, want %q", cfg.Server.Addr, tt.expectAddr)
			}
			if cfg.Database.Path != tt.expectDB {
				t.Errorf("database path = %q, want %q", cfg.Database.Path, tt.expectDB)
			}
			if cfg.Images.APIKey != tt.expectAPIKey {
				t.Errorf("api key = %q, want %q", cfg.Images.APIKey, tt.expectAPIKey)
			}
			if cfg.Log.Level != tt.expectLevel {
				t.Errorf("log level = %q, want %q", cfg.Log.Level, tt.expectLevel)
			}

			// Untouched nested defaults survive a partial override
			if cfg.Images.Retry.Multiplier != 2.0 {
				t.Errorf("retry multiplier = %v, want 2.0", cfg.Images.Retry.Multiplier)
			}
		})
	}
}

func TestLoad_EnvironmentWins(t *testing.T) {
	clearEnv(t)
	tmpDir := t.TempDir()
	projectPath := filepath.Join(tmpDir, "project.json")
	writeConfig(t, projectPath, &Config{
		Images:   ImagesConfig{APIKey: "file-key"},
		Database: DatabaseConfig{Path: "file.db"},
	})

	t.Setenv(EnvAPIKey, "env-key")
	t.Setenv(EnvDatabase, "env.db")
	t.Setenv(EnvAddr, "127.0.0.1:9999")

	cfg, err := Load("", projectPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Images.APIKey != "env-key" {
		t.Errorf("api key = %q, want env-key", cfg.Images.APIKey)
	}
	if cfg.Database.Path != "env.db" {
		t.Errorf("database path = %q, want env.db", cfg.Database.Path)
	}
	if cfg.Server.Addr != "127.0.0.1:9999" {
		t.Errorf("addr = %q, want 127.0.0.1:9999", cfg.Server.Addr)
	}
}

func TestLoad_MalformedJSON(t *testing.T) {
	clearEnv(t)
	tmpDir := t.TempDir()

	globalPath := filepath.Join(tmpDir, "global.json")
	if err := os.WriteFile(globalPath, []byte("{invalid json"), 0644); err != nil {
		t.Fatalf("writing malformed config: %v", err)
	}

	_, err := Load(globalPath, "")
	if err == nil {
		t.Fatal("expected error for malformed JSON, got nil")
	}
}

func TestLoad_MissingFilesNotError(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("/nonexistent/global.json", "/nonexistent/project.json")
	if err != nil {
		t.Fatalf("expected no error for missing files, got: %v", err)
	}
	if cfg.Images.Endpoint != "https://api.pexels.com/v1/search" {
		t.Errorf("endpoint = %q", cfg.Images.Endpoint)
	}
}

func TestDuration(t *testing.T) {
	tests := []struct {
		in   string
		def  time.Duration
		want time.Duration
	}{
		{"", time.Second, time.Second},
		{"250ms", time.Second, 250 * time.Millisecond},
		{"soon", time.Second, time.Second},
		{"-5s", time.Second, time.Second},
	}
	for _, tt := range tests {
		if got := Duration(tt.in, tt.def); got != tt.want {
			t.Errorf("Duration(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
