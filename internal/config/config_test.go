package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Period.Year != time.Now().Year() {
		t.Errorf("expected current year, got %d", cfg.Period.Year)
	}
	if cfg.Period.Term != 1 && cfg.Period.Term != 2 {
		t.Errorf("expected term 1 or 2, got %d", cfg.Period.Term)
	}
	if cfg.Period.Phase != 1 {
		t.Errorf("expected phase 1, got %d", cfg.Period.Phase)
	}
	if cfg.Server.Listen != ":8080" {
		t.Errorf("expected listen :8080, got %s", cfg.Server.Listen)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected log level info, got %s", cfg.Log.Level)
	}
	if cfg.Remote.RetryMax != 3 {
		t.Errorf("expected retry_max 3, got %d", cfg.Remote.RetryMax)
	}
	if cfg.UsesRemote() {
		t.Error("default config should use the local database")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoadFrom_FileNotExists(t *testing.T) {
	cfg, err := LoadFrom("/nonexistent/path/config.toml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Should return defaults
	if cfg.Server.Listen != ":8080" {
		t.Errorf("expected default listen, got %s", cfg.Server.Listen)
	}
}

func TestLoadFrom_ValidFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	content := `
[member]
id = "prof-silva"

[period]
year = 2025
term = 2
offering_id = "tcc-2025-2"
phase = 2

[storage]
db_path = "/tmp/test.db"

[remote]
base_url = "http://grid.example.edu"
retry_max = 5
timeout_seconds = 10

[log]
level = "debug"

[ui]
no_color = true
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Member.ID != "prof-silva" {
		t.Errorf("expected member prof-silva, got %s", cfg.Member.ID)
	}
	p := cfg.DefaultPeriod()
	if p.Year != 2025 || p.Term != 2 || p.OfferingID != "tcc-2025-2" || p.Phase != 2 {
		t.Errorf("unexpected period %+v", p)
	}
	if cfg.Storage.DBPath != "/tmp/test.db" {
		t.Errorf("expected db_path /tmp/test.db, got %s", cfg.Storage.DBPath)
	}
	if !cfg.UsesRemote() || cfg.Remote.RetryMax != 5 {
		t.Errorf("unexpected remote config %+v", cfg.Remote)
	}
	if cfg.RemoteTimeout() != 10*time.Second {
		t.Errorf("expected 10s timeout, got %s", cfg.RemoteTimeout())
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Log.Level)
	}
	if !cfg.UI.NoColor {
		t.Error("expected no_color true")
	}
	// Unset sections keep their defaults.
	if cfg.Server.Listen != ":8080" {
		t.Errorf("expected default listen, got %s", cfg.Server.Listen)
	}
}

func TestLoadFrom_EnvOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	content := `
[member]
id = "from-file"

[period]
year = 2025
term = 1
phase = 1

[storage]
db_path = "/tmp/test.db"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	t.Setenv("DEFENSEGRID_MEMBER", "from-env")
	t.Setenv("DEFENSEGRID_TERM", "2")
	t.Setenv("DEFENSEGRID_OFFERING", "tcc-env")
	t.Setenv("DEFENSEGRID_REMOTE_URL", "https://grid.example.edu")
	t.Setenv("DEFENSEGRID_LOG_LEVEL", "warn")

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Env should override file
	if cfg.Member.ID != "from-env" {
		t.Errorf("expected member from-env, got %s", cfg.Member.ID)
	}
	if cfg.Period.Term != 2 || cfg.Period.OfferingID != "tcc-env" {
		t.Errorf("unexpected period %+v", cfg.Period)
	}
	// File value not overridden
	if cfg.Period.Year != 2025 {
		t.Errorf("expected year 2025 from file, got %d", cfg.Period.Year)
	}
	if cfg.Remote.BaseURL != "https://grid.example.edu" {
		t.Errorf("expected remote url from env, got %s", cfg.Remote.BaseURL)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("expected log level warn, got %s", cfg.Log.Level)
	}
}

func TestLoadFrom_EnvNotANumber(t *testing.T) {
	t.Setenv("DEFENSEGRID_YEAR", "twenty")

	_, err := LoadFrom(filepath.Join(t.TempDir(), "missing.toml"))
	if err == nil || !strings.Contains(err.Error(), "DEFENSEGRID_YEAR") {
		t.Errorf("expected DEFENSEGRID_YEAR error, got %v", err)
	}
}

func TestLoadFrom_InvalidTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	if err := os.WriteFile(configPath, []byte("[period\nyear = "), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if _, err := LoadFrom(configPath); err == nil {
		t.Error("expected error for invalid TOML")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{name: "valid default", modify: func(*Config) {}},
		{name: "bad term", modify: func(c *Config) { c.Period.Term = 3 }, wantErr: "term must be 1 or 2"},
		{name: "bad phase", modify: func(c *Config) { c.Period.Phase = 0 }, wantErr: "phase must be 1 or 2"},
		{name: "bad year", modify: func(c *Config) { c.Period.Year = 25 }, wantErr: "year out of range"},
		{
			name:    "no storage",
			modify:  func(c *Config) { c.Storage.DBPath = "" },
			wantErr: "db_path must be set",
		},
		{
			name: "remote only",
			modify: func(c *Config) {
				c.Storage.DBPath = ""
				c.Remote.BaseURL = "http://localhost:8080"
			},
		},
		{name: "bad remote url", modify: func(c *Config) { c.Remote.BaseURL = "localhost:8080" }, wantErr: "base_url"},
		{name: "negative retries", modify: func(c *Config) { c.Remote.RetryMax = -1 }, wantErr: "retry_max"},
		{name: "bad log level", modify: func(c *Config) { c.Log.Level = "verbose" }, wantErr: "invalid log level"},
		{name: "upper case log level", modify: func(c *Config) { c.Log.Level = "DEBUG" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	if got := expandPath("~/data/grid.db"); got != filepath.Join(home, "data", "grid.db") {
		t.Errorf("expandPath = %s", got)
	}
	if got := expandPath("/abs/grid.db"); got != "/abs/grid.db" {
		t.Errorf("expandPath should leave absolute paths alone, got %s", got)
	}
}

func TestSaveTo_RoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nested", "config.toml")

	cfg := Default()
	cfg.Member.ID = "prof-silva"
	cfg.Period.OfferingID = "tcc-1"
	cfg.Storage.DBPath = "/tmp/grid.db"

	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if loaded.Member.ID != "prof-silva" || loaded.Period.OfferingID != "tcc-1" {
		t.Errorf("unexpected loaded config %+v", loaded)
	}
}
