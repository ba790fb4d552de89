// Package config handles configuration loading from files, defaults, and environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/javiermolinar/defensegrid/internal/availability"
)

// Config holds the application configuration.
type Config struct {
	Member  MemberConfig  `toml:"member"`
	Period  PeriodConfig  `toml:"period"`
	Storage StorageConfig `toml:"storage"`
	Remote  RemoteConfig  `toml:"remote"`
	Server  ServerConfig  `toml:"server"`
	Log     LogConfig     `toml:"log"`
	UI      UIConfig      `toml:"ui"`
}

// MemberConfig identifies the committee member using the tool.
type MemberConfig struct {
	ID string `toml:"id"`
}

// PeriodConfig is the default period when no flags are given.
type PeriodConfig struct {
	Year       int    `toml:"year"`
	Term       int    `toml:"term"`        // 1 or 2
	OfferingID string `toml:"offering_id"` // e.g., "tcc-2025-1"
	Phase      int    `toml:"phase"`       // 1 or 2
}

// StorageConfig holds database settings.
type StorageConfig struct {
	DBPath string `toml:"db_path"`
}

// RemoteConfig holds the HTTP store settings. When BaseURL is empty the
// local database is used.
type RemoteConfig struct {
	BaseURL        string `toml:"base_url"`        // e.g., "http://localhost:8080"
	RetryMax       int    `toml:"retry_max"`       // transport retries
	TimeoutSeconds int    `toml:"timeout_seconds"` // per attempt
}

// ServerConfig holds settings of the serve command.
type ServerConfig struct {
	Listen string `toml:"listen"` // e.g., ":8080"
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"` // "debug", "info", "warn", "error"
}

// UIConfig holds terminal output settings.
type UIConfig struct {
	NoColor bool `toml:"no_color"`
}

// Default returns the default configuration.
func Default() *Config {
	now := time.Now()
	term := 1
	if now.Month() > time.June {
		term = 2
	}
	return &Config{
		Period: PeriodConfig{
			Year:  now.Year(),
			Term:  term,
			Phase: 1,
		},
		Storage: StorageConfig{
			DBPath: defaultDBPath(),
		},
		Remote: RemoteConfig{
			RetryMax:       3,
			TimeoutSeconds: 30,
		},
		Server: ServerConfig{
			Listen: ":8080",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// defaultDBPath returns the default database path.
func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "defensegrid.db"
	}
	return filepath.Join(home, ".local", "share", "defensegrid", "defensegrid.db")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".config", "defensegrid", "config.toml")
}

// Load loads configuration from the default path, merging with defaults and env vars.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigPath())
}

// LoadFrom loads configuration from the specified path.
// It starts with defaults, overlays file config if it exists, then applies env overrides.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	// Try to load from file (not an error if it doesn't exist)
	if err := loadFromFile(path, cfg); err != nil {
		return nil, err
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	cfg.Storage.DBPath = expandPath(cfg.Storage.DBPath)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads config from a file if it exists.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // File doesn't exist, use defaults
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Environment variables take precedence over file config.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("DEFENSEGRID_MEMBER"); v != "" {
		cfg.Member.ID = v
	}

	// Period overrides
	if err := envInt("DEFENSEGRID_YEAR", &cfg.Period.Year); err != nil {
		return err
	}
	if err := envInt("DEFENSEGRID_TERM", &cfg.Period.Term); err != nil {
		return err
	}
	if v := os.Getenv("DEFENSEGRID_OFFERING"); v != "" {
		cfg.Period.OfferingID = v
	}
	if err := envInt("DEFENSEGRID_PHASE", &cfg.Period.Phase); err != nil {
		return err
	}

	if v := os.Getenv("DEFENSEGRID_DB_PATH"); v != "" {
		cfg.Storage.DBPath = v
	}

	// Remote overrides
	if v := os.Getenv("DEFENSEGRID_REMOTE_URL"); v != "" {
		cfg.Remote.BaseURL = v
	}
	if err := envInt("DEFENSEGRID_REMOTE_RETRY_MAX", &cfg.Remote.RetryMax); err != nil {
		return err
	}

	if v := os.Getenv("DEFENSEGRID_LISTEN"); v != "" {
		cfg.Server.Listen = v
	}
	if v := os.Getenv("DEFENSEGRID_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if os.Getenv("NO_COLOR") != "" {
		cfg.UI.NoColor = true
	}

	return nil
}

func envInt(name string, dst *int) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s must be a number, got %q", name, v)
	}
	*dst = n
	return nil
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Period.Term != 1 && c.Period.Term != 2 {
		return fmt.Errorf("period term must be 1 or 2, got %d", c.Period.Term)
	}
	if c.Period.Phase != 1 && c.Period.Phase != 2 {
		return fmt.Errorf("period phase must be 1 or 2, got %d", c.Period.Phase)
	}
	if c.Period.Year < 1900 || c.Period.Year > 9999 {
		return fmt.Errorf("period year out of range: %d", c.Period.Year)
	}
	if c.Storage.DBPath == "" && c.Remote.BaseURL == "" {
		return errors.New("db_path must be set when no remote base_url is configured")
	}
	if c.Remote.BaseURL != "" {
		u, err := url.Parse(c.Remote.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("remote base_url must be an http(s) URL, got %q", c.Remote.BaseURL)
		}
	}
	if c.Remote.RetryMax < 0 {
		return errors.New("remote retry_max must not be negative")
	}
	if c.Remote.TimeoutSeconds < 0 {
		return errors.New("remote timeout_seconds must not be negative")
	}
	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}
	return nil
}

// DefaultPeriod returns the configured period.
func (c *Config) DefaultPeriod() availability.Period {
	return availability.Period{
		Year:       c.Period.Year,
		Term:       c.Period.Term,
		OfferingID: c.Period.OfferingID,
		Phase:      c.Period.Phase,
	}
}

// UsesRemote returns true if a remote store is configured.
func (c *Config) UsesRemote() bool {
	return c.Remote.BaseURL != ""
}

// RemoteTimeout returns the per attempt timeout of the remote client.
func (c *Config) RemoteTimeout() time.Duration {
	return time.Duration(c.Remote.TimeoutSeconds) * time.Second
}

// Save writes the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigPath())
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
