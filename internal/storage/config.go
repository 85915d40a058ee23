// Manages the server configuration stored in a YAML file.

package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config stores all server-wide configuration.
// Loaded from a YAML file, created with defaults if missing.
type Config struct {
	// HTTP is the address to listen on.
	HTTP string `yaml:"http"`

	// Workbook is an .xlsx file or a directory of JSONL sheets.
	Workbook string `yaml:"workbook"`

	// HeaderRow is the default 1-based row holding column names.
	HeaderRow int `yaml:"header_row"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// Compress stores new JSONL sheets zstd compressed.
	Compress bool `yaml:"compress"`

	// AutoIDColumn, when set, is filled with a fresh ID on inserted records
	// that leave it blank.
	AutoIDColumn string `yaml:"auto_id_column"`

	// MaxRequestBodyBytes limits the size of any single HTTP request body.
	MaxRequestBodyBytes int64 `yaml:"max_request_body_bytes"`

	Auth       Auth       `yaml:"auth"`
	RateLimits RateLimits `yaml:"rate_limits"`
	History    History    `yaml:"history"`
}

// Auth configures bearer token authentication. An empty secret disables it.
type Auth struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// Validate checks the secret length.
func (a *Auth) Validate() error {
	if a.JWTSecret != "" && len(a.JWTSecret) < 32 {
		return errors.New("jwt_secret must be at least 32 bytes")
	}
	return nil
}

// RateLimits defines rate limiting per client IP, in requests per minute.
// 0 means unlimited.
type RateLimits struct {
	ReadRatePerMin  int `yaml:"read_rate_per_min"`
	WriteRatePerMin int `yaml:"write_rate_per_min"`
}

// Validate checks that rate limit values are non-negative.
func (r *RateLimits) Validate() error {
	if r.ReadRatePerMin < 0 {
		return errors.New("read_rate_per_min must be non-negative")
	}
	if r.WriteRatePerMin < 0 {
		return errors.New("write_rate_per_min must be non-negative")
	}
	return nil
}

// History records every change to the workbook as a git commit in the
// directory holding it.
type History struct {
	Enabled     bool   `yaml:"enabled"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// DefaultConfig returns the configuration written on first start.
func DefaultConfig() Config {
	return Config{
		HTTP:                "localhost:8080",
		Workbook:            "./data/workbook",
		HeaderRow:           1,
		LogLevel:            "info",
		MaxRequestBodyBytes: 10 * 1024 * 1024, // 10 MiB
		RateLimits: RateLimits{
			ReadRatePerMin:  6000,
			WriteRatePerMin: 600,
		},
		History: History{
			AuthorName:  "sheetdb",
			AuthorEmail: "sheetdb@localhost",
		},
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.HTTP == "" {
		return errors.New("http is required")
	}
	if c.Workbook == "" {
		return errors.New("workbook is required")
	}
	if c.HeaderRow < 1 {
		return fmt.Errorf("header_row must be at least 1, got %d", c.HeaderRow)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	if c.MaxRequestBodyBytes < 0 {
		return errors.New("max_request_body_bytes must be non-negative")
	}
	if err := c.Auth.Validate(); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.RateLimits.Validate(); err != nil {
		return fmt.Errorf("rate_limits: %w", err)
	}
	if c.History.Enabled && c.History.AuthorEmail == "" {
		return errors.New("history: author_email is required")
	}
	return nil
}

// LoadConfig loads the configuration from path, creating the file with
// defaults when it doesn't exist.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the -config flag
	switch {
	case os.IsNotExist(err):
		if err := cfg.Save(path); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes the configuration to path.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil { //nolint:gosec // G301: data directories are shared
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
