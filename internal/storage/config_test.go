package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	t.Run("creates defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "etc", "sheetdb.yaml")
		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.HeaderRow != 1 || cfg.HTTP != "localhost:8080" {
			t.Errorf("defaults = %+v", cfg)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("config not written: %v", err)
		}
		if !strings.Contains(string(data), "header_row: 1") {
			t.Errorf("file =\n%s", data)
		}
	})

	t.Run("reads file over defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sheetdb.yaml")
		data := "workbook: todo.xlsx\nheader_row: 3\nauto_id_column: id\nrate_limits:\n  write_rate_per_min: 0\n"
		if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
			t.Fatal(err)
		}
		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.Workbook != "todo.xlsx" || cfg.HeaderRow != 3 || cfg.AutoIDColumn != "id" {
			t.Errorf("cfg = %+v", cfg)
		}
		if cfg.RateLimits.WriteRatePerMin != 0 || cfg.RateLimits.ReadRatePerMin != 6000 {
			t.Errorf("rate limits = %+v", cfg.RateLimits)
		}
		if cfg.LogLevel != "info" {
			t.Errorf("LogLevel = %q", cfg.LogLevel)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		tests := []struct {
			name, data string
		}{
			{"header row", "header_row: 0\n"},
			{"log level", "log_level: loud\n"},
			{"short secret", "auth:\n  jwt_secret: short\n"},
			{"negative rate", "rate_limits:\n  read_rate_per_min: -1\n"},
			{"syntax", "header_row: [\n"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				path := filepath.Join(t.TempDir(), "sheetdb.yaml")
				if err := os.WriteFile(path, []byte(tt.data), 0o600); err != nil {
					t.Fatal(err)
				}
				if _, err := LoadConfig(path); err == nil {
					t.Error("LoadConfig succeeded")
				}
			})
		}
	})
}

func TestConfig_Save(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HeaderRow = 0
	if err := cfg.Save(filepath.Join(t.TempDir(), "c.yaml")); err == nil {
		t.Error("Save accepted an invalid config")
	}
}
