package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWritesDefaultConfigWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, resolved, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if resolved != path {
		t.Fatalf("expected resolved path %s, got %s", path, resolved)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected default config to be written: %v", err)
	}
	if cfg.Addr != ":8080" || cfg.Store.Driver != DriverSQLite || cfg.IOTimeout != 5*time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadFileAndEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
addr: ":9000"
io_timeout: 2s
store:
  driver: postgres
  postgres_url: postgres://relay@localhost/relay
verifier:
  mode: static
  participants:
    "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed":
      - "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("RELAY_ADDR", ":9100")
	t.Setenv("RELAY_STORE_DRIVER", "memory")

	cfg, _, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Addr != ":9100" {
		t.Fatalf("env should override file addr, got %s", cfg.Addr)
	}
	if cfg.Store.Driver != DriverMemory {
		t.Fatalf("env should override nested store driver, got %s", cfg.Store.Driver)
	}
	if cfg.Store.PostgresURL != "postgres://relay@localhost/relay" {
		t.Fatalf("file value lost: %q", cfg.Store.PostgresURL)
	}
	if cfg.IOTimeout != 2*time.Second {
		t.Fatalf("expected io_timeout 2s, got %s", cfg.IOTimeout)
	}
	if len(cfg.Verifier.Participants) != 1 {
		t.Fatalf("expected one configured group, got %v", cfg.Verifier.Participants)
	}
}

func TestValidateRejectsIncompleteSettings(t *testing.T) {
	cases := map[string]func(*Config){
		"unknown driver":       func(c *Config) { c.Store.Driver = "mysql" },
		"postgres without url": func(c *Config) { c.Store.Driver = DriverPostgres },
		"remote without url":   func(c *Config) { c.Verifier.Mode = VerifierRemote },
		"token without secret": func(c *Config) { c.Verifier.Mode = VerifierToken },
		"unknown verifier":     func(c *Config) { c.Verifier.Mode = "oracle" },
		"zero io timeout":      func(c *Config) { c.IOTimeout = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}
