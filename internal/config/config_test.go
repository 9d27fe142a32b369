package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validConfig() Config {
	return Config{
		HTTP: HTTPConfig{Port: 8080},
		Database: DatabaseConfig{
			Driver: DriverValkey,
			Addrs:  []string{"localhost:6379"},
		},
		Ingest: IngestConfig{
			SourceURLTemplate: "https://example.com/PPR-{date}.csv",
		},
	}
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"invalid port", func(c *Config) { c.HTTP.Port = 0 }, "http.port"},
		{"port too large", func(c *Config) { c.HTTP.Port = 70000 }, "http.port"},
		{"missing valkey addrs", func(c *Config) { c.Database.Addrs = nil }, "database.addrs"},
		{"missing redis addrs", func(c *Config) {
			c.Database.Driver = DriverRedis
			c.Database.Addrs = nil
		}, "database.addrs"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mongo" }, "database.driver"},
		{"missing template", func(c *Config) { c.Ingest.SourceURLTemplate = "" }, "source_url_template is required"},
		{"template without placeholder", func(c *Config) {
			c.Ingest.SourceURLTemplate = "https://example.com/all.csv"
		}, "must contain {date}"},
		{"template with year only", func(c *Config) {
			c.Ingest.SourceURLTemplate = "https://example.com/{year}.csv"
		}, "must contain {date}"},
		{"bad namespace", func(c *Config) { c.Ingest.DedupNamespace = "dns" }, "dedup_namespace"},
		{"negative rate", func(c *Config) { c.Ingest.FetchRatePerSec = -1 }, "fetch_rate_per_sec"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_MemoryNeedsNoAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database = DatabaseConfig{Driver: DriverMemory}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_YearMonthTemplate(t *testing.T) {
	cfg := validConfig()
	cfg.Ingest.SourceURLTemplate = "https://example.com/{year}/{month}.csv"
	cfg.Ingest.DedupNamespace = "6ba7b810-9dad-11d1-80b4-00c04fd430c8"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 120 {
		t.Errorf("expected WriteTimeoutSec=120, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Database.Driver != DriverValkey {
		t.Errorf("expected Driver=valkey, got %q", cfg.Database.Driver)
	}
	if cfg.Database.ReadinessTimeout != 10 {
		t.Errorf("expected ReadinessTimeout=10, got %d", cfg.Database.ReadinessTimeout)
	}
	if cfg.Storage.KeyPrefix != "propsales:" {
		t.Errorf("expected KeyPrefix='propsales:', got %q", cfg.Storage.KeyPrefix)
	}
	if cfg.Ingest.BatchSize != 1000 {
		t.Errorf("expected BatchSize=1000, got %d", cfg.Ingest.BatchSize)
	}
	if cfg.Ingest.HTTPTimeoutSec != 300 {
		t.Errorf("expected HTTPTimeoutSec=300, got %d", cfg.Ingest.HTTPTimeoutSec)
	}
	if cfg.Ingest.FetchRatePerSec != 0 || cfg.Ingest.InsecureSkipVerify {
		t.Error("rate limit and insecure TLS must stay off by default")
	}
	if cfg.Search.PageSize != 20 {
		t.Errorf("expected PageSize=20, got %d", cfg.Search.PageSize)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Database: DatabaseConfig{Driver: DriverMemory, ReadinessTimeout: 15},
		Storage:  StorageConfig{KeyPrefix: "custom:"},
		Ingest:   IngestConfig{BatchSize: 250, HTTPTimeoutSec: 30},
		Search:   SearchConfig{PageSize: 50},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Database.Driver != DriverMemory {
		t.Errorf("expected Driver=memory, got %q", cfg.Database.Driver)
	}
	if cfg.Storage.KeyPrefix != "custom:" {
		t.Errorf("expected KeyPrefix='custom:', got %q", cfg.Storage.KeyPrefix)
	}
	if cfg.Ingest.BatchSize != 250 || cfg.Ingest.HTTPTimeoutSec != 30 {
		t.Errorf("ingest overrides lost: %+v", cfg.Ingest)
	}
	if cfg.Search.PageSize != 50 {
		t.Errorf("expected PageSize=50, got %d", cfg.Search.PageSize)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("PROPSALES_TEST_HOST", "cache.internal")
	t.Setenv("PROPSALES_TEST_EMPTY", "")

	tests := []struct {
		in, want string
	}{
		{"addr: ${PROPSALES_TEST_HOST}", "addr: cache.internal"},
		{"addr: ${PROPSALES_TEST_HOST:-localhost}", "addr: cache.internal"},
		{"addr: ${PROPSALES_TEST_EMPTY:-localhost}", "addr: localhost"},
		{"addr: ${PROPSALES_TEST_UNSET}", "addr: "},
		{"url: https://x/PPR-{date}.csv", "url: https://x/PPR-{date}.csv"},
	}
	for _, tt := range tests {
		if got := string(expandEnvVars([]byte(tt.in))); got != tt.want {
			t.Errorf("expandEnvVars(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "config"), 0o750); err != nil {
		t.Fatal(err)
	}
	yaml := `
http:
  port: ${PROPSALES_TEST_PORT:-8080}
database:
  driver: memory
ingest:
  source_url_template: "https://example.com/PPR-{date}.csv"
  batch_size: 500
  insecure_skip_verify: true
auth:
  api_keys: ["k1", "k2"]
`
	if err := os.WriteFile(filepath.Join(dir, "config", "unittest.yaml"), []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	cfg, err := Load("unittest")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Port != 8080 {
		t.Errorf("port = %d", cfg.HTTP.Port)
	}
	if cfg.Ingest.BatchSize != 500 || !cfg.Ingest.InsecureSkipVerify {
		t.Errorf("ingest = %+v", cfg.Ingest)
	}
	if cfg.Search.PageSize != 20 {
		t.Errorf("defaults not applied: page size %d", cfg.Search.PageSize)
	}
	if len(cfg.Auth.APIKeys) != 2 {
		t.Errorf("api keys = %v", cfg.Auth.APIKeys)
	}
}

func TestLoad_Missing(t *testing.T) {
	t.Chdir(t.TempDir())
	if _, err := Load("does-not-exist"); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	if got := GetEnv(); got != "local" {
		t.Errorf("GetEnv() = %q, want local", got)
	}
	t.Setenv("ENV", "prod")
	if got := GetEnv(); got != "prod" {
		t.Errorf("GetEnv() = %q, want prod", got)
	}
}
