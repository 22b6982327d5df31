package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		HTTP: HTTPConfig{Port: 8080},
		Live: LiveConfig{DSN: "postgres://localhost/cumulus"},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"port", func(c *Config) { c.HTTP.Port = 0 }, "http.port must be between 1 and 65535, got 0"},
		{"no backend", func(c *Config) { c.Live.DSN = "" }, "live.dsn or snapshot.enabled is required"},
		{"min conns", func(c *Config) { c.Live.MinConns = 20 }, "live.min_conns must be between 0 and live.max_conns (10), got 20"},
		{"bucket", func(c *Config) { c.Snapshot.Enabled = true }, "snapshot.bucket is required when snapshot.enabled is true"},
		{"url style", func(c *Config) { c.Snapshot.URLStyle = "weird" }, `snapshot.url_style must be "vhost" or "path", got "weird"`},
		{"limits", func(c *Config) { c.Search.DefaultLimit = 5000 }, "search.default_limit (5000) exceeds search.max_limit (1000)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if err.Error() != tt.want {
				t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), tt.want)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.Live.MaxConns != 10 || cfg.Live.AcquireTimeoutMs != 60000 {
		t.Errorf("unexpected pool defaults: %+v", cfg.Live)
	}
	if cfg.Search.DefaultLimit != 10 || cfg.Search.MaxLimit != 1000 {
		t.Errorf("unexpected search defaults: %+v", cfg.Search)
	}
	if cfg.Cache.KeyPrefix != "metasearch:count:" || cfg.Cache.TTLSec != 300 {
		t.Errorf("unexpected cache defaults: %+v", cfg.Cache)
	}
	if cfg.Snapshot.URLStyle != "vhost" {
		t.Errorf("expected vhost url style, got %q", cfg.Snapshot.URLStyle)
	}
	if cfg.Snapshot.GenerationCheckSec != 30 {
		t.Errorf("expected 30s generation check, got %d", cfg.Snapshot.GenerationCheckSec)
	}
}

func TestParse_CacheCredentials(t *testing.T) {
	cfg, err := Parse([]byte(`
live:
  dsn: postgres://db/cumulus
cache:
  addrs: ["redis:6379"]
  username: metasearch
  password: secret
  db: 3
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Cache.Username != "metasearch" || cfg.Cache.Password != "secret" || cfg.Cache.DB != 3 {
		t.Errorf("unexpected cache credentials: %+v", cfg.Cache)
	}
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("METASEARCH_TEST_DSN", "postgres://db/cumulus")
	cfg, err := Parse([]byte(`
http:
  port: 9000
live:
  dsn: ${METASEARCH_TEST_DSN}
  max_conns: 4
search:
  stack: ${METASEARCH_TEST_STACK:-sandbox}
  strict_fields: true
snapshot:
  enabled: true
  bucket: archive
  prefix: cumulus/snapshots
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Live.DSN != "postgres://db/cumulus" || cfg.Live.MaxConns != 4 {
		t.Errorf("unexpected live config: %+v", cfg.Live)
	}
	if cfg.Search.Stack != "sandbox" || !cfg.Search.StrictFields {
		t.Errorf("unexpected search config: %+v", cfg.Search)
	}
	if !cfg.Snapshot.Enabled || cfg.Snapshot.Bucket != "archive" {
		t.Errorf("unexpected snapshot config: %+v", cfg.Snapshot)
	}
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("http:\n  port: 8080\n"))
	if err == nil || !strings.HasPrefix(err.Error(), "invalid config:") {
		t.Fatalf("expected invalid config error, got %v", err)
	}
}
