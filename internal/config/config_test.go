package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "DATA_BACKEND", "CACHE_TTL", "AMQP_URL", "REFRESH_INTERVAL"} {
		old := os.Getenv(key)
		os.Unsetenv(key)
		defer os.Setenv(key, old)
	}

	cfg := Load()
	if cfg.Port != "8082" {
		t.Errorf("expected default port 8082, got %s", cfg.Port)
	}
	if cfg.DataBackend != "memory" {
		t.Errorf("expected default backend memory, got %s", cfg.DataBackend)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("expected default TTL 5m, got %v", cfg.CacheTTL)
	}
	if cfg.RiskAgedShare != 0.35 {
		t.Errorf("expected default risk share 0.35, got %v", cfg.RiskAgedShare)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config must validate: %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	os.Setenv("PORT", "9090")
	os.Setenv("CACHE_TTL", "90s")
	os.Setenv("RISK_AGED_SHARE", "0.5")
	defer func() {
		os.Unsetenv("PORT")
		os.Unsetenv("CACHE_TTL")
		os.Unsetenv("RISK_AGED_SHARE")
	}()

	cfg := Load()
	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.CacheTTL != 90*time.Second {
		t.Errorf("expected TTL 90s, got %v", cfg.CacheTTL)
	}
	if cfg.RiskAgedShare != 0.5 {
		t.Errorf("expected risk share 0.5, got %v", cfg.RiskAgedShare)
	}
}

func TestValidate_Errors(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{"bad port", func(c *Config) { c.Port = "nope" }, "invalid port"},
		{"port range", func(c *Config) { c.Port = "70000" }, "between 1 and 65535"},
		{"bad backend", func(c *Config) { c.DataBackend = "postgres" }, "invalid data backend"},
		{"empty portfolio file", func(c *Config) { c.PortfolioFile = "" }, "portfolio file"},
		{"short ttl", func(c *Config) { c.CacheTTL = time.Millisecond }, "cache TTL"},
		{"bad amqp scheme", func(c *Config) { c.AMQPURL = "http://x" }, "AMQP URL scheme"},
		{"amqp missing queue", func(c *Config) { c.AMQPURL = "amqp://guest@localhost"; c.AMQPQueue = "" }, "queue name"},
		{"long refresh", func(c *Config) { c.RefreshInterval = 48 * time.Hour }, "refresh interval"},
		{"risk share", func(c *Config) { c.RiskAgedShare = 1.5 }, "risk aged share"},
		{"top n", func(c *Config) { c.TopN = 0 }, "top N"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Load()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Errorf("expected error containing %q, got: %v", tc.wantSub, err)
			}
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Load()
	cfg.Port = "bad"
	cfg.DataBackend = "bad"
	cfg.TopN = 0
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	if strings.Count(err.Error(), "\n- ") != 3 {
		t.Errorf("expected all three errors reported, got: %v", err)
	}
}
