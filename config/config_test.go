package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Run("loads with defaults when only partner code is set", func(t *testing.T) {
		t.Setenv("BEAUTYCARE_PARTNER_PARTNER_CODE", "XYZ")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
		}
		if cfg.Server.RequestTimeout != 10*time.Second {
			t.Errorf("Server.RequestTimeout = %v, want 10s", cfg.Server.RequestTimeout)
		}
		if cfg.Partner.PartnerCode != "XYZ" {
			t.Errorf("Partner.PartnerCode = %s, want XYZ", cfg.Partner.PartnerCode)
		}
		if cfg.Partner.RedirectBase != "" {
			t.Errorf("Partner.RedirectBase = %s, want empty", cfg.Partner.RedirectBase)
		}
		if cfg.Cart.Persistence != PersistenceMemory {
			t.Errorf("Cart.Persistence = %s, want memory", cfg.Cart.Persistence)
		}
		if cfg.Cart.MaxAlternatives != 3 {
			t.Errorf("Cart.MaxAlternatives = %d, want 3", cfg.Cart.MaxAlternatives)
		}
		if cfg.Cart.TTL != 720*time.Hour {
			t.Errorf("Cart.TTL = %v, want 720h", cfg.Cart.TTL)
		}
		if !cfg.Analytics.Enabled {
			t.Errorf("Analytics.Enabled = false, want true")
		}
		if cfg.Analytics.SummaryRetention != 24*time.Hour {
			t.Errorf("Analytics.SummaryRetention = %v, want 24h", cfg.Analytics.SummaryRetention)
		}
		if cfg.Scoring.UndertoneMatch != 3 || cfg.Scoring.Season != 2 || cfg.Scoring.Preference != 0.5 {
			t.Errorf("Scoring = %+v, want default weights", cfg.Scoring)
		}
		if cfg.LogLevel != "info" {
			t.Errorf("LogLevel = %s, want info", cfg.LogLevel)
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		t.Setenv("BEAUTYCARE_PARTNER_PARTNER_CODE", "ABC")
		t.Setenv("BEAUTYCARE_PARTNER_REDIRECT_BASE", "https://go.example/r")
		t.Setenv("BEAUTYCARE_SERVER_PORT", "9090")
		t.Setenv("BEAUTYCARE_CART_PERSISTENCE", "file")
		t.Setenv("BEAUTYCARE_CART_FILE_DIR", "/tmp/carts")
		t.Setenv("BEAUTYCARE_ANALYTICS_ENABLED", "false")
		t.Setenv("BEAUTYCARE_SCORING_SEASON", "4.5")
		t.Setenv("BEAUTYCARE_LOG_LEVEL", "debug")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if cfg.Partner.RedirectBase != "https://go.example/r" {
			t.Errorf("Partner.RedirectBase = %s, want https://go.example/r", cfg.Partner.RedirectBase)
		}
		if cfg.Cart.Persistence != PersistenceFile {
			t.Errorf("Cart.Persistence = %s, want file", cfg.Cart.Persistence)
		}
		if cfg.Cart.FileDir != "/tmp/carts" {
			t.Errorf("Cart.FileDir = %s, want /tmp/carts", cfg.Cart.FileDir)
		}
		if cfg.Analytics.Enabled {
			t.Errorf("Analytics.Enabled = true, want false")
		}
		if cfg.Scoring.Season != 4.5 {
			t.Errorf("Scoring.Season = %v, want 4.5", cfg.Scoring.Season)
		}
		if cfg.LogLevel != "debug" {
			t.Errorf("LogLevel = %s, want debug", cfg.LogLevel)
		}
	})

	t.Run("fails without partner code", func(t *testing.T) {
		t.Setenv("BEAUTYCARE_PARTNER_PARTNER_CODE", "")

		_, err := Load()
		if err == nil {
			t.Fatal("Load() error = nil, want error")
		}
		if !strings.Contains(err.Error(), "partner code is required") {
			t.Errorf("error = %v, want partner code error", err)
		}
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Partner:  PartnerConfig{PartnerCode: "XYZ"},
			Cart:     CartConfig{Persistence: PersistenceMemory, MaxAlternatives: 3},
			Scoring:  ScoringConfig{UndertoneMatch: 3, UndertoneConflict: 3, Season: 2, Depth: 2, Concern: 1, InStock: 1, Preference: 0.5},
			LogLevel: "info",
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"unknown persistence", func(c *Config) { c.Cart.Persistence = "s3" }, "cart persistence"},
		{"external without redis", func(c *Config) { c.Cart.Persistence = PersistenceExternal }, "Redis URL is required"},
		{"external with redis", func(c *Config) {
			c.Cart.Persistence = PersistenceExternal
			c.Cart.RedisURL = "redis://localhost:6379/0"
		}, ""},
		{"negative weight", func(c *Config) { c.Scoring.Depth = -1 }, "scoring weight depth"},
		{"negative alternatives", func(c *Config) { c.Cart.MaxAlternatives = -1 }, "max_alternatives"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "unknown log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
