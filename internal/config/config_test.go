package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	path := writeConfig(t, "{}\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.GitHub.Repo != "leoprim/ranked-tracker" {
		t.Errorf("repo = %q", cfg.GitHub.Repo)
	}
	if cfg.Release.TagPrefix != "obs-plugin-v" || cfg.Release.AssetSuffix != ".exe" {
		t.Errorf("unexpected release policy %+v", cfg.Release)
	}
	if cfg.Release.PageSize != 10 {
		t.Errorf("page size = %d, want 10", cfg.Release.PageSize)
	}
	if cfg.Cache.TTL != 5*time.Minute {
		t.Errorf("cache ttl = %v, want 5m", cfg.Cache.TTL)
	}
	if cfg.Server.Listen != ":8080" {
		t.Errorf("listen = %q", cfg.Server.Listen)
	}
	if cfg.GitHub.Token != "" {
		t.Errorf("token should be empty by default")
	}
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfig(t, `
github:
  repo: acme/widget
  timeout: 3s
release:
  tag_prefix: widget-v
  asset_suffix: .msi
  page_size: 25
cache:
  ttl: 30s
logging:
  level: debug
  format: text
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.GitHub.Repo != "acme/widget" {
		t.Errorf("repo = %q", cfg.GitHub.Repo)
	}
	if cfg.GitHub.Timeout != 3*time.Second {
		t.Errorf("timeout = %v", cfg.GitHub.Timeout)
	}
	p := cfg.Policy()
	if p.TagPrefix != "widget-v" || p.AssetSuffix != ".msi" || p.PageSize != 25 {
		t.Errorf("Policy() = %+v", p)
	}
	if cfg.Cache.TTL != 30*time.Second {
		t.Errorf("ttl = %v", cfg.Cache.TTL)
	}
	lc := cfg.LoggerConfig("test")
	if lc.Level != "debug" || lc.Format != "text" || lc.Module != "test" {
		t.Errorf("LoggerConfig() = %+v", lc)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("RTWEB_RELEASE_PAGE_SIZE", "5")
	t.Setenv("RTWEB_GITHUB_REPO", "env/repo")
	t.Setenv("GITHUB_TOKEN", "ghp_secret")
	path := writeConfig(t, "github:\n  repo: file/repo\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Release.PageSize != 5 {
		t.Errorf("page size = %d, want 5", cfg.Release.PageSize)
	}
	if cfg.GitHub.Repo != "env/repo" {
		t.Errorf("repo = %q, want env/repo", cfg.GitHub.Repo)
	}
	if cfg.GitHub.Token != "ghp_secret" {
		t.Errorf("token not read from GITHUB_TOKEN")
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := writeConfig(t, "github:\n  repo: not-a-repo\n")

	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "owner/repo") {
		t.Errorf("expected owner/repo validation error, got %v", err)
	}
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"defaults are valid", func(c *Config) {}, ""},
		{"empty prefix", func(c *Config) { c.Release.TagPrefix = "" }, "tag_prefix"},
		{"empty suffix", func(c *Config) { c.Release.AssetSuffix = "" }, "asset_suffix"},
		{"page size zero", func(c *Config) { c.Release.PageSize = 0 }, "page_size"},
		{"page size over cap", func(c *Config) { c.Release.PageSize = 101 }, "page_size"},
		{"negative ttl", func(c *Config) { c.Cache.TTL = -time.Second }, "cache.ttl"},
		{"zero timeout", func(c *Config) { c.GitHub.Timeout = 0 }, "github.timeout"},
		{"bad failure ratio", func(c *Config) { c.Breaker.FailureRatio = 1.5 }, "failure_ratio"},
		{"ratio ignored when breaker disabled", func(c *Config) {
			c.Breaker.Enabled = false
			c.Breaker.FailureRatio = 0
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.want == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestRedacted(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GitHub.Token = "ghp_secret"

	out := cfg.Redacted()
	if out.GitHub.Token == "ghp_secret" {
		t.Error("token not redacted")
	}
	if cfg.GitHub.Token != "ghp_secret" {
		t.Error("Redacted() must not modify the original")
	}
}
