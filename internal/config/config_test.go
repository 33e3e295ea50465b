// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML and TOML loading, env var expansion, defaults, overrides and validation

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoad_ValidYAML(t *testing.T) {
	path := writeConfig(t, "registrar.yaml", `
api:
  base_url: "https://registrar.example.edu/api"
  timeout: "5s"

session:
  store: "sqlite"
  path: "/tmp/registrar/session.db"

paging:
  page_size: 25

notifications:
  display_duration: "4s"

mutations:
  guard_ttl: "30s"

logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.API.BaseURL != "https://registrar.example.edu/api" {
		t.Errorf("API.BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 5*time.Second {
		t.Errorf("API.Timeout = %v, want 5s", cfg.API.Timeout)
	}
	if cfg.Session.Store != StoreSQLite {
		t.Errorf("Session.Store = %q, want sqlite", cfg.Session.Store)
	}
	if cfg.Session.Path != "/tmp/registrar/session.db" {
		t.Errorf("Session.Path = %q", cfg.Session.Path)
	}
	if cfg.Paging.PageSize != 25 {
		t.Errorf("Paging.PageSize = %d, want 25", cfg.Paging.PageSize)
	}
	if cfg.Notifications.DisplayDuration != 4*time.Second {
		t.Errorf("Notifications.DisplayDuration = %v, want 4s", cfg.Notifications.DisplayDuration)
	}
	if cfg.Mutations.GuardTTL != 30*time.Second {
		t.Errorf("Mutations.GuardTTL = %v, want 30s", cfg.Mutations.GuardTTL)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
}

func TestLoad_ValidTOML(t *testing.T) {
	path := writeConfig(t, "registrar.toml", `
[api]
base_url = "http://10.0.0.5:5000/api"
timeout = "2s"

[paging]
page_size = 5

[devserver]
addr = "0.0.0.0:5001"
jwt_secret = "dev-secret"
seed = true
token_ttl = "1h"
allowed_origins = ["http://localhost:5173"]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.API.BaseURL != "http://10.0.0.5:5000/api" {
		t.Errorf("API.BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 2*time.Second {
		t.Errorf("API.Timeout = %v, want 2s", cfg.API.Timeout)
	}
	if cfg.Paging.PageSize != 5 {
		t.Errorf("Paging.PageSize = %d, want 5", cfg.Paging.PageSize)
	}
	if cfg.DevServer.Addr != "0.0.0.0:5001" || !cfg.DevServer.Seed {
		t.Errorf("DevServer = %+v", cfg.DevServer)
	}
	if cfg.DevServer.TokenTTL != time.Hour {
		t.Errorf("DevServer.TokenTTL = %v, want 1h", cfg.DevServer.TokenTTL)
	}
	if len(cfg.DevServer.AllowedOrigins) != 1 {
		t.Errorf("DevServer.AllowedOrigins = %v", cfg.DevServer.AllowedOrigins)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	path := writeConfig(t, "registrar.yaml", "api:\n  base_url: \"http://localhost:5000/api\"\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.API.Timeout != DefaultTimeout {
		t.Errorf("API.Timeout = %v, want %v", cfg.API.Timeout, DefaultTimeout)
	}
	if cfg.Session.Store != StoreFile {
		t.Errorf("Session.Store = %q, want file", cfg.Session.Store)
	}
	if cfg.Session.Path != "/tmp/xdg/registrar/token" {
		t.Errorf("Session.Path = %q", cfg.Session.Path)
	}
	if cfg.Paging.PageSize != DefaultPageSize {
		t.Errorf("Paging.PageSize = %d", cfg.Paging.PageSize)
	}
	if cfg.Notifications.DisplayDuration != 3*time.Second {
		t.Errorf("Notifications.DisplayDuration = %v, want 3s", cfg.Notifications.DisplayDuration)
	}
	if cfg.Mutations.GuardTTL != time.Minute {
		t.Errorf("Mutations.GuardTTL = %v", cfg.Mutations.GuardTTL)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
}

func TestLoad_SQLiteDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	path := writeConfig(t, "registrar.yaml", "session:\n  store: sqlite\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Session.Path != "/tmp/xdg/registrar/session.db" {
		t.Errorf("Session.Path = %q", cfg.Session.Path)
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_CLOUDINARY_SECRET", "s3cret")
	path := writeConfig(t, "registrar.yaml", `
storage:
  cloudinary:
    cloud_name: "demo"
    api_key: "key"
    api_secret: "${TEST_CLOUDINARY_SECRET}"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Storage.Cloudinary.APISecret != "s3cret" {
		t.Errorf("APISecret = %q, want s3cret", cfg.Storage.Cloudinary.APISecret)
	}
	if cfg.Storage.Cloudinary.Folder != "students" {
		t.Errorf("Folder = %q, want students", cfg.Storage.Cloudinary.Folder)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("REGISTRAR_API_URL", "http://override:9000/api")
	t.Setenv("REGISTRAR_TOKEN", "env-token")
	path := writeConfig(t, "registrar.yaml", "api:\n  base_url: \"http://file:5000/api\"\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.API.BaseURL != "http://override:9000/api" {
		t.Errorf("API.BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.Session.Token != "env-token" {
		t.Errorf("Session.Token = %q", cfg.Session.Token)
	}
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.API.BaseURL == "" {
		t.Error("expected a default base URL")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	path := writeConfig(t, "registrar.yaml", "api:\n  timeout: \"soon\"\n")

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for invalid duration")
	}
	if !strings.Contains(err.Error(), "api.timeout") {
		t.Errorf("error should name the field, got %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/registrar.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "registrar.yaml", "api: [unclosed")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults are valid", func(*Config) {}, ""},
		{"relative base url", func(c *Config) { c.API.BaseURL = "/api" }, "api.base_url"},
		{"ftp base url", func(c *Config) { c.API.BaseURL = "ftp://x/api" }, "api.base_url"},
		{"unknown store", func(c *Config) { c.Session.Store = "redis" }, "session.store"},
		{"zero page size", func(c *Config) { c.Paging.PageSize = 0 }, "paging.page_size"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("REG_A", "alpha")

	got := expandEnvVars("x=${REG_A} y=${REG_MISSING_VAR}")
	if got != "x=alpha y=" {
		t.Errorf("expandEnvVars() = %q", got)
	}
}
