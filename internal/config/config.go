// ABOUTME: Configuration loading and parsing for the registrar tools
// ABOUTME: YAML or TOML files with .env loading, env var expansion, defaults and duration parsing

package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/2389/registrar/internal/session"
)

// Defaults applied when a value is missing.
const (
	DefaultBaseURL         = "http://localhost:5000/api"
	DefaultTimeout         = 10 * time.Second
	DefaultPageSize        = 10
	DefaultDisplayDuration = 3 * time.Second
	DefaultGuardTTL        = time.Minute
	DefaultDevServerAddr   = "127.0.0.1:5000"
	DefaultTokenTTL        = 24 * time.Hour
)

// Session store kinds.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
)

// Config represents the complete registrar configuration
type Config struct {
	API           APIConfig           `yaml:"api" toml:"api"`
	Session       SessionConfig       `yaml:"session" toml:"session"`
	Paging        PagingConfig        `yaml:"paging" toml:"paging"`
	Notifications NotificationsConfig `yaml:"notifications" toml:"notifications"`
	Mutations     MutationsConfig     `yaml:"mutations" toml:"mutations"`
	Storage       StorageConfig       `yaml:"storage" toml:"storage"`
	Logging       LoggingConfig       `yaml:"logging" toml:"logging"`
	DevServer     DevServerConfig     `yaml:"devserver" toml:"devserver"`
}

// APIConfig holds where the backend lives
type APIConfig struct {
	BaseURL string        `yaml:"base_url" toml:"base_url"`
	Timeout time.Duration `yaml:"-" toml:"-"`

	TimeoutRaw string `yaml:"timeout" toml:"timeout"`
}

// SessionConfig holds token persistence settings
type SessionConfig struct {
	Store string `yaml:"store" toml:"store"`
	Path  string `yaml:"path" toml:"path"`

	// Token comes from REGISTRAR_TOKEN and is never read from the file.
	Token string `yaml:"-" toml:"-"`
}

// PagingConfig holds list defaults
type PagingConfig struct {
	PageSize int `yaml:"page_size" toml:"page_size"`
}

// NotificationsConfig holds notification timing
type NotificationsConfig struct {
	DisplayDuration time.Duration `yaml:"-" toml:"-"`

	DisplayDurationRaw string `yaml:"display_duration" toml:"display_duration"`
}

// MutationsConfig holds the re-entrancy guard settings
type MutationsConfig struct {
	GuardTTL time.Duration `yaml:"-" toml:"-"`

	GuardTTLRaw string `yaml:"guard_ttl" toml:"guard_ttl"`
}

// StorageConfig holds photo storage settings
type StorageConfig struct {
	Cloudinary CloudinaryConfig `yaml:"cloudinary" toml:"cloudinary"`
}

// CloudinaryConfig holds Cloudinary credentials
type CloudinaryConfig struct {
	CloudName string `yaml:"cloud_name" toml:"cloud_name"`
	APIKey    string `yaml:"api_key" toml:"api_key"`
	APISecret string `yaml:"api_secret" toml:"api_secret"`
	Folder    string `yaml:"folder" toml:"folder"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// DevServerConfig holds settings for the local reference backend
type DevServerConfig struct {
	Addr           string        `yaml:"addr" toml:"addr"`
	JWTSecret      string        `yaml:"jwt_secret" toml:"jwt_secret"`
	Seed           bool          `yaml:"seed" toml:"seed"`
	AllowedOrigins []string      `yaml:"allowed_origins" toml:"allowed_origins"`
	TokenTTL       time.Duration `yaml:"-" toml:"-"`

	TokenTTLRaw string `yaml:"token_ttl" toml:"token_ttl"`
}

// Default returns a configuration usable without any file.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// DefaultPath returns the first config file that exists, checking
// REGISTRAR_CONFIG, ./registrar.yaml, ./registrar.toml and
// ~/.config/registrar/config.{yaml,toml}. It returns "" if none exist.
func DefaultPath() string {
	if p := os.Getenv("REGISTRAR_CONFIG"); p != "" {
		return p
	}

	candidates := []string{"registrar.yaml", "registrar.toml"}
	if dir, err := session.ConfigDir(); err == nil {
		candidates = append(candidates,
			filepath.Join(dir, "config.yaml"),
			filepath.Join(dir, "config.toml"),
		)
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

// Load reads a configuration file from the given path and returns a parsed Config.
// A .env file in the working directory is loaded first if present.
// Environment variables in the format ${VAR_NAME} are expanded.
// Files ending in .toml are decoded as TOML, everything else as YAML.
// An empty path yields Default() with environment overrides applied.
func Load(path string) (*Config, error) {
	// Missing .env is normal outside development
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		expanded := expandEnvVars(string(data))

		if strings.EqualFold(filepath.Ext(path), ".toml") {
			if _, err := toml.Decode(expanded, &cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		} else {
			if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		}

		if err := parseDurations(&cfg); err != nil {
			return nil, fmt.Errorf("parsing durations: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// applyEnv lets the environment override the file.
func (c *Config) applyEnv() {
	if v := os.Getenv("REGISTRAR_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("REGISTRAR_TOKEN"); v != "" {
		c.Session.Token = v
	}

	cld := &c.Storage.Cloudinary
	if cld.CloudName == "" {
		cld.CloudName = os.Getenv("CLOUDINARY_CLOUD_NAME")
	}
	if cld.APIKey == "" {
		cld.APIKey = os.Getenv("CLOUDINARY_API_KEY")
	}
	if cld.APISecret == "" {
		cld.APISecret = os.Getenv("CLOUDINARY_API_SECRET")
	}
}

func (c *Config) applyDefaults() {
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultTimeout
	}
	if c.Session.Store == "" {
		c.Session.Store = StoreFile
	}
	if c.Session.Path == "" {
		if dir, err := session.ConfigDir(); err == nil {
			name := "token"
			if c.Session.Store == StoreSQLite {
				name = "session.db"
			}
			c.Session.Path = filepath.Join(dir, name)
		}
	}
	if c.Paging.PageSize == 0 {
		c.Paging.PageSize = DefaultPageSize
	}
	if c.Notifications.DisplayDuration == 0 {
		c.Notifications.DisplayDuration = DefaultDisplayDuration
	}
	if c.Mutations.GuardTTL == 0 {
		c.Mutations.GuardTTL = DefaultGuardTTL
	}
	if c.Storage.Cloudinary.Folder == "" {
		c.Storage.Cloudinary.Folder = "students"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.DevServer.Addr == "" {
		c.DevServer.Addr = DefaultDevServerAddr
	}
	if c.DevServer.TokenTTL == 0 {
		c.DevServer.TokenTTL = DefaultTokenTTL
	}
}

// Validate checks that all configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api.base_url must be an http(s) URL, got %q", c.API.BaseURL)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative")
	}

	switch c.Session.Store {
	case StoreFile, StoreSQLite:
	default:
		return fmt.Errorf("session.store must be %q or %q, got %q", StoreFile, StoreSQLite, c.Session.Store)
	}

	if c.Paging.PageSize < 1 {
		return fmt.Errorf("paging.page_size must be positive")
	}
	if c.Notifications.DisplayDuration < 0 {
		return fmt.Errorf("notifications.display_duration must not be negative")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	fields := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"api.timeout", cfg.API.TimeoutRaw, &cfg.API.Timeout},
		{"notifications.display_duration", cfg.Notifications.DisplayDurationRaw, &cfg.Notifications.DisplayDuration},
		{"mutations.guard_ttl", cfg.Mutations.GuardTTLRaw, &cfg.Mutations.GuardTTL},
		{"devserver.token_ttl", cfg.DevServer.TokenTTLRaw, &cfg.DevServer.TokenTTL},
	}

	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("parsing %s %q: %w", f.name, f.raw, err)
		}
		*f.dst = d
	}
	return nil
}
