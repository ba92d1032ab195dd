// Package config resolves the runtime configuration of the binary.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"head-cleaner/internal/settings"
)

// Config is the resolved runtime configuration.
type Config struct {
	SiteName string
	SiteURL  string

	Port     string
	LogLevel string
	TUI      bool

	Store settings.Options

	JWTSecret string
	TokenTTL  time.Duration
}

// configFile mirrors the YAML schema of head-cleaner.yaml.
type configFile struct {
	Site struct {
		Name string `yaml:"name"`
		URL  string `yaml:"url"`
	} `yaml:"site"`
	Server struct {
		Port     string `yaml:"port"`
		LogLevel string `yaml:"log_level"`
		TUI      *bool  `yaml:"tui"`
	} `yaml:"server"`
	Store struct {
		Backend string `yaml:"backend"`
		Meili   struct {
			URL   string `yaml:"url"`
			Key   string `yaml:"key"`
			Index string `yaml:"index"`
		} `yaml:"meili"`
		Redis struct {
			URL    string `yaml:"url"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
		PostgresURL string `yaml:"postgres_url"`
	} `yaml:"store"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
		TokenTTL  string `yaml:"token_ttl"`
	} `yaml:"auth"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		SiteName: "Head Cleaner Demo",
		SiteURL:  "http://localhost:9810",
		Port:     "9810",
		LogLevel: "info",
		Store: settings.Options{
			Backend:     settings.BackendMemory,
			MeiliURL:    "http://localhost:7700",
			MeiliIndex:  "head-cleaner-options",
			RedisPrefix: "head-cleaner:",
		},
		TokenTTL: 24 * time.Hour,
	}
}

// Load resolves configuration in priority order: defaults, then the YAML
// file at path, then the environment. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := cfg.applyFile(raw); err != nil {
				return Config{}, err
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyFile(raw []byte) error {
	var f configFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	setString(&c.SiteName, f.Site.Name)
	setString(&c.SiteURL, f.Site.URL)
	setString(&c.Port, f.Server.Port)
	setString(&c.LogLevel, f.Server.LogLevel)
	if f.Server.TUI != nil {
		c.TUI = *f.Server.TUI
	}
	setString(&c.Store.Backend, f.Store.Backend)
	setString(&c.Store.MeiliURL, f.Store.Meili.URL)
	setString(&c.Store.MeiliKey, f.Store.Meili.Key)
	setString(&c.Store.MeiliIndex, f.Store.Meili.Index)
	setString(&c.Store.RedisURL, f.Store.Redis.URL)
	setString(&c.Store.RedisPrefix, f.Store.Redis.Prefix)
	setString(&c.Store.DatabaseURL, f.Store.PostgresURL)
	setString(&c.JWTSecret, f.Auth.JWTSecret)
	if f.Auth.TokenTTL != "" {
		d, err := time.ParseDuration(f.Auth.TokenTTL)
		if err != nil {
			return fmt.Errorf("parse auth.token_ttl: %w", err)
		}
		c.TokenTTL = d
	}
	return nil
}

func (c *Config) applyEnv() {
	c.SiteName = envOrDefault("HEAD_CLEANER_SITE_NAME", c.SiteName)
	c.SiteURL = envOrDefault("HEAD_CLEANER_SITE_URL", c.SiteURL)
	c.Port = envOrDefault("HEAD_CLEANER_PORT", c.Port)
	c.LogLevel = envOrDefault("HEAD_CLEANER_LOG_LEVEL", c.LogLevel)
	c.TUI = envBool("HEAD_CLEANER_TUI", c.TUI)
	c.Store.Backend = envOrDefault("HEAD_CLEANER_STORE", c.Store.Backend)
	c.Store.MeiliURL = envOrDefault("MEILI_URL", c.Store.MeiliURL)
	c.Store.MeiliKey = envOrDefault("MEILI_KEY", c.Store.MeiliKey)
	c.Store.MeiliIndex = envOrDefault("MEILI_INDEX", c.Store.MeiliIndex)
	c.Store.RedisURL = envOrDefault("REDIS_URL", c.Store.RedisURL)
	c.Store.RedisPrefix = envOrDefault("HEAD_CLEANER_REDIS_PREFIX", c.Store.RedisPrefix)
	c.Store.DatabaseURL = envOrDefault("DATABASE_URL", c.Store.DatabaseURL)
	c.JWTSecret = envOrDefault("HEAD_CLEANER_JWT_SECRET", c.JWTSecret)
	c.TokenTTL = envDuration("HEAD_CLEANER_TOKEN_TTL", c.TokenTTL)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

func envBool(name string, fallback bool) bool {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}
