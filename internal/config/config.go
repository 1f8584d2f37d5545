// Package config provides configuration management for the showcase CLI
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the CLI
type Config struct {
	Client ClientConfig `yaml:"client"`
	Store  StoreConfig  `yaml:"store"`
	Log    LogConfig    `yaml:"log"`
}

// ClientConfig holds payment service session configuration
type ClientConfig struct {
	BaseURL       string        `yaml:"base_url"`
	ClientID      string        `yaml:"client_id"`
	AccessToken   string        `yaml:"access_token"`
	SigningSecret string        `yaml:"signing_secret"`
	UserAgent     string        `yaml:"user_agent"`
	Timeout       time.Duration `yaml:"timeout"`
	MaxRedirects  int           `yaml:"max_redirects"`
}

// StoreConfig holds showcase context persistence configuration
type StoreConfig struct {
	Driver string `yaml:"driver"` // file, memory, postgres
	DSN    string `yaml:"dsn"`
	// Dir holds the file driver's contexts. Empty means a "showcase"
	// directory under the user cache directory.
	Dir string `yaml:"dir"`
	// SealKey is a hex encoded 32 byte key; when set, stored contexts are
	// encrypted.
	SealKey string `yaml:"seal_key"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Default returns the configuration used when nothing else is given
func Default() *Config {
	return &Config{
		Client: ClientConfig{
			UserAgent:    "showcase-go",
			Timeout:      30 * time.Second,
			MaxRedirects: 1,
		},
		Store: StoreConfig{
			Driver: "file",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration: defaults, then the YAML file at path (if path is
// not empty), then environment overrides
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Client.BaseURL = getEnv("SHOWCASE_BASE_URL", c.Client.BaseURL)
	c.Client.ClientID = getEnv("SHOWCASE_CLIENT_ID", c.Client.ClientID)
	c.Client.AccessToken = getEnv("SHOWCASE_ACCESS_TOKEN", c.Client.AccessToken)
	c.Client.SigningSecret = getEnv("SHOWCASE_SIGNING_SECRET", c.Client.SigningSecret)
	c.Store.Driver = getEnv("SHOWCASE_STORE_DRIVER", c.Store.Driver)
	c.Store.DSN = getEnv("SHOWCASE_STORE_DSN", c.Store.DSN)
	c.Store.Dir = getEnv("SHOWCASE_STORE_DIR", c.Store.Dir)
	c.Store.SealKey = getEnv("SHOWCASE_SEAL_KEY", c.Store.SealKey)
	c.Log.Level = getEnv("SHOWCASE_LOG_LEVEL", c.Log.Level)

	if v := os.Getenv("SHOWCASE_MAX_REDIRECTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: SHOWCASE_MAX_REDIRECTS: %w", err)
		}
		c.Client.MaxRedirects = n
	}
	return nil
}

// Validate reports configuration that cannot work
func (c *Config) Validate() error {
	var errs []error
	if c.Client.BaseURL == "" {
		errs = append(errs, errors.New("client.base_url is required"))
	}
	if c.Client.MaxRedirects < 0 {
		errs = append(errs, errors.New("client.max_redirects must not be negative"))
	}
	switch c.Store.Driver {
	case "file", "memory":
	case "postgres":
		if c.Store.DSN == "" {
			errs = append(errs, errors.New("store.dsn is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.driver %q is not supported", c.Store.Driver))
	}
	if c.Store.SealKey != "" {
		if _, err := c.Store.Key(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Key decodes SealKey. It returns nil when no key is configured.
func (s StoreConfig) Key() (*[32]byte, error) {
	if s.SealKey == "" {
		return nil, nil
	}
	raw, err := hex.DecodeString(s.SealKey)
	if err != nil {
		return nil, fmt.Errorf("store.seal_key: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("store.seal_key must be 32 bytes, got %d", len(raw))
	}
	var key [32]byte
	copy(key[:], raw)
	return &key, nil
}

// Persistent reports whether stored contexts outlive the process
func (s StoreConfig) Persistent() bool {
	return s.Driver != "memory"
}

// Directory returns the file driver's directory
func (s StoreConfig) Directory() (string, error) {
	if s.Dir != "" {
		return s.Dir, nil
	}
	cache, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("store.dir: %w", err)
	}
	return filepath.Join(cache, "showcase"), nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
