// Package config loads the server configuration from an optional .env file,
// an optional YAML file and the environment, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// OIDC configures single sign-on. SSO is enabled when Issuer and ClientID
// are both set.
type OIDC struct {
	Issuer       string `yaml:"issuer"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
}

// Enabled reports whether SSO is configured.
func (o OIDC) Enabled() bool {
	return o.Issuer != "" && o.ClientID != ""
}

// Config is the server configuration.
type Config struct {
	Addr        string   `yaml:"addr"`
	Env         string   `yaml:"env"`
	DatabaseURL string   `yaml:"database_url"`
	Storage     string   `yaml:"storage"`
	RecipesFile string   `yaml:"recipes_file"`
	CORSOrigins []string `yaml:"cors_origins"`
	OIDC        OIDC     `yaml:"oidc"`
	// RandomSeed makes recipe selection reproducible when non-nil.
	RandomSeed *uint64 `yaml:"random_seed"`
}

// Production reports whether the server runs in production mode.
func (c Config) Production() bool {
	return c.Env == "production"
}

// Load reads .env (if present), the YAML file named by CONFIG_FILE (if set)
// and environment overrides, then validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{Addr: ":8080", Storage: StoragePostgres}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Addr, "ADDR")
	setString(&c.Env, "ENV")
	setString(&c.DatabaseURL, "DATABASE_URL")
	setString(&c.Storage, "STORAGE")
	setString(&c.RecipesFile, "RECIPES_FILE")
	setString(&c.OIDC.Issuer, "OIDC_ISSUER")
	setString(&c.OIDC.ClientID, "OIDC_CLIENT_ID")
	setString(&c.OIDC.ClientSecret, "OIDC_CLIENT_SECRET")
	setString(&c.OIDC.RedirectURL, "OIDC_REDIRECT_URL")

	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.CORSOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.CORSOrigins = append(c.CORSOrigins, o)
			}
		}
	}
	if v := os.Getenv("RANDOM_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("RANDOM_SEED: %w", err)
		}
		c.RandomSeed = &seed
	}
	return nil
}

func (c *Config) validate() error {
	switch c.Storage {
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for postgres storage")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unknown storage %q", c.Storage)
	}
	if c.OIDC.Enabled() && c.OIDC.RedirectURL == "" {
		return errors.New("OIDC_REDIRECT_URL is required when SSO is enabled")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
