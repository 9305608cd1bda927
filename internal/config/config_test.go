package config

import (
	"os"
	"path/filepath"
	"testing"
)

var keys = []string{
	"CONFIG_FILE", "ADDR", "ENV", "DATABASE_URL", "STORAGE", "RECIPES_FILE", "CORS_ORIGINS",
	"OIDC_ISSUER", "OIDC_CLIENT_ID", "OIDC_CLIENT_SECRET", "OIDC_REDIRECT_URL", "RANDOM_SEED",
}

// clearEnv blanks every key Load reads and runs the test from an empty
// directory so no stray .env is picked up.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
	t.Chdir(t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE", "memory")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":8080" || cfg.Storage != StorageMemory {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.RandomSeed != nil || cfg.OIDC.Enabled() || cfg.Production() {
		t.Errorf("expected optional settings unset, got %+v", cfg)
	}
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	clearEnv(t)
	if _, err := Load(); err == nil {
		t.Fatal("expected error without DATABASE_URL")
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `addr: ":9000"
storage: postgres
database_url: postgres://file
cors_origins: ["http://a.example"]
random_seed: 7
oidc:
  issuer: https://id.example
  client_id: planner
  redirect_url: https://planner.example/api/auth/sso/callback
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("DATABASE_URL", "postgres://env")
	t.Setenv("CORS_ORIGINS", "http://b.example, http://c.example")
	t.Setenv("ENV", "production")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":9000" {
		t.Errorf("expected addr from file, got %s", cfg.Addr)
	}
	if cfg.DatabaseURL != "postgres://env" {
		t.Errorf("expected env to override file, got %s", cfg.DatabaseURL)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://c.example" {
		t.Errorf("unexpected origins %v", cfg.CORSOrigins)
	}
	if cfg.RandomSeed == nil || *cfg.RandomSeed != 7 {
		t.Errorf("expected seed 7, got %v", cfg.RandomSeed)
	}
	if !cfg.OIDC.Enabled() || !cfg.Production() {
		t.Errorf("expected SSO and production, got %+v", cfg)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown storage", map[string]string{"STORAGE": "sqlite"}},
		{"bad seed", map[string]string{"STORAGE": "memory", "RANDOM_SEED": "abc"}},
		{"sso without redirect", map[string]string{"STORAGE": "memory", "OIDC_ISSUER": "https://id", "OIDC_CLIENT_ID": "x"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Error("expected error")
			}
		})
	}
}
