package main

import (
	"testing"
	"time"
)

const testSigningSecret = "0123456789abcdef"

func setupRequiredConfigEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_SIGNING_SECRET", testSigningSecret)
	t.Setenv("APP_ENV", "")
	t.Setenv("WILAYAH_DATASET_URL", "")
	t.Setenv("WILAYAH_DATASET_PATH", "")
	t.Setenv("WILAYAH_DATASET_PROVIDER", "")
	t.Setenv("WILAYAH_FETCH_TIMEOUT_S", "")
	t.Setenv("WILAYAH_CORS_ORIGINS", "")
}

func TestLoadConfigDefaults(t *testing.T) {
	setupRequiredConfigEnv(t)

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("expected config to load: %v", err)
	}

	if cfg.Addr != ":8080" {
		t.Fatalf("expected default addr :8080, got %s", cfg.Addr)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env development, got %s", cfg.Env)
	}
	if cfg.DatasetProvider != "fallback" {
		t.Fatalf("expected default provider fallback, got %s", cfg.DatasetProvider)
	}
	if cfg.DatasetPath != "data/regions.json" {
		t.Fatalf("expected default dataset path, got %s", cfg.DatasetPath)
	}
	if cfg.FetchTimeout != defaultFetchTimeout {
		t.Fatalf("expected default fetch timeout, got %v", cfg.FetchTimeout)
	}
}

func TestLoadConfigRequiresSigningSecret(t *testing.T) {
	setupRequiredConfigEnv(t)
	t.Setenv("APP_SIGNING_SECRET", "short")

	if _, err := loadConfig(); err == nil {
		t.Fatal("expected error for short signing secret")
	}
}

func TestLoadConfigRejectsUnknownProvider(t *testing.T) {
	setupRequiredConfigEnv(t)
	t.Setenv("WILAYAH_DATASET_PROVIDER", "carrier-pigeon")

	if _, err := loadConfig(); err == nil {
		t.Fatal("expected error for unknown dataset provider")
	}
}

func TestLoadConfigHTTPProviderRequiresURL(t *testing.T) {
	setupRequiredConfigEnv(t)
	t.Setenv("WILAYAH_DATASET_PROVIDER", "http")

	if _, err := loadConfig(); err == nil {
		t.Fatal("expected error when http provider has no URL")
	}

	t.Setenv("WILAYAH_DATASET_URL", "https://example.org/regions.json")
	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("expected config to load: %v", err)
	}
	if cfg.DatasetURL != "https://example.org/regions.json" {
		t.Fatalf("unexpected dataset URL %s", cfg.DatasetURL)
	}
}

func TestLoadConfigParsesFetchTimeout(t *testing.T) {
	setupRequiredConfigEnv(t)
	t.Setenv("WILAYAH_FETCH_TIMEOUT_S", "30")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("expected config to load: %v", err)
	}
	if cfg.FetchTimeout != 30*time.Second {
		t.Fatalf("expected 30s fetch timeout, got %v", cfg.FetchTimeout)
	}
}

func TestLoadConfigRejectsNonPositiveFetchTimeout(t *testing.T) {
	setupRequiredConfigEnv(t)
	for _, raw := range []string{"0", "-5", "ten"} {
		t.Setenv("WILAYAH_FETCH_TIMEOUT_S", raw)
		if _, err := loadConfig(); err == nil {
			t.Fatalf("expected error for fetch timeout %q", raw)
		}
	}
}

func TestLoadConfigParsesCORSOrigins(t *testing.T) {
	setupRequiredConfigEnv(t)
	t.Setenv("WILAYAH_CORS_ORIGINS", "https://wilayah.example.org/, https://staging.example.org")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("expected config to load: %v", err)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Fatalf("expected 2 origins, got %v", cfg.CORSOrigins)
	}
	if cfg.CORSOrigins[0] != "https://wilayah.example.org" {
		t.Fatalf("expected trailing slash trimmed, got %s", cfg.CORSOrigins[0])
	}
}
