package config

import (
	"os"
	"testing"
)

func TestLoad_Success(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "production" {
		t.Fatalf("expected App.Env to be production, got %q", cfg.App.Env)
	}
	if cfg.App.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.App.Port)
	}
	if cfg.Storage.Driver != StorageDriverSQLite {
		t.Fatalf("expected default sqlite driver, got %q", cfg.Storage.Driver)
	}
	if cfg.Storage.QuotaBytes != 5*1024*1024 {
		t.Fatalf("expected 5MiB default quota, got %d", cfg.Storage.QuotaBytes)
	}
	if cfg.Catalog.DefaultSort != "name" {
		t.Fatalf("unexpected default sort %q", cfg.Catalog.DefaultSort)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv(EnvAppEnv); err != nil {
		t.Fatalf("failed to unset %s: %v", EnvAppEnv, err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvStorageDriver, "dynamo")

	if _, err := Load(); err == nil {
		t.Fatal("expected unknown storage driver to fail")
	}
}

func TestLoad_RedisDriverRequiresAddress(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvStorageDriver, "REDIS")

	if _, err := Load(); err == nil {
		t.Fatal("expected redis driver without url/addr to fail")
	}

	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Storage.Driver != StorageDriverRedis {
		t.Fatalf("expected normalized redis driver, got %q", cfg.Storage.Driver)
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "production")
	t.Setenv(EnvStorageDriver, "")
	t.Setenv(EnvRedisURL, "")
	t.Setenv(EnvRedisAddr, "")
	os.Unsetenv(EnvStorageDriver)
	os.Unsetenv(EnvRedisURL)
	os.Unsetenv(EnvRedisAddr)
}
