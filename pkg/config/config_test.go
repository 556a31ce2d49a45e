package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Success(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "prod" {
		t.Fatalf("expected App.Env to be prod, got %q", cfg.App.Env)
	}
	if cfg.Redis.URL != "redis://localhost:6379/0" {
		t.Fatalf("unexpected Redis URL: %q", cfg.Redis.URL)
	}
	if cfg.Handoff.Driver != HandoffDriverRedis {
		t.Fatalf("expected redis handoff driver by default, got %q", cfg.Handoff.Driver)
	}
	if got := cfg.Handoff.TTL; got != 30*time.Minute {
		t.Fatalf("expected handoff ttl 30m, got %v", got)
	}
	if got := cfg.Backend.ConfirmTimeout; got != 15*time.Second {
		t.Fatalf("expected confirm timeout 15s, got %v", got)
	}
	if cfg.Storefront.SuccessPath != "/payments/success" {
		t.Fatalf("unexpected success path %q", cfg.Storefront.SuccessPath)
	}
	if cfg.Backend.BreakerFailures != 5 || cfg.Backend.BreakerCooldown != 30*time.Second {
		t.Fatalf("unexpected breaker defaults %d %v", cfg.Backend.BreakerFailures, cfg.Backend.BreakerCooldown)
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

func TestLoad_RejectsUnknownHandoffDriver(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvHandoffDriver, "localstorage")

	if _, err := Load(); err == nil {
		t.Fatal("expected unknown handoff driver to fail")
	}
}

func TestLoad_SQLDriverBuildsDSNFromParts(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvHandoffDriver, HandoffDriverSQL)
	t.Setenv(EnvDBHost, "db.internal")
	t.Setenv(EnvDBUser, "cafe")
	t.Setenv(EnvDBName, "storefront")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.DB.DSN != "postgres://cafe@db.internal:5432/storefront?sslmode=disable" {
		t.Fatalf("unexpected dsn %q", cfg.DB.DSN)
	}
}

func TestLoad_SQLDriverMissingParts(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvHandoffDriver, HandoffDriverSQL)

	if _, err := Load(); err == nil {
		t.Fatal("expected missing db settings to fail")
	}
}

func TestLoad_RelativePublicURL(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvPublicURL, "/shop")

	if _, err := Load(); err == nil {
		t.Fatal("expected relative public url to fail")
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "prod")
	t.Setenv(EnvPort, "8081")
	t.Setenv(EnvPublicURL, "https://cafe.example.com")
	t.Setenv(EnvBackendURL, "https://api.cafe.example.com")
	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")
	t.Setenv(EnvHandoffSecret, "secret")
}

func TestAppConfigEnvHelpers(t *testing.T) {
	devConfig := AppConfig{Env: "DEV"}
	if !devConfig.IsDev() {
		t.Fatalf("expected IsDev true for %q", devConfig.Env)
	}
	if devConfig.IsProd() {
		t.Fatalf("expected IsProd false for %q", devConfig.Env)
	}

	prodConfig := AppConfig{Env: "prod"}
	if !prodConfig.IsProd() {
		t.Fatalf("expected IsProd true for %q", prodConfig.Env)
	}
}

func TestStorefrontURL(t *testing.T) {
	s := StorefrontConfig{PublicURL: "https://cafe.example.com/"}
	if got := s.URL("/payments/success"); got != "https://cafe.example.com/payments/success" {
		t.Fatalf("unexpected url %q", got)
	}
}
