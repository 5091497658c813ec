package config

import (
	"strings"
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("KAPINDA_APP_ENV", "development")
	t.Setenv("KAPINDA_APP_PORT", "8080")
	t.Setenv("KAPINDA_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("KAPINDA_JWT_SECRET", "secret")
	t.Setenv("KAPINDA_JWT_ISSUER", "kapinda")
}

func TestLoadBuildsDSNFromLegacyParts(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("KAPINDA_DB_HOST", "localhost")
	t.Setenv("KAPINDA_DB_USER", "kapinda")
	t.Setenv("KAPINDA_DB_PASSWORD", "p@ss")
	t.Setenv("KAPINDA_DB_NAME", "kapinda")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if !strings.HasPrefix(cfg.DB.DSN, "postgres://") {
		t.Fatalf("expected postgres DSN, got %q", cfg.DB.DSN)
	}
	if !strings.Contains(cfg.DB.DSN, "sslmode=disable") {
		t.Fatalf("expected sslmode in DSN, got %q", cfg.DB.DSN)
	}
}

func TestLoadRejectsMissingDBConfig(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("KAPINDA_DB_DSN", "")
	t.Setenv("KAPINDA_DB_HOST", "")
	t.Setenv("KAPINDA_DB_USER", "")
	t.Setenv("KAPINDA_DB_NAME", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when no DB config is provided")
	}
}

func TestLoadParsesDeliveryDefaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("KAPINDA_DB_DSN", "postgres://u:p@localhost:5432/kapinda")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if cfg.Delivery.FreeThresholdDecimal().String() != "150" {
		t.Fatalf("unexpected threshold %s", cfg.Delivery.FreeThresholdDecimal())
	}
	if cfg.Delivery.StandardFeeDecimal().String() != "15" {
		t.Fatalf("unexpected fee %s", cfg.Delivery.StandardFeeDecimal())
	}
	if cfg.Delivery.DefaultWindowMin > cfg.Delivery.DefaultWindowMax {
		t.Fatal("window min must not exceed max")
	}
}

func TestLoadRejectsInvalidDeliveryWindow(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("KAPINDA_DB_DSN", "postgres://u:p@localhost:5432/kapinda")
	t.Setenv("KAPINDA_DELIVERY_WINDOW_MIN", "90")
	t.Setenv("KAPINDA_DELIVERY_WINDOW_MAX", "30")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for inverted window")
	}
}
