package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return cfgPath
}

func TestLoadDefaultsAndEnvOverrides(t *testing.T) {
	t.Setenv("MEMOBANK_SESSION_SECRET", "env-secret")
	t.Setenv("MEMOBANK_MAX_UPLOAD_BYTES", "1048576")

	cfgPath := writeConfig(t, `
port: "8080"
sessionSecret: "file-secret"
`)
	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.SessionSecret != "env-secret" {
		t.Fatalf("sessionSecret = %q, want env override", cfg.SessionSecret)
	}
	if cfg.MaxUploadBytes != 1048576 {
		t.Fatalf("maxUploadBytes = %d, want 1048576", cfg.MaxUploadBytes)
	}
	if cfg.BlobBackend != "local" {
		t.Fatalf("blobBackend = %q, want default local", cfg.BlobBackend)
	}
	if cfg.CatalogPath != "data/catalog.sqlite" {
		t.Fatalf("catalogPath = %q, want derived default", cfg.CatalogPath)
	}
	if cfg.BackupRetention != 5 {
		t.Fatalf("backupRetention = %d, want 5", cfg.BackupRetention)
	}
	if cfg.SessionTTL() != 24*time.Hour {
		t.Fatalf("sessionTTL = %v, want 24h", cfg.SessionTTL())
	}
	if cfg.PushInterval() != 5*time.Minute {
		t.Fatalf("pushInterval = %v, want 5m", cfg.PushInterval())
	}
}

func TestLoadRejectsMissingPort(t *testing.T) {
	cfgPath := writeConfig(t, `
sessionSecret: "s"
`)
	if _, err := Load(cfgPath); err == nil {
		t.Fatalf("Load() expected error for missing port")
	}
}

func TestValidateConfigRejectsS3WithoutEndpoint(t *testing.T) {
	cfg := FileConfig{
		Port:           "8080",
		BlobBackend:    "s3",
		SessionBackend: "jwt",
		SessionSecret:  "s",
	}
	applyDefaults(&cfg)
	if err := validateConfig(cfg); err == nil {
		t.Fatalf("validateConfig() expected error for s3 backend without endpoint")
	}
}

func TestValidateConfigRejectsRedisSessionsWithoutAddr(t *testing.T) {
	cfg := FileConfig{
		Port:           "8080",
		SessionBackend: "redis",
	}
	applyDefaults(&cfg)
	if err := validateConfig(cfg); err == nil {
		t.Fatalf("validateConfig() expected error for redis sessions without redisAddr")
	}
}

func TestValidateConfigRejectsAdminWithoutPassword(t *testing.T) {
	cfg := FileConfig{
		Port:           "8080",
		SessionBackend: "jwt",
		SessionSecret:  "s",
		AdminEmail:     "admin@example.com",
	}
	applyDefaults(&cfg)
	if err := validateConfig(cfg); err == nil {
		t.Fatalf("validateConfig() expected error for admin email without password")
	}
}
