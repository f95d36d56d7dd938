package httpapi

import (
	"os"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if cfg.MaxFileBytes() != 100*1024*1024 {
		t.Errorf("MaxFileBytes = %d", cfg.MaxFileBytes())
	}
	if cfg.AuthEnabled() {
		t.Error("auth should be disabled by default")
	}
}

func TestLoadConfig(t *testing.T) {
	yaml := `
listen: ":9099"
root_dir: "/srv/documents"
max_file_mb: 50
runlog_db: "/tmp/runlog.db"
retention_days: 30
auth:
  username: "admin"
  password_hash: "$2a$10$abcdefghijklmnopqrstuv"
webhooks:
  - name: "downstream"
    url: "https://example.com/hook"
    secret: "webhook-hmac-key"
`
	f, err := os.CreateTemp("", "config_test_*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(f.Name())
	f.WriteString(yaml)
	f.Close()

	cfg, err := LoadConfig(f.Name())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Listen != ":9099" {
		t.Errorf("Listen = %q", cfg.Listen)
	}
	if cfg.RootDir != "/srv/documents" {
		t.Errorf("RootDir = %q", cfg.RootDir)
	}
	if cfg.MaxFileMB != 50 {
		t.Errorf("MaxFileMB = %d", cfg.MaxFileMB)
	}
	if cfg.RetentionDays != 30 {
		t.Errorf("RetentionDays = %d", cfg.RetentionDays)
	}
	if !cfg.AuthEnabled() {
		t.Error("auth should be enabled")
	}
	if len(cfg.Webhooks) != 1 || cfg.Webhooks[0].Secret != "webhook-hmac-key" {
		t.Errorf("Webhooks = %+v", cfg.Webhooks)
	}
}

func TestValidate_HalfConfiguredAuth(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Auth.Username = "admin"
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for username without password_hash")
	}
}

func TestValidate_MissingWebhookURL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Webhooks = []WebhookTarget{{Name: "broken"}}
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for missing url")
	}
}

func TestValidate_BadMaxFileMB(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxFileMB = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for max_file_mb 0")
	}
}
