package config

import (
	"os"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DB_USER", "cake")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_NAME", "cakemarket")
	t.Setenv("JWT_SECRET", "jwt-secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("port=%q", cfg.Port)
	}
	if cfg.DBPort != "3306" {
		t.Fatalf("db port=%q", cfg.DBPort)
	}
	if cfg.JWTTTL != 168*time.Hour {
		t.Fatalf("jwt ttl=%v", cfg.JWTTTL)
	}
	if cfg.Notify.Queue != "cakemarket.notifications" || cfg.Notify.Workers != 2 || cfg.Notify.CountryCode != "+94" {
		t.Fatalf("notify=%+v", cfg.Notify)
	}
	if cfg.Twilio.Enabled() {
		t.Fatal("twilio should be disabled without credentials")
	}
	if cfg.SMTP.Enabled() {
		t.Fatal("smtp should be disabled without credentials")
	}
}

func TestLoadPrefixedGroups(t *testing.T) {
	setRequired(t)
	t.Setenv("TWILIO_ACCOUNT_SID", "AC123")
	t.Setenv("TWILIO_AUTH_TOKEN", "tok")
	t.Setenv("TWILIO_FROM_NUMBER", "+15550001111")
	t.Setenv("SMTP_USER", "bakery@example.com")
	t.Setenv("SMTP_PASSWORD", "pw")
	t.Setenv("NOTIFY_WORKERS", "4")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Twilio.Enabled() || cfg.Twilio.FromNumber != "+15550001111" {
		t.Fatalf("twilio=%+v", cfg.Twilio)
	}
	if !cfg.SMTP.Enabled() || cfg.SMTP.Host != "smtp.gmail.com" {
		t.Fatalf("smtp=%+v", cfg.SMTP)
	}
	if cfg.Notify.Workers != 4 {
		t.Fatalf("workers=%d", cfg.Notify.Workers)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	for _, key := range []string{"DB_USER", "DB_PASSWORD", "DB_HOST", "DB_NAME", "JWT_SECRET"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing required variables")
	}
}
