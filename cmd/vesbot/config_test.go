package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/WessleyAI/vesbot/engine/provider"
	"github.com/WessleyAI/vesbot/pkg/notify"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "METRICS_PORT", "HTTP_TIMEOUT", "VES_URL", "MOT_TOKEN_URL", "MOT_CLIENT_AUTHORITY", "NATS_SUBJECT"} {
		t.Setenv(k, "")
	}
	cfg := loadConfig()
	if cfg.Port != "8080" || cfg.MetricsPort != "9090" {
		t.Fatalf("unexpected ports %s/%s", cfg.Port, cfg.MetricsPort)
	}
	if cfg.HTTPTimeout != 10*time.Second {
		t.Fatalf("unexpected timeout %v", cfg.HTTPTimeout)
	}
	if cfg.VES.URL != provider.DefaultVESURL || cfg.NATSSubject != notify.DefaultSubject {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.MOT.TokenURL != "" {
		t.Fatalf("expected no token url, got %q", cfg.MOT.TokenURL)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("HTTP_TIMEOUT", "3s")
	t.Setenv("VES_API_KEY", "ves-key")
	t.Setenv("MOT_TOKEN_URL", "")
	t.Setenv("MOT_CLIENT_AUTHORITY", "https://login.example.com/tenant/")
	t.Setenv("VIN_USERNAME", "user")

	cfg := loadConfig()
	if cfg.Port != "9000" || cfg.HTTPTimeout != 3*time.Second {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.VES.APIKey != "ves-key" || cfg.VINAuth.Login != "user" {
		t.Fatalf("credentials not read: %+v", cfg)
	}
	if cfg.MOT.TokenURL != "https://login.example.com/tenant/oauth2/v2.0/token" {
		t.Fatalf("unexpected token url %q", cfg.MOT.TokenURL)
	}
}

func TestExplicitTokenURLWins(t *testing.T) {
	t.Setenv("MOT_TOKEN_URL", "https://auth.example.com/token")
	t.Setenv("MOT_CLIENT_AUTHORITY", "https://login.example.com/tenant")
	if got := loadConfig().MOT.TokenURL; got != "https://auth.example.com/token" {
		t.Fatalf("got %q", got)
	}
}

func TestEnvDurationRejectsGarbage(t *testing.T) {
	t.Setenv("HTTP_TIMEOUT", "soon")
	if d := envDuration("HTTP_TIMEOUT", time.Second); d != time.Second {
		t.Fatalf("got %v", d)
	}
	t.Setenv("HTTP_TIMEOUT", "-5s")
	if d := envDuration("HTTP_TIMEOUT", time.Second); d != time.Second {
		t.Fatalf("got %v", d)
	}
}

func TestMissingCredentials(t *testing.T) {
	cfg := Config{VES: provider.VESConfig{APIKey: "x"}}
	got := cfg.missing()
	if len(got) != 5 || got[0] != "MOT_API_KEY" {
		t.Fatalf("unexpected missing keys %v", got)
	}
}

// --- .env loading ---

func TestLoadEnvFile(t *testing.T) {
	const key = "VESBOT_TEST_ENV_FILE_KEY"
	t.Cleanup(func() { os.Unsetenv(key) })

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(key+"=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := loadEnvFile(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := os.Getenv(key); got != "from-file" {
		t.Fatalf("got %q", got)
	}
}

func TestLoadEnvFileMissingIsFine(t *testing.T) {
	if err := loadEnvFile(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := loadEnvFile(""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
