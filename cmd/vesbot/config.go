package main

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/WessleyAI/vesbot/engine/provider"
	"github.com/WessleyAI/vesbot/pkg/notify"
	"github.com/joho/godotenv"
)

// Config holds all environment-based configuration.
type Config struct {
	Port        string
	MetricsPort string
	HTTPTimeout time.Duration

	VES         provider.VESConfig
	MOT         provider.MOTConfig
	EuroURL     string
	Marketplace string
	VINURL      string
	VINAuth     provider.TokenConfig

	WebhookURL  string
	NATSURL     string
	NATSSubject string
}

// loadEnvFile seeds the environment from path. Variables already set win,
// and a missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func loadConfig() Config {
	tokenURL := envOr("MOT_TOKEN_URL", "")
	if tokenURL == "" {
		if authority := envOr("MOT_CLIENT_AUTHORITY", ""); authority != "" {
			tokenURL = provider.TokenURLFromAuthority(authority)
		}
	}

	return Config{
		Port:        envOr("PORT", "8080"),
		MetricsPort: envOr("METRICS_PORT", "9090"),
		HTTPTimeout: envDuration("HTTP_TIMEOUT", 10*time.Second),
		VES: provider.VESConfig{
			URL:    envOr("VES_URL", provider.DefaultVESURL),
			APIKey: envOr("VES_API_KEY", ""),
		},
		MOT: provider.MOTConfig{
			URL:          envOr("MOT_URL", provider.DefaultMOTURL),
			APIKey:       envOr("MOT_API_KEY", ""),
			ClientID:     envOr("MOT_CLIENT_ID", ""),
			ClientSecret: envOr("MOT_CLIENT_SECRET", ""),
			TokenURL:     tokenURL,
			Scope:        envOr("MOT_CLIENT_SCOPE_URL", ""),
		},
		EuroURL:     envOr("EURO_URL", provider.DefaultEuroURL),
		Marketplace: envOr("MARKETPLACE_URL", provider.DefaultMarketplaceURL),
		VINURL:      envOr("VIN_URL", ""),
		VINAuth: provider.TokenConfig{
			AuthURL:  envOr("VIN_AUTH_URL", ""),
			Login:    envOr("VIN_USERNAME", ""),
			Password: envOr("VIN_PASSWORD", ""),
		},
		WebhookURL:  envOr("DISCORD_NOTIFICATION_WEBHOOK_URL", ""),
		NATSURL:     envOr("NATS_URL", ""),
		NATSSubject: envOr("NATS_SUBJECT", notify.DefaultSubject),
	}
}

// missing lists credentials a lookup will fail without. Lookups still run:
// the affected providers simply fail.
func (c Config) missing() []string {
	var keys []string
	check := func(key, v string) {
		if v == "" {
			keys = append(keys, key)
		}
	}
	check("VES_API_KEY", c.VES.APIKey)
	check("MOT_API_KEY", c.MOT.APIKey)
	check("MOT_CLIENT_ID", c.MOT.ClientID)
	check("MOT_TOKEN_URL", c.MOT.TokenURL)
	check("VIN_URL", c.VINURL)
	check("VIN_AUTH_URL", c.VINAuth.AuthURL)
	return keys
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
