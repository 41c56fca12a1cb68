package main

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/WessleyAI/vesbot/pkg/natsutil"
	"github.com/WessleyAI/vesbot/pkg/notify"
	"github.com/spf13/cobra"
)

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Forward NATS notifications to the Discord webhook",
	Args:  cobra.NoArgs,
	RunE:  runRelay,
}

func init() {
	rootCmd.AddCommand(relayCmd)
}

func runRelay(cmd *cobra.Command, _ []string) error {
	logger := newLogger(os.Stdout)
	cfg := loadConfig()
	if cfg.NATSURL == "" || cfg.WebhookURL == "" {
		return errors.New("relay needs NATS_URL and DISCORD_NOTIFICATION_WEBHOOK_URL")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	nc, err := natsutil.Connect(cfg.NATSURL, "vesbot-relay", logger)
	if err != nil {
		return err
	}
	defer nc.Close()

	wh := notify.NewWebhook(cfg.WebhookURL, &http.Client{Timeout: cfg.HTTPTimeout}, logger)
	return notify.Relay(ctx, nc, cfg.NATSSubject, wh, logger)
}
