package main

import (
	"log/slog"
	"net/http"

	"github.com/WessleyAI/vesbot/engine/aggregate"
	"github.com/WessleyAI/vesbot/engine/lookup"
	"github.com/WessleyAI/vesbot/engine/provider"
	"github.com/WessleyAI/vesbot/pkg/metrics"
	"github.com/WessleyAI/vesbot/pkg/natsutil"
	"github.com/WessleyAI/vesbot/pkg/notify"
	"github.com/nats-io/nats.go"
)

// app is the wired lookup service plus whatever must be flushed on exit.
type app struct {
	svc     *lookup.Service
	metrics *metrics.Registry
	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func providers(cfg Config, client *http.Client) []provider.Provider {
	return []provider.Provider{
		provider.NewVES(cfg.VES, client),
		provider.NewMOT(cfg.MOT, client, provider.MOTTokenSource(cfg.MOT, client)),
		provider.NewEuro(cfg.EuroURL, client),
		provider.NewMarketplace(cfg.Marketplace, client),
		provider.NewVIN(cfg.VINURL, provider.NewTokenManager(cfg.VINAuth, client)),
	}
}

// buildNotifier always logs. With NATS configured, events are published
// for `vesbot relay`; otherwise they go straight to the webhook.
func buildNotifier(cfg Config, client *http.Client, logger *slog.Logger) (notify.Notifier, []func(), error) {
	notifiers := notify.Multi{notify.Log{Logger: logger}}
	var closers []func()

	switch {
	case cfg.NATSURL != "":
		nc, err := natsutil.Connect(cfg.NATSURL, "vesbot", logger)
		if err != nil {
			return nil, nil, err
		}
		notifiers = append(notifiers, notify.NewNATS(nc, cfg.NATSSubject, logger))
		closers = append(closers, func() { drain(nc, logger) })
	case cfg.WebhookURL != "":
		wh := notify.NewWebhook(cfg.WebhookURL, client, logger)
		notifiers = append(notifiers, wh)
		closers = append(closers, wh.Wait)
	}
	return notifiers, closers, nil
}

func drain(nc *nats.Conn, logger *slog.Logger) {
	if err := nc.Drain(); err != nil {
		logger.Warn("nats drain failed", "err", err)
	}
}

func buildApp(cfg Config, logger *slog.Logger) (*app, error) {
	if keys := cfg.missing(); len(keys) > 0 {
		logger.Warn("missing provider configuration", "keys", keys)
	}

	client := provider.NewHTTPClient(cfg.HTTPTimeout)
	notifier, closers, err := buildNotifier(cfg, client, logger)
	if err != nil {
		return nil, err
	}

	reg := metrics.New()
	agg := aggregate.New(providers(cfg, client), notifier,
		aggregate.WithLogger(logger),
		aggregate.WithMetrics(reg),
	)
	svc := lookup.New(agg, lookup.WithLogger(logger), lookup.WithMetrics(reg))
	return &app{svc: svc, metrics: reg, closers: closers}, nil
}
