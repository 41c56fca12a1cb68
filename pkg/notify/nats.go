package notify

import (
	"context"
	"log/slog"

	"github.com/WessleyAI/vesbot/pkg/natsutil"
	"github.com/nats-io/nats.go"
)

// DefaultSubject carries notification events.
const DefaultSubject = "vesbot.notifications"

// NATS publishes events for a relay to deliver.
type NATS struct {
	nc      *nats.Conn
	subject string
	logger  *slog.Logger
}

// NewNATS creates a NATS notifier. An empty subject uses DefaultSubject.
func NewNATS(nc *nats.Conn, subject string, logger *slog.Logger) *NATS {
	if subject == "" {
		subject = DefaultSubject
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NATS{nc: nc, subject: subject, logger: logger}
}

func (n *NATS) Notify(ctx context.Context, sev Severity, msg string) {
	if err := natsutil.Publish(ctx, n.nc, n.subject, NewEvent(sev, msg)); err != nil {
		n.logger.Warn("nats notification failed", "subject", n.subject, "err", err)
	}
}

// Relay forwards events on subject to sink until ctx is cancelled.
func Relay(ctx context.Context, nc *nats.Conn, subject string, sink Sender, logger *slog.Logger) error {
	if subject == "" {
		subject = DefaultSubject
	}
	sub, err := natsutil.Subscribe(nc, subject, func(ctx context.Context, ev Event) {
		if err := sink.Send(ctx, ev); err != nil {
			logger.Warn("relay delivery failed", "severity", string(ev.Severity), "err", err)
		}
	}, func(err error) {
		logger.Warn("relay dropped malformed event", "err", err)
	})
	if err != nil {
		return err
	}
	logger.Info("relaying notifications", "subject", subject)
	<-ctx.Done()
	return sub.Drain()
}
