// Package notify delivers operator notifications about lookups. Delivery is
// fire-and-forget: callers never see a notification failure.
package notify

import (
	"context"
	"log/slog"
	"time"
)

// Severity ranks a notification.
type Severity string

const (
	Critical Severity = "critical"
	Warning  Severity = "warning"
	Info     Severity = "info"
)

// Source names this service in delivered events.
const Source = "vesbot"

// Event is one notification as published on NATS and sent to webhooks.
type Event struct {
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`
	Source   string    `json:"source"`
	Time     time.Time `json:"time"`
}

// NewEvent stamps an event with the current time.
func NewEvent(sev Severity, msg string) Event {
	return Event{Severity: sev, Message: msg, Source: Source, Time: time.Now().UTC()}
}

// Notifier accepts notifications without blocking on delivery.
type Notifier interface {
	Notify(ctx context.Context, sev Severity, msg string)
}

// Sender delivers a single event synchronously.
type Sender interface {
	Send(ctx context.Context, ev Event) error
}

// Func adapts a function into a Notifier.
type Func func(ctx context.Context, sev Severity, msg string)

func (f Func) Notify(ctx context.Context, sev Severity, msg string) { f(ctx, sev, msg) }

// Nop discards every notification.
var Nop Notifier = Func(func(context.Context, Severity, string) {})

// Multi fans a notification out to every notifier.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, sev Severity, msg string) {
	for _, n := range m {
		n.Notify(ctx, sev, msg)
	}
}

// Log writes notifications to a structured logger.
type Log struct {
	Logger *slog.Logger
}

func (l Log) Notify(ctx context.Context, sev Severity, msg string) {
	level := slog.LevelInfo
	switch sev {
	case Critical:
		level = slog.LevelError
	case Warning:
		level = slog.LevelWarn
	}
	l.Logger.Log(ctx, level, msg, "severity", string(sev), "source", Source)
}
