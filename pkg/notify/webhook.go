package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Embed colours by severity.
var severityColours = map[Severity]int{
	Critical: 0xff0000,
	Warning:  0xffa500,
	Info:     0x0000ff,
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type embedFooter struct {
	Text string `json:"text"`
}

type embed struct {
	Color     int          `json:"color"`
	Fields    []embedField `json:"fields"`
	Footer    embedFooter  `json:"footer"`
	Timestamp string       `json:"timestamp"`
}

type webhookPayload struct {
	Embeds []embed `json:"embeds"`
}

// Webhook posts events to a Discord-compatible webhook as embeds.
type Webhook struct {
	url    string
	client *http.Client
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewWebhook creates a webhook notifier. A nil client gets a 10s timeout.
func NewWebhook(url string, client *http.Client, logger *slog.Logger) *Webhook {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Webhook{url: url, client: client, logger: logger}
}

// Notify delivers in the background; failures are logged.
func (w *Webhook) Notify(ctx context.Context, sev Severity, msg string) {
	ev := NewEvent(sev, msg)
	ctx = context.WithoutCancel(ctx)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if err := w.Send(ctx, ev); err != nil {
			w.logger.Warn("webhook notification failed", "severity", string(sev), "err", err)
		}
	}()
}

// Wait blocks until background deliveries finish.
func (w *Webhook) Wait() { w.wg.Wait() }

// Send posts ev and waits for the response.
func (w *Webhook) Send(ctx context.Context, ev Event) error {
	colour, ok := severityColours[ev.Severity]
	if !ok {
		colour = severityColours[Info]
	}
	source := ev.Source
	if source == "" {
		source = Source
	}
	body, err := json.Marshal(webhookPayload{Embeds: []embed{{
		Color:     colour,
		Fields:    []embedField{{Name: string(ev.Severity), Value: ev.Message}},
		Footer:    embedFooter{Text: source},
		Timestamp: ev.Time.UTC().Format(time.RFC3339),
	}}})
	if err != nil {
		return fmt.Errorf("encode webhook: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d from webhook", resp.StatusCode)
	}
	return nil
}
