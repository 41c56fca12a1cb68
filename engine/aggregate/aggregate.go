// Package aggregate queries every provider for a registration at once and
// merges whatever subset answers.
package aggregate

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/WessleyAI/vesbot/engine/domain"
	"github.com/WessleyAI/vesbot/engine/provider"
	"github.com/WessleyAI/vesbot/pkg/fn"
	"github.com/WessleyAI/vesbot/pkg/metrics"
	"github.com/WessleyAI/vesbot/pkg/notify"
	"go.opentelemetry.io/otel/attribute"
)

const (
	lookupsTotal          = "vesbot_lookups_total"
	providerRequestsTotal = "vesbot_provider_requests_total"
	providerDuration      = "vesbot_provider_duration_seconds"
)

var metricHelp = map[string]string{
	lookupsTotal:          "Vehicle lookups by outcome",
	providerRequestsTotal: "Provider calls by outcome",
	providerDuration:      "Provider call latency",
}

// ExhaustedError reports that no provider returned data.
type ExhaustedError struct {
	Registration string
	Failures     map[provider.Name]error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("all %d providers failed for %s", len(e.Failures), e.Registration)
}

func (e *ExhaustedError) Unwrap() error { return domain.ErrNoDataAvailable }

// Result is the merged outcome of one lookup. Every provider appears in
// exactly one of Records and Failures.
type Result struct {
	Registration domain.Registration
	Records      map[provider.Name]provider.Record
	Failures     map[provider.Name]error
	Duration     time.Duration
}

func (r *Result) VES() *provider.VESRecord {
	v, _ := r.Records[provider.VESName].(*provider.VESRecord)
	return v
}

func (r *Result) MOT() *provider.MOTRecord {
	v, _ := r.Records[provider.MOTName].(*provider.MOTRecord)
	return v
}

func (r *Result) Euro() *provider.EuroRecord {
	v, _ := r.Records[provider.EuroName].(*provider.EuroRecord)
	return v
}

func (r *Result) Marketplace() *provider.MarketplaceRecord {
	v, _ := r.Records[provider.MarketplaceName].(*provider.MarketplaceRecord)
	return v
}

func (r *Result) VIN() *provider.VINRecord {
	v, _ := r.Records[provider.VINName].(*provider.VINRecord)
	return v
}

// Sources lists the providers that answered, sorted by name.
func (r *Result) Sources() []provider.Name { return sortedNames(r.Records) }

// Failed lists the providers that failed, sorted by name.
func (r *Result) Failed() []provider.Name { return sortedNames(r.Failures) }

// FailureSummary renders failed providers as " • name reason" fragments.
func (r *Result) FailureSummary() string {
	var b strings.Builder
	for _, name := range r.Failed() {
		fmt.Fprintf(&b, " • %s %s", name, provider.Reason(r.Failures[name]))
	}
	return b.String()
}

func sortedNames[V any](m map[provider.Name]V) []provider.Name {
	names := make([]provider.Name, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Aggregator fans a lookup out to every provider.
type Aggregator struct {
	providers []provider.Provider
	notifier  notify.Notifier
	logger    *slog.Logger
	metrics   *metrics.Registry
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(a *Aggregator) { a.logger = l } }

// WithMetrics records per-provider counters and latencies in reg.
func WithMetrics(reg *metrics.Registry) Option { return func(a *Aggregator) { a.metrics = reg } }

// New creates an Aggregator. A nil notifier discards notifications.
func New(providers []provider.Provider, notifier notify.Notifier, opts ...Option) *Aggregator {
	if notifier == nil {
		notifier = notify.Nop
	}
	a := &Aggregator{providers: providers, notifier: notifier, logger: slog.Default()}
	for _, o := range opts {
		o(a)
	}
	return a
}

// FetchAll queries every provider concurrently and waits for all of them.
// A provider failure never cancels the others. The lookup fails only when
// every provider does, with an *ExhaustedError.
func (a *Aggregator) FetchAll(ctx context.Context, reg domain.Registration) (*Result, error) {
	start := time.Now()
	names := make([]provider.Name, len(a.providers))
	calls := make([]func() fn.Result[provider.Record], len(a.providers))
	for i, p := range a.providers {
		names[i] = p.Name()
		calls[i] = a.call(ctx, p, reg)
	}

	records, failures := fn.Settle(names, calls...)
	res := &Result{
		Registration: reg,
		Records:      records,
		Failures:     failures,
		Duration:     time.Since(start),
	}

	for _, name := range res.Failed() {
		a.notifier.Notify(ctx, notify.Warning, fmt.Sprintf("%s failed for %s: %s", name, reg, provider.Reason(failures[name])))
	}

	a.logger.Info("vehicle lookup",
		"registration", reg.String(),
		"successes", len(records),
		"failures", len(failures),
		"status", res.FailureSummary(),
		"duration", res.Duration,
	)

	if len(records) == 0 {
		a.count(lookupsTotal, "outcome", "exhausted")
		a.notifier.Notify(ctx, notify.Critical, "All APIs failed for vehicle "+reg.String())
		return nil, &ExhaustedError{Registration: reg.String(), Failures: failures}
	}
	outcome := "complete"
	if len(failures) > 0 {
		outcome = "partial"
	}
	a.count(lookupsTotal, "outcome", outcome)
	return res, nil
}

func (a *Aggregator) call(ctx context.Context, p provider.Provider, reg domain.Registration) func() fn.Result[provider.Record] {
	name := p.Name()
	stage := fn.TracedStage("provider."+string(name), fn.PairStage(p.Fetch),
		attribute.String("provider", string(name)),
		attribute.String("registration", reg.String()),
	)
	return func() fn.Result[provider.Record] {
		start := time.Now()
		r := stage(ctx, reg)
		a.observe(name, r.Error(), time.Since(start))
		return r
	}
}

func (a *Aggregator) observe(name provider.Name, err error, d time.Duration) {
	if a.metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = string(provider.CategoryOf(err))
	}
	a.count(providerRequestsTotal, "provider", string(name), "outcome", outcome)
	a.metrics.Histogram(metrics.WithLabels(providerDuration, "provider", string(name)),
		metricHelp[providerDuration], nil).Observe(d.Seconds())
}

func (a *Aggregator) count(name string, labels ...string) {
	if a.metrics == nil {
		return
	}
	a.metrics.Counter(metrics.WithLabels(name, labels...), metricHelp[name]).Inc()
}
