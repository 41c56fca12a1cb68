package aggregate

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/WessleyAI/vesbot/engine/domain"
	"github.com/WessleyAI/vesbot/engine/provider"
	"github.com/WessleyAI/vesbot/pkg/metrics"
	"github.com/WessleyAI/vesbot/pkg/notify"
)

// --- Fakes ---

type fakeProvider struct {
	name   provider.Name
	record provider.Record
	err    error
	before func(ctx context.Context) error
}

func (f *fakeProvider) Name() provider.Name { return f.name }

func (f *fakeProvider) Fetch(ctx context.Context, _ domain.Registration) (provider.Record, error) {
	if f.before != nil {
		if err := f.before(ctx); err != nil {
			return nil, err
		}
	}
	return f.record, f.err
}

type notification struct {
	sev notify.Severity
	msg string
}

type recorder struct {
	mu  sync.Mutex
	got []notification
}

func (r *recorder) Notify(_ context.Context, sev notify.Severity, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, notification{sev, msg})
}

func (r *recorder) with(sev notify.Severity) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, n := range r.got {
		if n.sev == sev {
			out = append(out, n.msg)
		}
	}
	return out
}

func str(s string) *string { return &s }

func statusErr(name provider.Name, code int) error {
	return &provider.Error{Provider: name, Category: provider.CategoryOutage, StatusCode: code, Message: "unexpected status"}
}

func allOK() []provider.Provider {
	return []provider.Provider{
		&fakeProvider{name: provider.VESName, record: &provider.VESRecord{Make: str("FORD")}},
		&fakeProvider{name: provider.MOTName, record: &provider.MOTRecord{Model: str("FOCUS")}},
		&fakeProvider{name: provider.EuroName, record: &provider.EuroRecord{EuroStatus: str("EURO 6")}},
		&fakeProvider{name: provider.MarketplaceName, record: &provider.MarketplaceRecord{DerivativeShort: str("1.0 Titanium")}},
		&fakeProvider{name: provider.VINName, record: &provider.VINRecord{VIN: str("WF0XXX")}},
	}
}

func quiet() Option { return WithLogger(slog.New(slog.DiscardHandler)) }

var reg = domain.MustRegistration("AB51ABC")

// --- FetchAll ---

func TestFetchAllComplete(t *testing.T) {
	rec := &recorder{}
	res, err := New(allOK(), rec, quiet()).FetchAll(context.Background(), reg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Records) != 5 || len(res.Failures) != 0 {
		t.Fatalf("expected 5 records and no failures, got %d/%d", len(res.Records), len(res.Failures))
	}
	if provider.Str(res.VES().Make) != "FORD" || provider.Str(res.MOT().Model) != "FOCUS" {
		t.Fatal("typed accessors returned wrong records")
	}
	if res.Euro() == nil || res.Marketplace() == nil || res.VIN() == nil {
		t.Fatal("expected every typed accessor to resolve")
	}
	if res.FailureSummary() != "" {
		t.Fatalf("expected empty summary, got %q", res.FailureSummary())
	}
	if len(rec.got) != 0 {
		t.Fatalf("expected no notifications, got %v", rec.got)
	}
}

func TestFetchAllPartial(t *testing.T) {
	ps := allOK()
	ps[1] = &fakeProvider{name: provider.MOTName, err: statusErr(provider.MOTName, 500)}
	ps[4] = &fakeProvider{name: provider.VINName, err: errors.New("boom")}

	rec := &recorder{}
	res, err := New(ps, rec, quiet()).FetchAll(context.Background(), reg)
	if err != nil {
		t.Fatalf("partial lookup should succeed: %v", err)
	}
	if res.MOT() != nil || res.VIN() != nil {
		t.Fatal("failed providers must not appear in records")
	}
	if len(res.Records)+len(res.Failures) != 5 {
		t.Fatal("every provider must land in exactly one of records and failures")
	}
	if got := res.FailureSummary(); got != " • mot 500 • vin boom" {
		t.Fatalf("unexpected summary %q", got)
	}

	warnings := rec.with(notify.Warning)
	if len(warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %v", warnings)
	}
	want := map[string]bool{"mot failed for AB51ABC: 500": true, "vin failed for AB51ABC: boom": true}
	for _, w := range warnings {
		if !want[w] {
			t.Fatalf("unexpected warning %q", w)
		}
	}
	if len(rec.with(notify.Critical)) != 0 {
		t.Fatal("partial lookup must not raise a critical notification")
	}
}

func TestFetchAllMajorityFailed(t *testing.T) {
	ps := allOK()
	for _, i := range []int{1, 2, 4} {
		ps[i] = &fakeProvider{name: ps[i].Name(), err: statusErr(ps[i].Name(), 502)}
	}

	rec := &recorder{}
	res, err := New(ps, rec, quiet()).FetchAll(context.Background(), reg)
	if err != nil {
		t.Fatalf("two successes should still yield a result: %v", err)
	}
	if len(res.Records) != 2 || len(res.Failures) != 3 {
		t.Fatalf("expected 2 records and 3 failures, got %d and %d", len(res.Records), len(res.Failures))
	}
	if res.VES() == nil || res.Marketplace() == nil {
		t.Fatal("successful providers missing from records")
	}
	if got := res.FailureSummary(); got != " • euro 502 • mot 502 • vin 502" {
		t.Fatalf("unexpected summary %q", got)
	}
	if n := len(rec.with(notify.Warning)); n != 3 {
		t.Fatalf("expected 3 warnings, got %d", n)
	}
	if len(rec.with(notify.Critical)) != 0 {
		t.Fatal("partial lookup must not raise a critical notification")
	}
}

func TestFetchAllExhausted(t *testing.T) {
	var ps []provider.Provider
	for _, p := range allOK() {
		ps = append(ps, &fakeProvider{name: p.Name(), err: statusErr(p.Name(), 503)})
	}

	rec := &recorder{}
	res, err := New(ps, rec, quiet()).FetchAll(context.Background(), reg)
	if res != nil {
		t.Fatal("expected nil result")
	}
	if !errors.Is(err, domain.ErrNoDataAvailable) {
		t.Fatalf("expected ErrNoDataAvailable, got %v", err)
	}
	var ex *ExhaustedError
	if !errors.As(err, &ex) || len(ex.Failures) != 5 || ex.Registration != "AB51ABC" {
		t.Fatalf("unexpected error %#v", err)
	}
	if !strings.Contains(err.Error(), "all 5 providers failed") {
		t.Fatalf("unexpected message %q", err.Error())
	}
	crit := rec.with(notify.Critical)
	if len(crit) != 1 || crit[0] != "All APIs failed for vehicle AB51ABC" {
		t.Fatalf("unexpected critical notifications %v", crit)
	}
	if len(rec.with(notify.Warning)) != 5 {
		t.Fatal("expected one warning per failed provider")
	}
}

func TestFetchAllRunsConcurrently(t *testing.T) {
	const n = 5
	var started sync.WaitGroup
	started.Add(n)
	gate := make(chan struct{})
	go func() {
		started.Wait()
		close(gate)
	}()

	// Each provider blocks until all have started, so a sequential
	// aggregator would time out.
	before := func(ctx context.Context) error {
		started.Done()
		select {
		case <-gate:
			return nil
		case <-time.After(2 * time.Second):
			return errors.New("providers were not called concurrently")
		}
	}
	ps := allOK()
	for _, p := range ps {
		p.(*fakeProvider).before = before
	}

	res, err := New(ps, nil, quiet()).FetchAll(context.Background(), reg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Failures) != 0 {
		t.Fatalf("unexpected failures: %v", res.Failures)
	}
}

func TestFetchAllFailureDoesNotCancelOthers(t *testing.T) {
	ps := allOK()
	ps[0] = &fakeProvider{name: provider.VESName, err: errors.New("fast failure")}
	ps[2].(*fakeProvider).before = func(ctx context.Context) error {
		time.Sleep(20 * time.Millisecond)
		return ctx.Err()
	}

	res, err := New(ps, nil, quiet()).FetchAll(context.Background(), reg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Euro() == nil {
		t.Fatal("slow provider should still complete after another failed")
	}
}

func TestSourcesAndFailedSorted(t *testing.T) {
	ps := allOK()
	ps[3] = &fakeProvider{name: provider.MarketplaceName, err: errors.New("x")}
	res, err := New(ps, nil, quiet()).FetchAll(context.Background(), reg)
	if err != nil {
		t.Fatal(err)
	}
	got := res.Sources()
	want := []provider.Name{provider.EuroName, provider.MOTName, provider.VESName, provider.VINName}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
	if f := res.Failed(); len(f) != 1 || f[0] != provider.MarketplaceName {
		t.Fatalf("unexpected failed list %v", f)
	}
}

// --- Metrics ---

func TestFetchAllRecordsMetrics(t *testing.T) {
	ps := allOK()
	ps[1] = &fakeProvider{name: provider.MOTName, err: &provider.Error{Provider: provider.MOTName, Category: provider.CategoryNotFound, StatusCode: 404}}

	m := metrics.New()
	if _, err := New(ps, nil, quiet(), WithMetrics(m)).FetchAll(context.Background(), reg); err != nil {
		t.Fatal(err)
	}

	if v := m.Counter(metrics.WithLabels(lookupsTotal, "outcome", "partial"), "").Value(); v != 1 {
		t.Fatalf("expected 1 partial lookup, got %d", v)
	}
	if v := m.Counter(metrics.WithLabels(providerRequestsTotal, "provider", "mot", "outcome", "not_found"), "").Value(); v != 1 {
		t.Fatalf("expected 1 mot not_found, got %d", v)
	}
	if v := m.Counter(metrics.WithLabels(providerRequestsTotal, "provider", "ves", "outcome", "ok"), "").Value(); v != 1 {
		t.Fatalf("expected 1 ves ok, got %d", v)
	}
	out := m.Render()
	if !strings.Contains(out, `vesbot_provider_duration_seconds_count{provider="vin"} 1`) {
		t.Fatalf("missing duration histogram:\n%s", out)
	}
}
