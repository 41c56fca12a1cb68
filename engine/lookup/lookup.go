// Package lookup runs one registration lookup end to end: validation,
// provider fan-out and report assembly.
package lookup

import (
	"context"
	"log/slog"
	"time"
	_ "time/tzdata" // Europe/London on hosts without zoneinfo

	"github.com/WessleyAI/vesbot/engine/aggregate"
	"github.com/WessleyAI/vesbot/engine/domain"
	"github.com/WessleyAI/vesbot/engine/report"
	"github.com/WessleyAI/vesbot/pkg/metrics"
	"github.com/golang-sql/civil"
	"github.com/google/uuid"
)

const inFlightGauge = "vesbot_lookups_in_flight"

// Fetcher fetches the merged provider data for a registration.
type Fetcher interface {
	FetchAll(ctx context.Context, reg domain.Registration) (*aggregate.Result, error)
}

// Service answers lookups.
type Service struct {
	fetcher  Fetcher
	logger   *slog.Logger
	now      func() time.Time
	location *time.Location
	inFlight *metrics.Gauge
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(s *Service) { s.logger = l } }

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithMetrics tracks in-flight lookups in reg.
func WithMetrics(reg *metrics.Registry) Option {
	return func(s *Service) { s.inFlight = reg.Gauge(inFlightGauge, "Lookups in progress") }
}

// New creates a Service. Dates are judged in UK local time.
func New(fetcher Fetcher, opts ...Option) *Service {
	s := &Service{fetcher: fetcher, logger: slog.Default(), now: time.Now, location: london()}
	for _, o := range opts {
		o(s)
	}
	return s
}

func london() *time.Location {
	loc, err := time.LoadLocation("Europe/London")
	if err != nil {
		return time.UTC
	}
	return loc
}

// Today is the current UK calendar date.
func (s *Service) Today() civil.Date {
	return civil.DateOf(s.now().In(s.location))
}

// Lookup validates raw, queries every provider and builds the report.
// Invalid input fails with a *domain.ValidationError before any provider
// is called; a lookup where every provider fails returns an error matching
// domain.ErrNoDataAvailable.
func (s *Service) Lookup(ctx context.Context, raw string) (*report.Report, error) {
	reg, err := domain.ParseRegistration(raw)
	if err != nil {
		s.logger.Info("registration rejected", "input", raw)
		return nil, err
	}

	if s.inFlight != nil {
		s.inFlight.Inc()
		defer s.inFlight.Dec()
	}

	id := uuid.NewString()
	format, _ := domain.PlateFormat(reg.String())
	logger := s.logger.With("lookup_id", id, "registration", reg.String())
	logger.Debug("lookup started", "plate_format", format)

	res, err := s.fetcher.FetchAll(ctx, reg)
	if err != nil {
		logger.Warn("lookup failed", "err", err)
		return nil, err
	}

	r := report.Build(res, s.Today())
	r.LookupID = id
	logger.Info("lookup complete", "sources", len(r.Sources), "status", r.Facts.Status.Label)
	return r, nil
}
