package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/WessleyAI/vesbot/engine/domain"
	"github.com/WessleyAI/vesbot/engine/report"
	"github.com/WessleyAI/vesbot/pkg/mid"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the lookup HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger := newLogger(os.Stdout)
		return serve(cmd.Context(), loadConfig(), logger)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// looker is the part of lookup.Service the handlers need.
type looker interface {
	Lookup(ctx context.Context, raw string) (*report.Report, error)
}

func serve(parent context.Context, cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.MetricsPort != "" {
		go func() {
			if err := a.metrics.Serve(ctx, ":"+cfg.MetricsPort); err != nil {
				logger.Error("metrics server failed", "err", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      newRouter(a.svc, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "port", cfg.Port, "metrics_port", cfg.MetricsPort)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

func newRouter(svc looker, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("GET /api/vehicles/{registration}", handleVehicle(svc, logger))

	return mid.Chain(mux,
		mid.Recover(logger),
		mid.RequestID(),
		mid.Logger(logger),
		mid.OTel("vesbot"),
	)
}

// --- Handlers ---

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Error        string `json:"error"`
	Registration string `json:"registration,omitempty"`
}

func handleVehicle(svc looker, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.PathValue("registration")

		// A lookup runs to completion even if the client goes away.
		rep, err := svc.Lookup(context.WithoutCancel(r.Context()), raw)
		switch {
		case errors.Is(err, domain.ErrInvalidRegistration):
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "registration failed validation", Registration: domain.Sanitise(raw)})
		case errors.Is(err, domain.ErrNoDataAvailable):
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "vehicle not found", Registration: domain.Sanitise(raw)})
		case err != nil:
			logger.Error("lookup failed", "err", err, "request_id", mid.RequestIDFrom(r.Context()))
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		default:
			writeJSON(w, http.StatusOK, rep)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
