// Package status serves health, metrics and a small JSON summary of the
// running machine spirit over HTTP.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"cogitator/internal/config"
	"cogitator/internal/storage"
)

type Lister interface {
	List(ctx context.Context, kind storage.Kind) ([]storage.Record, error)
}

type ProfileSource interface {
	Current() config.Profile
}

type Config struct {
	Addr        string
	HealthPath  string
	MetricsPath string
	Profiles    ProfileSource
	Records     Lister
	Gatherer    prometheus.Gatherer
	Logger      zerolog.Logger
	Started     time.Time
	Now         func() time.Time
}

type summary struct {
	Status      string         `json:"status"`
	Personality string         `json:"personality"`
	Model       string         `json:"model"`
	APIKeySet   bool           `json:"apiKeySet"`
	Uptime      string         `json:"uptime"`
	Records     map[string]int `json:"records"`
}

func NewHandler(cfg Config) http.Handler {
	if cfg.HealthPath == "" {
		cfg.HealthPath = "/healthz"
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Started.IsZero() {
		cfg.Started = cfg.Now()
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get(cfg.HealthPath, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, cfg.MetricsPath, promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	r.Get("/status", handleStatus(cfg))
	return r
}

func handleStatus(cfg Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out := summary{
			Status:  "ok",
			Uptime:  cfg.Now().Sub(cfg.Started).Truncate(time.Second).String(),
			Records: make(map[string]int, len(storage.Kinds)),
		}
		if cfg.Profiles != nil {
			p := cfg.Profiles.Current()
			out.Personality, out.Model, out.APIKeySet = p.Personality, p.Model, p.OpenRouterAPIKey != ""
		}
		code := http.StatusOK
		if cfg.Records != nil {
			for _, kind := range storage.Kinds {
				recs, err := cfg.Records.List(r.Context(), kind)
				if err != nil {
					cfg.Logger.Error().Err(err).Str("kind", string(kind)).Msg("status record count failed")
					out.Status, code = "degraded", http.StatusServiceUnavailable
					continue
				}
				out.Records[string(kind)] = len(recs)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(out)
	}
}

// Serve listens on cfg.Addr until ctx is cancelled, then shuts down.
func Serve(ctx context.Context, cfg Config) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewHandler(cfg),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		cfg.Logger.Info().Str("addr", cfg.Addr).Msg("status server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("status server: %w", err)
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("stop status server: %w", err)
	}
	return nil
}
