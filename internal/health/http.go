package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Proton-105/kino-bot/pkg/logger"
)

const probeTimeout = 3 * time.Second

// Probes answers the liveness and readiness endpoints.
type Probes interface {
	Liveness(ctx context.Context) error
	Readiness(ctx context.Context) error
}

// RouterOptions configures the HTTP surface of the bot.
type RouterOptions struct {
	Probes  Probes
	Checker *Checker
	// Webhook receives Telegram updates at WebhookPath when set.
	Webhook     http.Handler
	WebhookPath string
	// AccessLog wraps every request, e.g. with the request logging middleware.
	AccessLog func(http.Handler) http.Handler
	Log       *slog.Logger
}

// NewRouter mounts /healthz, /readyz, /metrics and the optional webhook.
func NewRouter(opts RouterOptions) http.Handler {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(logger.CorrelationMiddleware)
	if opts.AccessLog != nil {
		r.Use(opts.AccessLog)
	}

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), probeTimeout)
		defer cancel()

		if opts.Probes != nil {
			if err := opts.Probes.Liveness(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": err.Error()})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
	})

	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), probeTimeout)
		defer cancel()

		if opts.Probes != nil {
			if err := opts.Probes.Readiness(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": err.Error()})
				return
			}
		}

		var results map[string]string
		if opts.Checker != nil {
			results = opts.Checker.Check(ctx)
		}
		status := http.StatusOK
		if !Healthy(results) {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, map[string]any{"checks": results})
	})

	r.Handle("/metrics", promhttp.Handler())

	if opts.Webhook != nil {
		path := opts.WebhookPath
		if path == "" {
			path = "/telegram/webhook"
		}
		r.Post(path, opts.Webhook.ServeHTTP)
		log.Info("telegram webhook mounted", slog.String("path", path))
	}

	return r
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
