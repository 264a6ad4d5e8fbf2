// SPDX-License-Identifier: MIT

// Package api exposes the HTTP surface: upload-and-transcribe, segment
// read/replace, burn, and the operational endpoints.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/feldrik/lyricburn/internal/config"
	"github.com/feldrik/lyricburn/internal/render"
	"github.com/feldrik/lyricburn/internal/store"
	"github.com/feldrik/lyricburn/internal/transcribe"
)

// Burner is the burn collaborator. Satisfied by *render.Burner.
type Burner interface {
	Burn(ctx context.Context, req render.Request) ([]byte, error)
}

// Server holds the handler dependencies.
type Server struct {
	cfg    config.Config
	store  *store.Store
	engine transcribe.Engine
	burner Burner
}

// New creates a Server.
func New(cfg config.Config, st *store.Store, engine transcribe.Engine, burner Burner) *Server {
	return &Server{cfg: cfg, store: st, engine: engine, burner: burner}
}

// Routes builds the router with the full middleware stack.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(chimw.RequestID)
	r.Use(securityHeaders)
	r.Use(requestLogger)

	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		if rpm := s.cfg.RateLimitRPM; rpm > 0 {
			r.Use(httprate.Limit(rpm, time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
					writeErr(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
				}),
			))
		}
		if s.cfg.Tracing.Enabled {
			r.Use(func(next http.Handler) http.Handler {
				return otelhttp.NewHandler(next, "lyricburn.api")
			})
		}

		r.Post("/transcribe", s.handleTranscribe)
		r.Get("/video/{id}", s.handleVideo)
		r.Get("/segments/{id}", s.handleSegmentsGet)
		r.Put("/segments/{id}", s.handleSegmentsPut)
		r.Post("/burn", s.handleBurn)
	})

	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
