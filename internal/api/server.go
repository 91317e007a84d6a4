// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package api serves the gateway's HTTP routes.
package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ManuGH/chouftv/internal/aggregate"
	"github.com/ManuGH/chouftv/internal/api/middleware"
	"github.com/ManuGH/chouftv/internal/config"
	"github.com/ManuGH/chouftv/internal/fetch"
	"github.com/ManuGH/chouftv/internal/health"
	"github.com/ManuGH/chouftv/internal/library"
	"github.com/ManuGH/chouftv/internal/reachability"
	"github.com/ManuGH/chouftv/internal/xtream"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ErrPanelNotConfigured is returned by the Xtream routes when no panel URL
// is configured.
var ErrPanelNotConfigured = errors.New("xtream panel not configured")

// Deps are the collaborators of a Server.
type Deps struct {
	Holder  *config.Holder
	Fetcher fetch.Fetcher
	Health  *health.Manager
	Version string

	// Prober replaces the default reachability checker.
	Prober aggregate.Prober
	// TracingService enables request spans when set.
	TracingService string
}

// Server holds no per-request state. Every handler takes one configuration
// snapshot at entry and builds its aggregator or library from it.
type Server struct {
	deps Deps
}

// New creates a Server.
func New(deps Deps) *Server {
	if deps.Health == nil {
		deps.Health = health.NewManager(deps.Version)
	}
	return &Server{deps: deps}
}

func (s *Server) aggregator(cfg config.AppConfig) *aggregate.Aggregator {
	prober := s.deps.Prober
	if prober == nil {
		prober = reachability.New(s.deps.Fetcher, cfg.Fetch.ProbeTimeout)
	}
	return aggregate.New(s.deps.Fetcher, prober, aggregate.Options{
		Concurrency: cfg.Fetch.Concurrency,
		Timeout:     cfg.Fetch.Timeout,
	})
}

func (s *Server) library(cfg config.AppConfig) (*library.Library, error) {
	if strings.TrimSpace(cfg.Xtream.ServerURL) == "" {
		return nil, ErrPanelNotConfigured
	}
	panel := xtream.New(s.deps.Fetcher, cfg.Xtream.ClientConfig(cfg.Fetch.ProbeTimeout))
	return library.New(panel, cfg.Fetch.Concurrency), nil
}

// Handler builds the router. Middleware settings come from the snapshot
// current at build time; route behaviour follows later reloads.
func (s *Server) Handler() http.Handler {
	cfg := s.deps.Holder.Get()

	r := middleware.NewRouter(middleware.StackConfig{
		EnableCORS:            true,
		AllowedOrigins:        cfg.CORSOrigins,
		EnableSecurityHeaders: true,
		EnableMetrics:         true,
		TracingService:        s.deps.TracingService,
		EnableLogging:         true,
	})

	r.Get("/healthz", s.deps.Health.ServeHealth)
	r.Get("/readyz", s.deps.Health.ServeReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		if cfg.RateLimit.Enabled && cfg.RateLimit.RequestsPerMinute > 0 {
			r.Use(middleware.APIRateLimit(cfg.RateLimit.RequestsPerMinute))
		}

		r.Get("/channels", s.handleLiveChannels)
		r.Get("/live/{stream_id}", s.handleLive)
		r.Get("/movies", s.handleMovies)
		r.Get("/films", s.handleFilms)
		r.Get("/vod", s.handleVOD)
		r.Get("/series", s.handleSeries)

		r.Get("/iptv-org/channels", s.handleIPTVOrgChannels)
		r.Get("/iptv-org/channels.m3u", s.handleIPTVOrgPlaylist)
		r.Get("/iptv-org/channels/{dimension}/{key}", s.handleIPTVOrgDimension)

		r.Get("/channels/all", s.handleAllChannels)
		r.Get("/channels/structure", s.handleStructure)
		r.Get("/channels/countries", s.handleCountries)
		r.Get("/channels/default", s.handleDefaultChannels)
		r.Get("/channels/{type}/{category}", s.handleChannelsByType)

		r.Get("/m3u/sports", s.handleSports)

		r.Get("/version", s.handleVersion)
		r.Get("/notifications", s.handleNotifications)

		r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
			writeFailure(w, http.StatusNotFound, "Not found", nil)
		})
	})

	r.Handle("/downloads/*", s.staticFiles("/downloads", func(c config.AppConfig) string { return c.App.DownloadsDir }))
	r.Handle("/*", s.staticFiles("", func(c config.AppConfig) string { return c.App.PublicDir }))

	return r
}
