// SPDX-License-Identifier: MIT

// Package middleware holds the HTTP ingress middleware stack.
package middleware

import (
	"github.com/ManuGH/chouftv/internal/log"
	"github.com/go-chi/chi/v5"
)

// StackConfig selects the cross-cutting middlewares.
type StackConfig struct {
	EnableCORS     bool
	AllowedOrigins []string

	EnableSecurityHeaders bool
	CSP                   string

	EnableMetrics  bool
	TracingService string // empty disables tracing
	EnableLogging  bool

	EnableRateLimit       bool
	RateLimitRequestsPerM int
}

// NewRouter returns a chi router with the stack applied.
func NewRouter(cfg StackConfig) *chi.Mux {
	r := chi.NewRouter()
	ApplyStack(r, cfg)
	return r
}

// ApplyStack installs the middlewares in their fixed order.
func ApplyStack(r chi.Router, cfg StackConfig) {
	r.Use(Recoverer)
	r.Use(RequestID)
	if cfg.EnableCORS {
		r.Use(CORS(cfg.AllowedOrigins))
	}
	if cfg.EnableSecurityHeaders {
		r.Use(SecurityHeaders(cfg.CSP))
	}
	if cfg.EnableMetrics {
		r.Use(Metrics())
	}
	if cfg.TracingService != "" {
		r.Use(Tracing(cfg.TracingService))
	}
	if cfg.EnableLogging {
		r.Use(log.Middleware())
	}
	if cfg.EnableRateLimit && cfg.RateLimitRequestsPerM > 0 {
		r.Use(APIRateLimit(cfg.RateLimitRequestsPerM))
	}
}
