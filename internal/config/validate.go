// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"fmt"
	"strings"

	"github.com/ManuGH/chouftv/internal/validate"
)

var httpSchemes = []string{"http", "https"}

// Validate checks a merged configuration and reports every failure at once.
func Validate(cfg AppConfig) error {
	v := validate.New()

	v.ListenAddr("listen", cfg.Listen)
	v.OneOf("log_level", cfg.LogLevel, []string{"debug", "info", "warn", "error"})

	// The panel is optional; without it only the playlist routes work.
	if strings.TrimSpace(cfg.Xtream.ServerURL) != "" {
		v.URL("xtream.server_url", cfg.Xtream.ServerURL, httpSchemes)
		v.NotEmpty("xtream.username", cfg.Xtream.Username)
	}
	v.Duration("xtream.timeout", cfg.Xtream.Timeout)
	v.Positive("xtream.auth_attempts", cfg.Xtream.AuthAttempts)

	v.Duration("fetch.timeout", cfg.Fetch.Timeout)
	v.Duration("fetch.probe_timeout", cfg.Fetch.ProbeTimeout)
	v.Positive("fetch.concurrency", cfg.Fetch.Concurrency)
	if cfg.Fetch.BreakerThreshold < 0 {
		v.AddError("fetch.breaker_threshold", "must not be negative", cfg.Fetch.BreakerThreshold)
	}
	if cfg.Fetch.BreakerThreshold > 0 {
		v.Duration("fetch.breaker_reset", cfg.Fetch.BreakerReset)
	}
	v.NonNegative("fetch.rate_per_second", cfg.Fetch.RatePerSecond)
	if cfg.Fetch.ProxyURL != "" {
		v.URL("fetch.proxy_url", cfg.Fetch.ProxyURL, []string{"http", "https", "socks5", "socks5h"})
	}

	for _, g := range cfg.Catalog().Groups() {
		for _, d := range g.Sources {
			v.URL(fmt.Sprintf("streaming.iptv_org.channels.%s.%s", g.Dimension, d.Name), d.URL, httpSchemes)
		}
	}
	for i, d := range cfg.SportsM3U.Sources {
		v.URL(fmt.Sprintf("sports_m3u.sources[%d]", i), d.URL, httpSchemes)
	}

	if cfg.RateLimit.Enabled {
		v.Positive("rate_limit.requests_per_minute", cfg.RateLimit.RequestsPerMinute)
	}
	if cfg.Tracing.Enabled {
		v.OneOf("tracing.exporter", cfg.Tracing.Exporter, []string{"grpc", "http"})
		v.NotEmpty("tracing.endpoint", cfg.Tracing.Endpoint)
		v.Fraction("tracing.sampling_rate", cfg.Tracing.SamplingRate)
	}

	return v.Err()
}
