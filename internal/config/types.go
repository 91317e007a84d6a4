// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads the gateway configuration (defaults, then file, then
// environment) and keeps a hot-reloadable snapshot of it.
package config

import (
	"time"

	"github.com/ManuGH/chouftv/internal/fetch"
	"github.com/ManuGH/chouftv/internal/source"
	"github.com/ManuGH/chouftv/internal/xtream"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Dimensions maps a catalog dimension (languages, categories, countries) to
// its key → playlist URL table, both in file order.
type Dimensions = orderedmap.OrderedMap[string, *orderedmap.OrderedMap[string, string]]

// AppConfig is the fully merged configuration.
type AppConfig struct {
	Listen      string          `yaml:"listen"`
	LogLevel    string          `yaml:"log_level"`
	Xtream      XtreamConfig    `yaml:"xtream"`
	Fetch       FetchConfig     `yaml:"fetch"`
	Streaming   StreamingConfig `yaml:"streaming"`
	SportsM3U   SportsConfig    `yaml:"sports_m3u"`
	App         AppInfo         `yaml:"app"`
	CORSOrigins []string        `yaml:"cors_origins"`
	RateLimit   RateLimitConfig `yaml:"rate_limit"`
	Tracing     TracingConfig   `yaml:"tracing"`
}

// XtreamConfig addresses the upstream panel.
type XtreamConfig struct {
	ServerURL    string        `yaml:"server_url"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	Timeout      time.Duration `yaml:"timeout"`
	AuthAttempts int           `yaml:"auth_attempts"`
	AuthBackoff  time.Duration `yaml:"auth_backoff"`
}

// FetchConfig tunes outbound playlist requests.
type FetchConfig struct {
	Timeout       time.Duration `yaml:"timeout"`
	ProbeTimeout  time.Duration `yaml:"probe_timeout"`
	Concurrency   int           `yaml:"concurrency"`
	ProxyURL      string        `yaml:"proxy_url"`
	RatePerSecond float64       `yaml:"rate_per_second"`

	// BreakerThreshold consecutive transport failures open a host's
	// circuit for BreakerReset. 0 disables.
	BreakerThreshold int           `yaml:"breaker_threshold"`
	BreakerReset     time.Duration `yaml:"breaker_reset"`
}

type StreamingConfig struct {
	IPTVOrg IPTVOrgConfig `yaml:"iptv_org"`
}

type IPTVOrgConfig struct {
	Channels *Dimensions `yaml:"channels"`
}

// SportsConfig lists the sports playlists and the name keywords that mark a
// channel as sports.
type SportsConfig struct {
	Categories []string            `yaml:"categories"`
	Sources    []source.Descriptor `yaml:"sources"`
}

// AppInfo feeds the version and notification routes.
type AppInfo struct {
	APKVersion    string                                  `yaml:"apk_version"`
	DownloadsDir  string                                  `yaml:"downloads_dir"`
	PublicDir     string                                  `yaml:"public_dir"`
	Notifications *orderedmap.OrderedMap[string, string] `yaml:"notifications"`
}

type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
}

type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"`
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"sampling_rate"`
}

// Catalog returns the public playlist catalog in declaration order.
func (c AppConfig) Catalog() source.Catalog {
	return source.FromOrdered(c.Streaming.IPTVOrg.Channels)
}

// SportsSet returns the sports sources and keywords.
func (c AppConfig) SportsSet() source.SportsSet {
	return source.SportsSet{Keywords: c.SportsM3U.Categories, Sources: c.SportsM3U.Sources}
}

// ClientConfig converts to the fetch client settings.
func (f FetchConfig) ClientConfig(userAgent string) fetch.Config {
	return fetch.Config{
		Timeout:          f.Timeout,
		ProxyURL:         f.ProxyURL,
		RatePerSecond:    f.RatePerSecond,
		UserAgent:        userAgent,
		BreakerThreshold: f.BreakerThreshold,
		BreakerReset:     f.BreakerReset,
	}
}

// ClientConfig converts to the panel client settings.
func (x XtreamConfig) ClientConfig(probeTimeout time.Duration) xtream.Config {
	return xtream.Config{
		ServerURL:    x.ServerURL,
		Username:     x.Username,
		Password:     x.Password,
		Timeout:      x.Timeout,
		AuthAttempts: x.AuthAttempts,
		AuthBackoff:  x.AuthBackoff,
		ProbeTimeout: probeTimeout,
	}
}
