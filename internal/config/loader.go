// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrUnknownConfigField classifies strict parse failures caused by unknown keys.
var ErrUnknownConfigField = errors.New("unknown config field")

// Loader merges defaults, an optional file and environment overrides.
type Loader struct {
	configPath string
	version    string

	// ConsumedEnvKeys records the variables that were set during the last Load.
	ConsumedEnvKeys map[string]struct{}
}

// NewLoader creates a loader. An empty path means environment-only.
func NewLoader(configPath, version string) *Loader {
	return &Loader{configPath: configPath, version: version}
}

// Version returns the build version the loader was created with.
func (l *Loader) Version() string { return l.version }

// Path returns the config file path, possibly empty.
func (l *Loader) Path() string { return l.configPath }

// Load builds the configuration: defaults, then file, then environment,
// then validation.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()
	l.ConsumedEnvKeys = make(map[string]struct{})

	if l.configPath != "" {
		if err := l.loadFile(l.configPath, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	l.mergeEnv(&cfg)

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Defaults returns the built-in configuration.
func Defaults() AppConfig {
	return AppConfig{
		Listen:   ":3000",
		LogLevel: "info",
		Xtream: XtreamConfig{
			Timeout:      60 * time.Second,
			AuthAttempts: 3,
			AuthBackoff:  2 * time.Second,
		},
		Fetch: FetchConfig{
			Timeout:          30 * time.Second,
			ProbeTimeout:     5 * time.Second,
			Concurrency:      8,
			BreakerThreshold: 5,
			BreakerReset:     30 * time.Second,
		},
		App: AppInfo{
			APKVersion:   "1.0.0",
			DownloadsDir: "downloads",
			PublicDir:    "public",
		},
		CORSOrigins: []string{"*"},
		RateLimit:   RateLimitConfig{Enabled: true, RequestsPerMinute: 600},
		Tracing: TracingConfig{
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
		},
	}
}

// loadFile decodes path over cfg. Unknown keys are rejected. JSON files are
// accepted since JSON is a subset of YAML.
func (l *Loader) loadFile(path string, cfg *AppConfig) error {
	path = filepath.Clean(path)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml", ".json":
	default:
		return fmt.Errorf("unsupported config format: %s", ext)
	}

	// #nosec G304 -- the path is provided by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if strings.Contains(err.Error(), "not found in type") {
			return fmt.Errorf("strict config parse error: %w: %w", ErrUnknownConfigField, err)
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("config file contains multiple documents or trailing content")
	}
	return nil
}

func (l *Loader) lookup(key string) bool {
	v, ok := os.LookupEnv(key)
	if ok && v != "" {
		l.ConsumedEnvKeys[key] = struct{}{}
		return true
	}
	return false
}

func (l *Loader) envString(name, def string) string {
	key := EnvPrefix + name
	l.lookup(key)
	return ParseString(key, def)
}

func (l *Loader) envInt(name string, def int) int {
	key := EnvPrefix + name
	l.lookup(key)
	return ParseInt(key, def)
}

func (l *Loader) envDuration(name string, def time.Duration) time.Duration {
	key := EnvPrefix + name
	l.lookup(key)
	return ParseDuration(key, def)
}

func (l *Loader) envBool(name string, def bool) bool {
	key := EnvPrefix + name
	l.lookup(key)
	return ParseBool(key, def)
}

// mergeEnv applies CHOUFTV_* overrides. PORT is honoured when no explicit
// listen address is given.
func (l *Loader) mergeEnv(cfg *AppConfig) {
	if !l.lookup(EnvPrefix+"LISTEN") && l.lookup("PORT") {
		cfg.Listen = ":" + strings.TrimPrefix(ParseString("PORT", ""), ":")
	}
	cfg.Listen = l.envString("LISTEN", cfg.Listen)
	cfg.LogLevel = strings.ToLower(l.envString("LOG_LEVEL", cfg.LogLevel))

	cfg.Xtream.ServerURL = l.envString("XTREAM_URL", cfg.Xtream.ServerURL)
	cfg.Xtream.Username = l.envString("XTREAM_USERNAME", cfg.Xtream.Username)
	cfg.Xtream.Password = l.envString("XTREAM_PASSWORD", cfg.Xtream.Password)

	cfg.Fetch.Timeout = l.envDuration("FETCH_TIMEOUT", cfg.Fetch.Timeout)
	cfg.Fetch.ProbeTimeout = l.envDuration("PROBE_TIMEOUT", cfg.Fetch.ProbeTimeout)
	cfg.Fetch.Concurrency = l.envInt("FETCH_CONCURRENCY", cfg.Fetch.Concurrency)
	cfg.Fetch.ProxyURL = l.envString("FETCH_PROXY", cfg.Fetch.ProxyURL)

	cfg.Tracing.Enabled = l.envBool("TRACING_ENABLED", cfg.Tracing.Enabled)
	cfg.Tracing.Endpoint = l.envString("TRACING_ENDPOINT", cfg.Tracing.Endpoint)

	cfg.RateLimit.RequestsPerMinute = l.envInt("RATE_LIMIT_RPM", cfg.RateLimit.RequestsPerMinute)
}
