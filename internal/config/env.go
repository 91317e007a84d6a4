// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ManuGH/chouftv/internal/log"
	"github.com/rs/zerolog"
)

// EnvPrefix namespaces every override variable.
const EnvPrefix = "CHOUFTV_"

func isSensitive(key string) bool {
	k := strings.ToLower(key)
	return strings.Contains(k, "password") || strings.Contains(k, "token") || strings.Contains(k, "proxy")
}

// parseEnv reads key and converts it with parse. Empty and unparseable
// values fall back to def; every decision is logged with its source.
func parseEnv[T any](key string, def T, parse func(string) (T, error)) T {
	logger := log.WithComponent("config")
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		logger.Debug().
			Str(log.FieldKey, key).
			Str("source", "default").
			Msg("using default value")
		return def
	}
	parsed, err := parse(v)
	if err != nil {
		logger.Warn().
			Err(err).
			Str(log.FieldKey, key).
			Interface("default", def).
			Msg("invalid value in environment variable, using default")
		return def
	}
	ev := logger.Debug().Str(log.FieldKey, key).Str("source", "environment")
	logValue(ev, key, parsed)
	ev.Msg("using environment variable")
	return parsed
}

func logValue[T any](ev *zerolog.Event, key string, v T) {
	if isSensitive(key) {
		ev.Bool("sensitive", true)
		return
	}
	ev.Interface("value", v)
}

// ParseString reads a string variable or returns defaultValue.
func ParseString(key, defaultValue string) string {
	return parseEnv(key, defaultValue, func(s string) (string, error) { return s, nil })
}

// ParseInt reads an integer variable or returns defaultValue.
func ParseInt(key string, defaultValue int) int {
	return parseEnv(key, defaultValue, strconv.Atoi)
}

// ParseDuration reads a Go duration ("5s") or returns defaultValue.
func ParseDuration(key string, defaultValue time.Duration) time.Duration {
	return parseEnv(key, defaultValue, time.ParseDuration)
}

// ParseBool reads a boolean (strconv syntax) or returns defaultValue.
func ParseBool(key string, defaultValue bool) bool {
	return parseEnv(key, defaultValue, strconv.ParseBool)
}

// ParseFloat reads a float or returns defaultValue.
func ParseFloat(key string, defaultValue float64) float64 {
	return parseEnv(key, defaultValue, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
}
