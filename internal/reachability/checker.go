// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package reachability pre-flights playlist sources before they are parsed.
package reachability

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/ManuGH/chouftv/internal/fetch"
	"github.com/ManuGH/chouftv/internal/log"
	"github.com/ManuGH/chouftv/internal/metrics"
	"github.com/ManuGH/chouftv/internal/source"
	"golang.org/x/sync/errgroup"
)

// DefaultTimeout bounds a single probe.
const DefaultTimeout = 5 * time.Second

// Marker must appear in the body of a valid playlist.
const Marker = "#EXTM3U"

// Checker probes sources. The zero value is not usable; use New.
type Checker struct {
	fetcher fetch.Fetcher
	timeout time.Duration
}

// New returns a Checker using f for probes. A non-positive timeout selects
// DefaultTimeout.
func New(f fetch.Fetcher, timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Checker{fetcher: f, timeout: timeout}
}

// Check reports whether src answers 200 with a body containing Marker.
// Failures are logged and reported as false, never returned.
func (c *Checker) Check(ctx context.Context, src source.Descriptor) bool {
	logger := log.WithComponentFromContext(ctx, "reachability")

	res, err := c.fetcher.Fetch(ctx, src.URL, fetch.WithTimeout(c.timeout))
	switch {
	case err != nil:
		logger.Warn().Err(err).
			Str(log.FieldEvent, "source.unreachable").
			Str(log.FieldSource, src.Name).
			Msg("source probe failed")
	case res.Status != http.StatusOK:
		logger.Warn().
			Str(log.FieldEvent, "source.unreachable").
			Str(log.FieldSource, src.Name).
			Int(log.FieldStatus, res.Status).
			Msg("source probe returned non-200 status")
	case !strings.Contains(res.Body, Marker):
		logger.Warn().
			Str(log.FieldEvent, "source.invalid").
			Str(log.FieldSource, src.Name).
			Msg("source body is not an M3U playlist")
	default:
		metrics.RecordReachability(true)
		return true
	}
	metrics.RecordReachability(false)
	return false
}

// Filter probes all sources in parallel and returns the reachable ones in
// their original order.
func (c *Checker) Filter(ctx context.Context, sources []source.Descriptor) []source.Descriptor {
	ok := make([]bool, len(sources))
	var g errgroup.Group
	for i, src := range sources {
		g.Go(func() error {
			ok[i] = c.Check(ctx, src)
			return nil
		})
	}
	_ = g.Wait()

	out := make([]source.Descriptor, 0, len(sources))
	for i, src := range sources {
		if ok[i] {
			out = append(out, src)
		}
	}
	return out
}
