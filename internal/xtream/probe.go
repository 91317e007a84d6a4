// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package xtream

import (
	"context"
	"net/http"

	"github.com/ManuGH/chouftv/internal/fetch"
	"github.com/ManuGH/chouftv/internal/log"
	"github.com/ManuGH/chouftv/internal/metrics"
)

// DefaultFormat is returned when no candidate answers the probe.
const DefaultFormat = "m3u8"

// playerHeaders are the request headers the Android player is told to send.
var playerHeaders = map[string]string{
	"User-Agent": "ExoPlayer",
	"Accept":     "*/*",
	"Connection": "keep-alive",
}

// Playback describes the stream URL a client should open for a live channel.
type Playback struct {
	StreamURL     string            `json:"stream_url"`
	Format        string            `json:"format"`
	AlternateURLs map[string]string `json:"alternate_urls"`
	Headers       map[string]string `json:"headers"`
}

// streamCandidate is one live URL variant to test.
type streamCandidate struct {
	Format string
	URL    string
}

// buildCandidates lists the live URL variants in order of preference.
func (c *Client) buildCandidates(streamID string) []streamCandidate {
	return []streamCandidate{
		{Format: "ts", URL: c.LiveURL(streamID, "ts")},
		{Format: "m3u8", URL: c.LiveURL(streamID, "m3u8")},
		{Format: "mp4", URL: c.LiveURL(streamID, "mp4")},
		{Format: "default", URL: c.LiveURL(streamID, "")},
	}
}

// ProbeLive tests the live URL variants with HEAD requests and returns the
// first one answering 200. When none does, the m3u8 URL is returned.
func (c *Client) ProbeLive(ctx context.Context, streamID string) Playback {
	logger := log.WithComponentFromContext(ctx, "xtream").With().
		Str(log.FieldStreamID, streamID).
		Logger()

	candidates := c.buildCandidates(streamID)
	alternates := make(map[string]string, len(candidates))
	for _, cand := range candidates {
		alternates[cand.Format] = cand.URL
	}
	headers := make(map[string]string, len(playerHeaders))
	for k, v := range playerHeaders {
		headers[k] = v
	}

	for _, cand := range candidates {
		if c.testEndpoint(ctx, cand) {
			logger.Info().
				Str(log.FieldEvent, "live.probe.hit").
				Str("format", cand.Format).
				Msg("detected live stream format")
			metrics.RecordLiveProbe(cand.Format, false)
			return Playback{StreamURL: cand.URL, Format: cand.Format, AlternateURLs: alternates, Headers: headers}
		}
	}

	logger.Warn().
		Str(log.FieldEvent, "live.probe.fallback").
		Msg("no live format answered, using m3u8 fallback")
	metrics.RecordLiveProbe(DefaultFormat, true)
	return Playback{StreamURL: alternates[DefaultFormat], Format: DefaultFormat, AlternateURLs: alternates, Headers: headers}
}

// testEndpoint reports whether a HEAD request answers 200 within the probe
// timeout.
func (c *Client) testEndpoint(ctx context.Context, cand streamCandidate) bool {
	res, err := c.fetcher.Fetch(ctx, cand.URL,
		fetch.WithMethod(http.MethodHead),
		fetch.WithTimeout(c.cfg.ProbeTimeout),
	)
	if err != nil {
		// err embeds the credentialed URL; log the format only.
		logger := log.WithComponentFromContext(ctx, "xtream")
		logger.Debug().
			Str("format", cand.Format).
			Msg("live format probe failed")
		return false
	}
	return res.Status == http.StatusOK
}
