// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package xtream talks to an Xtream-Codes compatible panel through
// player_api.php.
package xtream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ManuGH/chouftv/internal/fetch"
	"github.com/ManuGH/chouftv/internal/log"
	"github.com/ManuGH/chouftv/internal/metrics"
	"github.com/ManuGH/chouftv/internal/telemetry"
)

// Action names understood by player_api.php.
const (
	ActionLiveCategories   = "get_live_categories"
	ActionLiveStreams      = "get_live_streams"
	ActionVODCategories    = "get_vod_categories"
	ActionVODStreams       = "get_vod_streams"
	ActionSeriesCategories = "get_series_categories"
	ActionSeries           = "get_series"
	ActionSeriesInfo       = "get_series_info"
)

// Config holds the panel location and credentials.
type Config struct {
	ServerURL    string
	Username     string
	Password     string
	Timeout      time.Duration
	AuthAttempts int
	AuthBackoff  time.Duration
	ProbeTimeout time.Duration
}

// Client is a stateless player_api client.
type Client struct {
	fetcher fetch.Fetcher
	cfg     Config
	base    string
}

// New returns a Client. The server URL is normalised to end with a slash so
// paths can be appended directly.
func New(f fetch.Fetcher, cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.AuthAttempts < 1 {
		cfg.AuthAttempts = 3
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = 5 * time.Second
	}
	if cfg.AuthBackoff < 0 {
		cfg.AuthBackoff = 0
	}
	base := strings.TrimSpace(cfg.ServerURL)
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return &Client{fetcher: f, cfg: cfg, base: base}
}

// BaseURL returns the normalised server URL, always ending with "/".
func (c *Client) BaseURL() string { return c.base }

func (c *Client) call(ctx context.Context, action string, extra url.Values) (body []byte, err error) {
	ctx, span := telemetry.Tracer("xtream").Start(ctx, "xtream.call")
	span.SetAttributes(telemetry.XtreamAttributes(action)...)
	defer func() {
		telemetry.RecordError(span, err, "xtream")
		span.End()
	}()

	q := url.Values{}
	q.Set("username", c.cfg.Username)
	q.Set("password", c.cfg.Password)
	if action != "" {
		q.Set("action", action)
	}
	for k, vs := range extra {
		for _, v := range vs {
			q.Add(k, v)
		}
	}

	res, err := c.fetcher.Fetch(ctx, c.base+"player_api.php", fetch.WithQuery(q), fetch.WithTimeout(c.cfg.Timeout))
	if err != nil {
		err = &Error{Sentinel: ErrUpstreamUnavailable, Action: action, Err: err}
		metrics.RecordXtreamRequest(action, err)
		return nil, err
	}
	if !res.OK() {
		err = &Error{Sentinel: ErrUpstreamStatus, Action: action, Status: res.Status}
		metrics.RecordXtreamRequest(action, err)
		return nil, err
	}
	metrics.RecordXtreamRequest(action, nil)
	return []byte(res.Body), nil
}

// Authenticate calls player_api.php without an action until the response
// carries user_info. Attempts are separated by a fixed backoff.
func (c *Client) Authenticate(ctx context.Context) (*UserInfo, error) {
	logger := log.WithComponentFromContext(ctx, "xtream")

	var lastErr error
	for attempt := 1; attempt <= c.cfg.AuthAttempts; attempt++ {
		info, err := c.authOnce(ctx)
		metrics.RecordAuthAttempt(err == nil)
		if err == nil {
			logger.Debug().
				Str(log.FieldEvent, "xtream.auth.ok").
				Int(log.FieldAttempt, attempt).
				Msg("authenticated")
			return info, nil
		}
		lastErr = err
		logger.Warn().Err(err).
			Str(log.FieldEvent, "xtream.auth.retry").
			Int(log.FieldAttempt, attempt).
			Int("max_attempts", c.cfg.AuthAttempts).
			Msg("authentication attempt failed")

		if attempt == c.cfg.AuthAttempts {
			break
		}
		if err := sleep(ctx, c.cfg.AuthBackoff); err != nil {
			return nil, &Error{Sentinel: ErrAuthFailed, Err: err}
		}
	}
	return nil, &Error{
		Sentinel: ErrAuthFailed,
		Detail:   fmt.Sprintf("gave up after %d attempts", c.cfg.AuthAttempts),
		Err:      lastErr,
	}
}

func (c *Client) authOnce(ctx context.Context) (*UserInfo, error) {
	body, err := c.call(ctx, "", nil)
	if err != nil {
		return nil, err
	}
	var resp struct {
		UserInfo *UserInfo `json:"user_info"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &Error{Sentinel: ErrBadResponse, Err: err}
	}
	if resp.UserInfo == nil {
		return nil, &Error{Sentinel: ErrBadResponse, Detail: "missing user_info"}
	}
	return resp.UserInfo, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// decodeList decodes a JSON array response. Anything else is ErrBadResponse
// naming the shape that was received.
func decodeList[T any](action string, body []byte) ([]T, error) {
	if shape := jsonShape(body); shape != "array" {
		return nil, &Error{Sentinel: ErrBadResponse, Action: action, Detail: "expected array, got " + shape}
	}
	var out []T
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &Error{Sentinel: ErrBadResponse, Action: action, Err: err}
	}
	return out, nil
}

func jsonShape(body []byte) string {
	b := bytes.TrimSpace(body)
	if len(b) == 0 {
		return "empty body"
	}
	switch b[0] {
	case '[':
		return "array"
	case '{':
		return "object"
	case '"':
		return "string"
	case 'n':
		return "null"
	case 't', 'f':
		return "boolean"
	default:
		return "number"
	}
}

func list[T any](ctx context.Context, c *Client, action string, extra url.Values) ([]T, error) {
	body, err := c.call(ctx, action, extra)
	if err != nil {
		return nil, err
	}
	return decodeList[T](action, body)
}

// categories maps category id to name, skipping incomplete rows.
func (c *Client) categories(ctx context.Context, action string) (map[string]string, error) {
	rows, err := list[Category](ctx, c, action, nil)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		if r.ID == "" || r.Name == "" {
			continue
		}
		out[r.ID.String()] = r.Name
	}
	return out, nil
}

// LiveCategories returns live category names keyed by id.
func (c *Client) LiveCategories(ctx context.Context) (map[string]string, error) {
	return c.categories(ctx, ActionLiveCategories)
}

// VODCategories returns VOD category names keyed by id.
func (c *Client) VODCategories(ctx context.Context) (map[string]string, error) {
	return c.categories(ctx, ActionVODCategories)
}

// SeriesCategories returns series category names keyed by id.
func (c *Client) SeriesCategories(ctx context.Context) (map[string]string, error) {
	return c.categories(ctx, ActionSeriesCategories)
}

// LiveStreams lists live channels.
func (c *Client) LiveStreams(ctx context.Context) ([]LiveStream, error) {
	return list[LiveStream](ctx, c, ActionLiveStreams, nil)
}

// VODStreams lists movies.
func (c *Client) VODStreams(ctx context.Context) ([]VODStream, error) {
	return list[VODStream](ctx, c, ActionVODStreams, nil)
}

// Series lists series.
func (c *Client) Series(ctx context.Context) ([]Series, error) {
	return list[Series](ctx, c, ActionSeries, nil)
}

// SeriesInfo returns the seasons and episodes of one series.
func (c *Client) SeriesInfo(ctx context.Context, seriesID string) (*SeriesInfo, error) {
	body, err := c.call(ctx, ActionSeriesInfo, url.Values{"series_id": {seriesID}})
	if err != nil {
		return nil, err
	}
	if shape := jsonShape(body); shape != "object" {
		return nil, &Error{Sentinel: ErrBadResponse, Action: ActionSeriesInfo, Detail: "expected object, got " + shape}
	}
	var info SeriesInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, &Error{Sentinel: ErrBadResponse, Action: ActionSeriesInfo, Err: err}
	}
	return &info, nil
}
