// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package xtream

import (
	"errors"
	"fmt"
)

var (
	// Sentinel errors for errors.Is checks at the boundary.
	ErrAuthFailed          = errors.New("xtream: authentication failed")
	ErrBadResponse         = errors.New("xtream: invalid response format")
	ErrUpstreamUnavailable = errors.New("xtream: host unreachable or transport failure")
	ErrUpstreamStatus      = errors.New("xtream: unexpected upstream status")
)

// Error wraps a sentinel with the player_api action that failed.
type Error struct {
	Sentinel error
	Action   string
	Status   int
	Detail   string
	Err      error // Nested lower-level error (e.g. net.Error)
}

func (e *Error) Error() string {
	action := e.Action
	if action == "" {
		action = "auth"
	}
	msg := fmt.Sprintf("%v (action=%s)", e.Sentinel, action)
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Sentinel}
	}
	return []error{e.Sentinel, e.Err}
}
