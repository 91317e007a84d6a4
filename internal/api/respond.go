// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ManuGH/chouftv/internal/aggregate"
	"github.com/ManuGH/chouftv/internal/log"
)

// envelope is a JSON response body. Successful bodies always carry
// success=true plus a payload field named per route.
type envelope map[string]any

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSuccess(w http.ResponseWriter, body envelope) {
	body["success"] = true
	writeJSON(w, http.StatusOK, body)
}

// writeFailure writes {success:false, error, details}. extra fields (such as
// an empty payload list) are merged in.
func writeFailure(w http.ResponseWriter, code int, msg string, err error, extra ...envelope) {
	body := envelope{"success": false, "error": msg}
	if err != nil {
		body["details"] = err.Error()
	}
	for _, e := range extra {
		for k, v := range e {
			body[k] = v
		}
	}
	writeJSON(w, code, body)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, aggregate.ErrUnknownKey):
		return http.StatusNotFound
	case errors.Is(err, ErrPanelNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// fail logs err and writes the failure envelope with the mapped status.
func fail(w http.ResponseWriter, r *http.Request, event, msg string, err error, extra ...envelope) {
	code := statusFor(err)
	logger := log.WithComponentFromContext(r.Context(), "api")
	ev := logger.Error()
	if code < http.StatusInternalServerError {
		ev = logger.Warn()
	}
	ev.Err(err).Str(log.FieldEvent, event).Int(log.FieldStatus, code).Msg(msg)
	writeFailure(w, code, msg, err, extra...)
}
