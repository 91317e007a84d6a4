// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID     = "request_id"
	FieldCorrelationID = "correlation_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Source / aggregation fields
	FieldSource    = "source"
	FieldSourceURL = "source_url"
	FieldDimension = "dimension"
	FieldKey       = "key"
	FieldChannels  = "channels"

	// Upstream fields
	FieldAttempt   = "attempt"
	FieldAction    = "action"
	FieldStreamID  = "stream_id"
	FieldStatus    = "status"
	FieldDuration  = "duration_ms"
	FieldRemoteIP  = "remote_ip"
	FieldUserAgent = "user_agent"
)
