// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys shared by all spans.
const (
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"

	SourceDimensionKey = "source.dimension"
	SourceKeyKey       = "source.key"

	AggregatePathKey    = "aggregate.path"
	AggregateSourcesKey = "aggregate.sources"
	AggregateTotalKey   = "aggregate.total_channels"
	AggregateUniqueKey  = "aggregate.unique_channels"
	AggregateFailedKey  = "aggregate.failed_sources"

	XtreamActionKey = "xtream.action"
	XtreamItemsKey  = "xtream.items"

	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// HTTPAttributes describes a served request.
func HTTPAttributes(method, route string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// SourceAttributes identifies a playlist source; empty values are skipped.
func SourceAttributes(dimension, key string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 2)
	if dimension != "" {
		attrs = append(attrs, attribute.String(SourceDimensionKey, dimension))
	}
	if key != "" {
		attrs = append(attrs, attribute.String(SourceKeyKey, key))
	}
	return attrs
}

// AggregateAttributes summarises one aggregation run.
func AggregateAttributes(path string, sources, total, unique, failed int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AggregatePathKey, path),
		attribute.Int(AggregateSourcesKey, sources),
		attribute.Int(AggregateTotalKey, total),
		attribute.Int(AggregateUniqueKey, unique),
		attribute.Int(AggregateFailedKey, failed),
	}
}

// XtreamAttributes describes a panel call.
func XtreamAttributes(action string) []attribute.KeyValue {
	return []attribute.KeyValue{attribute.String(XtreamActionKey, action)}
}

// ErrorAttributes describes a failure; nil yields nothing.
func ErrorAttributes(err error, errorType string) []attribute.KeyValue {
	if err == nil {
		return nil
	}
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}

// RecordError marks span as failed when err is non-nil.
func RecordError(span trace.Span, err error, errorType string) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetAttributes(ErrorAttributes(err, errorType)...)
	span.SetStatus(codes.Error, err.Error())
}
