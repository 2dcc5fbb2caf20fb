package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span names.
const (
	SpanLoadSession = "load.session"
	SpanAssetLoad   = "asset.load"
)

// Span attribute keys.
const (
	AttrSessionID     attribute.Key = "session.id"
	AttrSessionTotal  attribute.Key = "session.total"
	AttrSessionFailed attribute.Key = "session.failed"

	AttrAssetName    attribute.Key = "asset.name"
	AttrAssetLocator attribute.Key = "asset.locator"
	AttrAssetKind    attribute.Key = "asset.kind"
	AttrAssetVariant attribute.Key = "asset.variant"

	AttrErrorMessage attribute.Key = "error.message"
)

// Event names.
const (
	EventSessionSealed  = "session.sealed"
	EventSessionSettled = "session.settled"
)

// RecordError marks span as failed with err. A nil err marks it OK.
func RecordError(span trace.Span, err error) {
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(AttrErrorMessage.String(err.Error()))
}
