// Package mopentelemetry provides the tracing accessor the HTTP and gRPC
// telemetry middleware use to open one span per request (spec §2
// Observability); Store calls, GraphEngine traversals, and Pipeline stages
// get no spans of their own. The metrics exporter is an explicit external collaborator
// (spec §1); this package only wires the tracer half of the SDK.
package mopentelemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/elder-platform/elder/common"
)

// Telemetry names the service for the global tracer and carries the
// correlation-id propagator used across the HTTP/RPC boundary.
type Telemetry struct {
	LibraryName    string
	ServiceName    string
	ServiceVersion string
	DeploymentEnv  string
}

// InitializeTelemetry installs the global composite text-map propagator
// (trace-context + baggage) and returns a Telemetry bound to LibraryName;
// span creation always goes through otel.Tracer(tl.LibraryName), so no
// process-wide TracerProvider needs to be installed for this core to emit
// spans to whatever propagator/exporter the deployment wires in via the
// OTEL_* environment variables recognized by the otel SDK's autoconfigure
// hooks.
func (tl *Telemetry) InitializeTelemetry() *Telemetry {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return tl
}

// Tracer returns the named tracer for this service.
//
//nolint:ireturn
func (tl *Telemetry) Tracer() trace.Tracer {
	return otel.Tracer(tl.LibraryName)
}

// StartSpan starts a span named operation under the given context, tagging
// it with tenant_id and correlation_id when present.
func StartSpan(ctx context.Context, tracer trace.Tracer, operation, correlationID, tenantID string) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, operation)

	if correlationID != "" {
		span.SetAttributes(attribute.String("correlation_id", correlationID))
	}

	if tenantID != "" {
		span.SetAttributes(attribute.String("tenant_id", tenantID))
	}

	return ctx, span
}

// SetSpanAttributesFromStruct serializes valueStruct to JSON and attaches it
// as a span attribute under key.
func SetSpanAttributesFromStruct(span trace.Span, key string, valueStruct any) error {
	vStr, err := common.StructToJSONString(valueStruct)
	if err != nil {
		return err
	}

	span.SetAttributes(attribute.String(key, vStr))

	return nil
}

// HandleSpanError records err on span and marks its status as an error.
func HandleSpanError(span trace.Span, message string, err error) {
	span.SetStatus(codes.Error, message+": "+err.Error())
	span.RecordError(err)
}
