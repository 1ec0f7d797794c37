package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"

	"github.com/elder-platform/elder/common/mopentelemetry"
)

// TelemetryMiddleware wraps inbound HTTP/RPC requests in a tracing span.
type TelemetryMiddleware struct {
	*mopentelemetry.Telemetry
}

// NewTelemetryMiddleware creates a new instance of TelemetryMiddleware.
func NewTelemetryMiddleware(tl *mopentelemetry.Telemetry) *TelemetryMiddleware {
	return &TelemetryMiddleware{tl}
}

// WithTelemetry starts a span named "<method> <path>" around the request.
func (tm *TelemetryMiddleware) WithTelemetry() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tracer := tm.Tracer()
		ctx, span := tracer.Start(c.UserContext(), c.Method()+" "+c.Route().Path)
		defer span.End()

		c.SetUserContext(ctx)

		if err := c.Next(); err != nil {
			mopentelemetry.HandleSpanError(span, "request failed", err)
			return err
		}

		return nil
	}
}

// WithTelemetryInterceptor is a gRPC interceptor that wraps each call in a
// tracing span.
func (tm *TelemetryMiddleware) WithTelemetryInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		tracer := tm.Tracer()
		ctx, span := tracer.Start(ctx, info.FullMethod)
		defer span.End()

		resp, err := handler(ctx, req)
		if err != nil {
			mopentelemetry.HandleSpanError(span, "gRPC request failed", err)
		}

		return resp, err
	}
}

// spanFromContext is a small helper kept for symmetry with the HTTP path;
// gRPC interceptors above always end their own span via defer.
func spanFromContext(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}
