package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "menuforge"

// StartProvisionSpan starts a span for a provisioning run.
func StartProvisionSpan(ctx context.Context, tenantName string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "provision",
		trace.WithAttributes(attribute.String("tenant.name", tenantName)),
	)
}

// StartStepSpan starts a span for one provisioning step.
func StartStepSpan(ctx context.Context, step, policy string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "provision.step",
		trace.WithAttributes(
			attribute.String("step.name", step),
			attribute.String("step.policy", policy),
		),
	)
}

// StartQRSpan starts a span for QR artifact generation.
func StartQRSpan(ctx context.Context, menuID, url string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "qr.generate",
		trace.WithAttributes(
			attribute.String("menu.id", menuID),
			attribute.String("qr.url", url),
		),
	)
}

// StartGeoLookupSpan starts a span for an external country lookup.
func StartGeoLookupSpan(ctx context.Context) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "geo.lookup")
}
