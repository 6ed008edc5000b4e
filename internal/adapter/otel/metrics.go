package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "menuforge"

// Metrics holds all MenuForge metric instruments.
type Metrics struct {
	ProvisionRuns     metric.Int64Counter
	ProvisionFailures metric.Int64Counter
	ProvisionDuration metric.Float64Histogram
	StepWarnings      metric.Int64Counter
	QRGenerated       metric.Int64Counter
	AuditFailures     metric.Int64Counter
	GeoLookups        metric.Int64Counter
	PublicCache       metric.Int64Counter
}

// NewMetrics creates all metric instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.ProvisionRuns, err = meter.Int64Counter("menuforge.provision.runs",
		metric.WithDescription("Number of provisioning runs started"))
	if err != nil {
		return nil, err
	}

	m.ProvisionFailures, err = meter.Int64Counter("menuforge.provision.failures",
		metric.WithDescription("Number of provisioning runs rolled back"))
	if err != nil {
		return nil, err
	}

	m.ProvisionDuration, err = meter.Float64Histogram("menuforge.provision.duration_seconds",
		metric.WithDescription("Provisioning run duration in seconds"))
	if err != nil {
		return nil, err
	}

	m.StepWarnings, err = meter.Int64Counter("menuforge.provision.step_warnings",
		metric.WithDescription("Non-fatal step failures by step name"))
	if err != nil {
		return nil, err
	}

	m.QRGenerated, err = meter.Int64Counter("menuforge.qr.generated",
		metric.WithDescription("QR artifacts generated"))
	if err != nil {
		return nil, err
	}

	m.AuditFailures, err = meter.Int64Counter("menuforge.audit.failures",
		metric.WithDescription("Audit writes that failed and were skipped"))
	if err != nil {
		return nil, err
	}

	m.GeoLookups, err = meter.Int64Counter("menuforge.geo.lookups",
		metric.WithDescription("Country detections by source"))
	if err != nil {
		return nil, err
	}

	m.PublicCache, err = meter.Int64Counter("menuforge.public.cache",
		metric.WithDescription("Public menu cache lookups by result"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// MustMetrics returns instruments or panics. The global no-op provider never
// fails, so this is safe in tests and before Setup.
func MustMetrics() *Metrics {
	m, err := NewMetrics()
	if err != nil {
		panic(err)
	}
	return m
}

// Count adds one to c with a single string attribute.
func Count(ctx context.Context, c metric.Int64Counter, key, value string) {
	c.Add(ctx, 1, metric.WithAttributes(attribute.String(key, value)))
}
