package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Tracer returns a tracer for the given name
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

// StartSpan starts a new span from context
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, name, opts...)
}

// StartServiceSpan starts a span for service operations
func StartServiceSpan(ctx context.Context, service, operation string) (context.Context, trace.Span) {
	return StartSpan(ctx, fmt.Sprintf("%s.%s", service, operation),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("service.component", service),
			attribute.String("service.operation", operation),
		),
	)
}

// RecordError records an error on the span
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSuccess marks the span as successful
func SetSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// AddEvent adds an event to the span
func AddEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// FleetMetrics holds custom fleet synchronization metrics
type FleetMetrics struct {
	connectedScreens metric.Int64UpDownCounter
	configPushes     metric.Int64Counter
	syncReports      metric.Int64Counter
	authAttempts     metric.Int64Counter
}

// NewFleetMetrics creates fleet metrics instruments
func NewFleetMetrics() (*FleetMetrics, error) {
	meter := otel.Meter(instrumentationName)

	connectedScreens, err := meter.Int64UpDownCounter(
		"signcast.screens.connected",
		metric.WithDescription("Number of screens with at least one live connection"),
		metric.WithUnit("{screens}"),
	)
	if err != nil {
		return nil, err
	}

	configPushes, err := meter.Int64Counter(
		"signcast.sync.config_pushes",
		metric.WithDescription("Total number of configuration pushes sent to screens"),
		metric.WithUnit("{pushes}"),
	)
	if err != nil {
		return nil, err
	}

	syncReports, err := meter.Int64Counter(
		"signcast.sync.status_reports",
		metric.WithDescription("Total number of asset sync status reports received"),
		metric.WithUnit("{reports}"),
	)
	if err != nil {
		return nil, err
	}

	authAttempts, err := meter.Int64Counter(
		"signcast.auth.attempts",
		metric.WithDescription("Total number of screen authentication attempts"),
		metric.WithUnit("{attempts}"),
	)
	if err != nil {
		return nil, err
	}

	return &FleetMetrics{
		connectedScreens: connectedScreens,
		configPushes:     configPushes,
		syncReports:      syncReports,
		authAttempts:     authAttempts,
	}, nil
}

// RecordScreenOnline records a screen coming online
func (m *FleetMetrics) RecordScreenOnline(ctx context.Context) {
	m.connectedScreens.Add(ctx, 1)
}

// RecordScreenOffline records a screen going offline
func (m *FleetMetrics) RecordScreenOffline(ctx context.Context) {
	m.connectedScreens.Add(ctx, -1)
}

// RecordConfigPush records a configuration push
func (m *FleetMetrics) RecordConfigPush(ctx context.Context, screenID, messageType string) {
	m.configPushes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("screen_id", screenID),
		attribute.String("message_type", messageType),
	))
}

// RecordSyncReport records an asset sync status report
func (m *FleetMetrics) RecordSyncReport(ctx context.Context, state string, accepted bool) {
	m.syncReports.Add(ctx, 1, metric.WithAttributes(
		attribute.String("state", state),
		attribute.Bool("accepted", accepted),
	))
}

// RecordAuthAttempt records a screen authentication attempt
func (m *FleetMetrics) RecordAuthAttempt(ctx context.Context, success bool) {
	m.authAttempts.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("success", success),
	))
}
