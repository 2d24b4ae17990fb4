package metrics

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// GatewayMetrics captures low-cardinality metrics for outbound provider calls.
type GatewayMetrics struct {
	callDuration metric.Float64Histogram
	inFlight     metric.Int64UpDownCounter
	retries      metric.Int64Counter
}

// NewGatewayMetrics creates provider call instruments on the global meter.
func NewGatewayMetrics(cfg Config) (*GatewayMetrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "wavepay"
	}
	meter := otel.GetMeterProvider().Meter(name + "/gateway")

	callDuration, err := meter.Float64Histogram("gateway.call.duration_ms")
	if err != nil {
		return nil, err
	}
	inFlight, err := meter.Int64UpDownCounter("gateway.call.in_flight")
	if err != nil {
		return nil, err
	}
	retries, err := meter.Int64Counter("gateway.call.retries")
	if err != nil {
		return nil, err
	}

	return &GatewayMetrics{
		callDuration: callDuration,
		inFlight:     inFlight,
		retries:      retries,
	}, nil
}

// CallStarted marks an outbound call in flight. The returned func records
// duration and status when the call finishes.
func (m *GatewayMetrics) CallStarted(ctx context.Context, operation string) func(status int) {
	if m == nil {
		return func(int) {}
	}
	opAttr := attribute.String("operation", operation)
	m.inFlight.Add(ctx, 1, metric.WithAttributes(FilterAttributes(opAttr)...))
	start := time.Now()
	return func(status int) {
		m.inFlight.Add(ctx, -1, metric.WithAttributes(FilterAttributes(opAttr)...))
		attrs := FilterAttributes(
			opAttr,
			attribute.String("status_code", strconv.Itoa(status)),
		)
		m.callDuration.Record(ctx, float64(time.Since(start).Milliseconds()), metric.WithAttributes(attrs...))
	}
}

// RetryRecorded counts one retried attempt for an operation.
func (m *GatewayMetrics) RetryRecorded(ctx context.Context, operation string) {
	if m == nil {
		return
	}
	m.retries.Add(ctx, 1, metric.WithAttributes(FilterAttributes(attribute.String("operation", operation))...))
}
