package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Исходы операций
const (
	OutcomeSuccess            = "success"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeRejected           = "rejected"
	OutcomeUnavailable        = "unavailable"
	OutcomeError              = "error"
)

// BusinessMetrics records authentication outcomes.
type BusinessMetrics interface {
	// RecordOperation counts one register or login attempt and its duration
	RecordOperation(ctx context.Context, operation, outcome string, duration time.Duration)

	// RecordTokenRejection counts a bearer token refused by the validator
	RecordTokenRejection(ctx context.Context, reason string)
}

type businessMetrics struct {
	operations metric.Int64Counter
	durations  metric.Float64Histogram
	rejections metric.Int64Counter
}

// NewBusinessMetrics creates instruments on the given meter provider
func NewBusinessMetrics(meterProvider metric.MeterProvider, namespace string) (BusinessMetrics, error) {
	meter := meterProvider.Meter(namespace)

	operations, err := meter.Int64Counter(
		fmt.Sprintf("%s_auth_operations_total", namespace),
		metric.WithDescription("Total number of register and login attempts"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create operation counter: %w", err)
	}

	durations, err := meter.Float64Histogram(
		fmt.Sprintf("%s_auth_operation_duration_seconds", namespace),
		metric.WithDescription("Duration of register and login attempts in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	rejections, err := meter.Int64Counter(
		fmt.Sprintf("%s_token_rejections_total", namespace),
		metric.WithDescription("Total number of rejected bearer tokens"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rejection counter: %w", err)
	}

	return &businessMetrics{
		operations: operations,
		durations:  durations,
		rejections: rejections,
	}, nil
}

func (b *businessMetrics) RecordOperation(ctx context.Context, operation, outcome string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	)
	b.operations.Add(ctx, 1, attrs)
	b.durations.Record(ctx, duration.Seconds(), attrs)
}

func (b *businessMetrics) RecordTokenRejection(ctx context.Context, reason string) {
	b.rejections.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// NoOp is used when metrics are disabled
type NoOp struct{}

func (NoOp) RecordOperation(context.Context, string, string, time.Duration) {}

func (NoOp) RecordTokenRejection(context.Context, string) {}
