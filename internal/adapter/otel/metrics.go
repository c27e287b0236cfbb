package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "shogun"

// Metrics holds the onboarding and provisioning instruments.
type Metrics struct {
	ApplicationsCreated metric.Int64Counter
	Verifications       metric.Int64Counter
	Promotions          metric.Int64Counter
	PromotionFailures   metric.Int64Counter
	PromotionDuration   metric.Float64Histogram
}

// NewMetrics creates all metric instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.ApplicationsCreated, err = meter.Int64Counter("shogun.onboarding.created",
		metric.WithDescription("Number of onboarding applications created"))
	if err != nil {
		return nil, err
	}

	m.Verifications, err = meter.Int64Counter("shogun.onboarding.verified",
		metric.WithDescription("Number of onboarding applications verified"))
	if err != nil {
		return nil, err
	}

	m.Promotions, err = meter.Int64Counter("shogun.tenants.provisioned",
		metric.WithDescription("Number of applications promoted to tenants"))
	if err != nil {
		return nil, err
	}

	m.PromotionFailures, err = meter.Int64Counter("shogun.promotions.failed",
		metric.WithDescription("Number of promotions rolled back"))
	if err != nil {
		return nil, err
	}

	m.PromotionDuration, err = meter.Float64Histogram("shogun.promotion.duration_seconds",
		metric.WithDescription("Promotion transaction duration in seconds"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordPromotion records the outcome of one promotion attempt. reason is
// empty on success.
func (m *Metrics) RecordPromotion(ctx context.Context, seconds float64, reason string) {
	if m == nil {
		return
	}
	m.PromotionDuration.Record(ctx, seconds)
	if reason == "" {
		m.Promotions.Add(ctx, 1)
		return
	}
	m.PromotionFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}
