package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "shogun"

// StartPromotionSpan starts a span for promoting an onboarding application.
func StartPromotionSpan(ctx context.Context, applicationID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "onboarding.promote",
		trace.WithAttributes(attribute.String("onboarding.id", applicationID)),
	)
}

// StartVerifySpan starts a span for verifying an onboarding application.
func StartVerifySpan(ctx context.Context, applicationID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "onboarding.verify",
		trace.WithAttributes(attribute.String("onboarding.id", applicationID)),
	)
}

// StartStepSpan starts a child span for one provisioning step.
func StartStepSpan(ctx context.Context, step, schema string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "provision."+step,
		trace.WithAttributes(attribute.String("tenant.schema", schema)),
	)
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
