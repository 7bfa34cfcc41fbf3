// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package classify

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	AttrStrategy = "acmplay.classify.strategy"
	AttrReason   = "acmplay.classify.reason"
)

// Observe records the decision as a counter and on the current span.
func Observe(ctx context.Context, d Decision) {
	meter := otel.GetMeterProvider().Meter("acmplay.classify")
	total, err := meter.Int64Counter("acmplay_classify_total", metric.WithDescription("Total source classifications"))
	if err == nil {
		total.Add(ctx, 1, metric.WithAttributes(
			attribute.String("strategy", d.Strategy.String()),
			attribute.String("reason", string(d.Reason)),
		))
	}

	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String(AttrStrategy, d.Strategy.String()),
		attribute.String(AttrReason, string(d.Reason)),
	)
}

// DecideObserved runs Decide and records the outcome.
func DecideObserved(ctx context.Context, rawURL string, caps Capabilities) Decision {
	d := Decide(rawURL, caps)
	Observe(ctx, d)
	return d
}
