// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package renderer

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	rendererTracer = otel.Tracer("vuebridge.renderer")
	rendererMeter  = otel.Meter("vuebridge.renderer")

	initDuration  metric.Float64Histogram
	updateCounter metric.Int64Counter
)

func init() {
	var err error
	initDuration, err = rendererMeter.Float64Histogram("renderer.init.duration",
		metric.WithDescription("Projection scan and render duration in seconds"),
		metric.WithUnit("s"))
	if err != nil {
		slog.Warn("failed to create renderer init histogram", slog.Any("error", err))
	}
	updateCounter, err = rendererMeter.Int64Counter("renderer.update.count",
		metric.WithDescription("Number of incremental projection updates"))
	if err != nil {
		slog.Warn("failed to create renderer update counter", slog.Any("error", err))
	}
}

func startInitSpan(ctx context.Context, root string) (context.Context, trace.Span) {
	return rendererTracer.Start(ctx, "renderer.Init",
		trace.WithAttributes(attribute.String("project.root", root)))
}

func setInitSpanResult(span trace.Span, sources, passthrough int) {
	span.SetAttributes(
		attribute.Int("project.source_count", sources),
		attribute.Int("project.passthrough_count", passthrough),
	)
}

func recordInitMetrics(ctx context.Context, elapsed time.Duration, sources int) {
	if initDuration != nil {
		initDuration.Record(ctx, elapsed.Seconds(),
			metric.WithAttributes(attribute.Int("source_count", sources)))
	}
}

func recordUpdateMetrics(ctx context.Context, full bool, dependents int) {
	if updateCounter != nil {
		updateCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.Bool("full", full),
			attribute.Int("dependents", dependents),
		))
	}
}
