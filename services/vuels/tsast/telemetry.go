// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package tsast

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
	tsastTracer = otel.Tracer("vuebridge.tsast")
	tsastMeter  = otel.Meter("vuebridge.tsast")

	parseCounter  metric.Int64Counter
	parseDuration metric.Float64Histogram
)

func init() {
	var err error
	parseCounter, err = tsastMeter.Int64Counter("tsast.parse.count",
		metric.WithDescription("Number of script parses"))
	if err != nil {
		slog.Warn("failed to create tsast parse counter", slog.Any("error", err))
	}
	parseDuration, err = tsastMeter.Float64Histogram("tsast.parse.duration",
		metric.WithDescription("Script parse duration in seconds"),
		metric.WithUnit("s"))
	if err != nil {
		slog.Warn("failed to create tsast parse histogram", slog.Any("error", err))
	}
}

func startParseSpan(ctx context.Context, filePath string, size int) (context.Context, trace.Span) {
	return tsastTracer.Start(ctx, "tsast.Parse",
		trace.WithAttributes(
			attribute.String("file.path", filePath),
			attribute.Int("file.size_bytes", size),
		))
}

func setParseSpanResult(span trace.Span, declCount int, hasError bool) {
	span.SetAttributes(
		attribute.Int("module.decl_count", declCount),
		attribute.Bool("module.has_error", hasError),
	)
}

func recordParseMetrics(ctx context.Context, elapsed time.Duration, ok bool) {
	attrs := metric.WithAttributes(attribute.Bool("ok", ok))
	if parseCounter != nil {
		parseCounter.Add(ctx, 1, attrs)
	}
	if parseDuration != nil {
		parseDuration.Record(ctx, elapsed.Seconds(), attrs)
	}
}
