// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package backend

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
	backendTracer = otel.Tracer("vuebridge.backend")
	backendMeter  = otel.Meter("vuebridge.backend")

	requestDuration metric.Float64Histogram
)

func init() {
	var err error
	requestDuration, err = backendMeter.Float64Histogram("backend.request.duration",
		metric.WithDescription("Backend request round trip duration in seconds"),
		metric.WithUnit("s"))
	if err != nil {
		slog.Warn("failed to create backend request histogram", slog.Any("error", err))
	}
}

func startLifecycleSpan(ctx context.Context, name, path string) (context.Context, trace.Span) {
	return backendTracer.Start(ctx, name,
		trace.WithAttributes(attribute.String("backend.path", path)))
}

func recordRequestMetrics(ctx context.Context, method string, elapsed time.Duration, success bool) {
	if requestDuration != nil {
		requestDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
			attribute.String("method", method),
			attribute.Bool("success", success),
		))
	}
}
