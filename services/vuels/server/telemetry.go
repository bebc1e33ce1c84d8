// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package server

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	serverTracer = otel.Tracer("vuebridge.server")
	serverMeter  = otel.Meter("vuebridge.server")

	requestCount metric.Int64Counter
)

func init() {
	var err error
	requestCount, err = serverMeter.Int64Counter(
		"server.request.count",
		metric.WithDescription("Editor requests handled, by method"),
	)
	if err != nil {
		slog.Warn("failed to create request counter", "error", err)
	}
}

// startRequestSpan opens a span for one editor request and counts it.
func startRequestSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	ctx, span := serverTracer.Start(ctx, name,
		trace.WithAttributes(attribute.String("request.name", name)),
	)
	if requestCount != nil {
		requestCount.Add(ctx, 1, metric.WithAttributes(attribute.String("request.name", name)))
	}
	return ctx, span
}
