// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package sampler

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const tracerName = "kernelsearch.sampler"

// Tracer provides OpenTelemetry tracing for inference runs. Exporter
// and SDK setup belong to the embedding process; when tracing is
// disabled every span is a no-op.
//
// Thread Safety: Safe for concurrent use.
type Tracer struct {
	tracer  oteltrace.Tracer
	logger  *slog.Logger
	enabled bool
}

// NewTracer creates a tracer.
//
// Inputs:
//   - logger: Logger for structured logging (can be nil).
//   - enabled: Whether spans are emitted.
//
// Outputs:
//   - *Tracer: Tracer instance.
func NewTracer(logger *slog.Logger, enabled bool) *Tracer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracer{
		tracer:  otel.Tracer(tracerName),
		logger:  logger,
		enabled: enabled,
	}
}

// StartRun starts a span for one inference run.
//
// Outputs:
//   - context.Context: Context carrying the span.
//   - oteltrace.Span: The created span (no-op if tracing disabled).
func (t *Tracer) StartRun(ctx context.Context, runID string, iterations, observations int) (context.Context, oteltrace.Span) {
	if !t.enabled {
		return ctx, noop.Span{}
	}

	ctx, span := t.tracer.Start(ctx, "sampler.run",
		oteltrace.WithAttributes(
			attribute.String("sampler.run_id", runID),
			attribute.Int("sampler.iterations", iterations),
			attribute.Int("sampler.observations", observations),
		),
		oteltrace.WithSpanKind(oteltrace.SpanKindInternal),
	)

	t.logger.InfoContext(ctx, "inference run started",
		slog.String("run_id", runID),
		slog.Int("iterations", iterations),
		slog.Int("observations", observations),
	)

	return ctx, span
}

// EndRun completes the run span with the final chain state.
func (t *Tracer) EndRun(span oteltrace.Span, result *Result, err error) {
	if span == nil {
		return
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	if result != nil {
		span.SetAttributes(
			attribute.String("sampler.result.kernel", result.Tree.String()),
			attribute.Float64("sampler.result.noise", result.Noise),
			attribute.Float64("sampler.result.log_prob", result.LogProb),
			attribute.Int("sampler.result.structural_accepts", result.StructuralAccepts),
			attribute.Int("sampler.result.noise_accepts", result.NoiseAccepts),
		)
	}
	span.End()
}
