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
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/AleutianAI/kernelsearch/kernel"
	"github.com/AleutianAI/kernelsearch/trace"
)

// Observer is invoked once per iteration with the chain's current state
// before the iteration's moves. Observers must treat the passed values
// as read-only.
type Observer func(iteration int, tree kernel.Node, noise, logProb float64)

// Result is the final state of one chain.
type Result struct {
	RunID             string
	Tree              kernel.Node
	Noise             float64
	LogProb           float64
	Iterations        int
	StructuralAccepts int
	NoiseAccepts      int

	// Trace is the chain's final trace, for predictive evaluation.
	Trace *trace.Trace
}

// Run executes the inference loop: initialize a trace consistent with
// ys, then per iteration invoke the observer, apply one structural MH
// step, and apply one noise MH step. The draw order within an iteration
// (node pick, subtree samples, accept draw, noise sample, accept draw)
// is fixed, so a chain is fully determined by its seed.
//
// The context is checked between iterations; no mid-iteration
// cancellation points exist.
func (s *Sampler) Run(ctx context.Context, xs, ys []float64, iterations int, observer Observer) (*Result, error) {
	runID := uuid.NewString()
	ctx, span := s.tracer.StartRun(ctx, runID, iterations, len(xs))

	result, err := s.run(ctx, runID, xs, ys, iterations, observer)
	s.tracer.EndRun(span, result, err)
	return result, err
}

func (s *Sampler) run(ctx context.Context, runID string, xs, ys []float64, iterations int, observer Observer) (*Result, error) {
	t, err := s.Initialize(xs, ys)
	if err != nil {
		return nil, err
	}

	var structuralAccepts, noiseAccepts int
	for i := 0; i < iterations; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("inference interrupted at iteration %d: %w", i, err)
		}

		if observer != nil {
			observer(i, t.Root(), t.Noise(), t.LogProb())
		}

		next, accepted, err := s.StructuralStep(t)
		if err != nil {
			return nil, fmt.Errorf("iteration %d: %w", i, err)
		}
		if accepted {
			structuralAccepts++
		}
		t = next

		next, accepted, err = s.NoiseStep(t)
		if err != nil {
			return nil, fmt.Errorf("iteration %d: %w", i, err)
		}
		if accepted {
			noiseAccepts++
		}
		t = next

		s.metrics.recordState(t.NodeCount(), t.LogProb())
		if (i+1)%50 == 0 {
			s.logger.Debug("inference progress",
				slog.String("run_id", runID),
				slog.Int("iteration", i+1),
				slog.String("kernel", t.Root().String()),
				slog.Float64("noise", t.Noise()),
				slog.Float64("log_prob", t.LogProb()),
			)
		}
	}

	return &Result{
		RunID:             runID,
		Tree:              t.Root(),
		Noise:             t.Noise(),
		LogProb:           t.LogProb(),
		Iterations:        iterations,
		StructuralAccepts: structuralAccepts,
		NoiseAccepts:      noiseAccepts,
		Trace:             t,
	}, nil
}
