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

	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/kernelsearch/config"
	"github.com/AleutianAI/kernelsearch/gpdist"
)

// ChainsOptions configures a multi-chain run. Metrics and Observers are
// optional; the logger falls back to slog.Default().
type ChainsOptions struct {
	Logger  *slog.Logger
	Metrics *Metrics
	Tracer  *Tracer

	// Observers, when non-nil, supplies a per-chain observer.
	Observers func(chain int) Observer
}

// RunChains runs cfg.Run.Chains independent chains concurrently, each
// with its own sampler seeded from cfg.Run.Seed plus the chain index,
// and returns the chain result with the highest final joint
// log-probability. Chains share nothing but the (immutable) data and
// optional metrics.
func RunChains(ctx context.Context, cfg config.Config, xs, ys []float64, opts ChainsOptions) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	chains := cfg.Run.Chains
	results := make([]*Result, chains)

	g, ctx := errgroup.WithContext(ctx)
	for c := 0; c < chains; c++ {
		c := c
		g.Go(func() error {
			src := gpdist.NewSource(cfg.Run.Seed + uint64(c))
			chainLogger := logger.With(slog.Int("chain", c))

			samplerOpts := []Option{WithLogger(chainLogger)}
			if opts.Metrics != nil {
				samplerOpts = append(samplerOpts, WithMetrics(opts.Metrics))
			}
			if opts.Tracer != nil {
				samplerOpts = append(samplerOpts, WithTracer(opts.Tracer))
			}
			s := New(cfg, src, samplerOpts...)

			var observer Observer
			if opts.Observers != nil {
				observer = opts.Observers(c)
			}

			res, err := s.Run(ctx, xs, ys, cfg.Run.Iterations, observer)
			if err != nil {
				return fmt.Errorf("chain %d: %w", c, err)
			}
			results[c] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	best := results[0]
	for _, res := range results[1:] {
		if res.LogProb > best.LogProb {
			best = res
		}
	}
	logger.Info("chains complete",
		slog.Int("chains", chains),
		slog.String("best_run_id", best.RunID),
		slog.Float64("best_log_prob", best.LogProb),
	)
	return best, nil
}
