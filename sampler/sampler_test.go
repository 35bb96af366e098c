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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/AleutianAI/kernelsearch/config"
	"github.com/AleutianAI/kernelsearch/gpdist"
	"github.com/AleutianAI/kernelsearch/kernel"
)

var (
	testXs = []float64{0, 1, 2}
	testYs = []float64{0.4, 0.55, 0.45}
)

func TestDimensionCorrection(t *testing.T) {
	// Moving from a 3-node tree to a 7-node tree must contribute
	// log(3) - log(7).
	assert.InDelta(t, math.Log(3.0/7.0), dimensionCorrection(3, 7), 1e-12)
	// Same size cancels; shrinking moves gain mass.
	assert.InDelta(t, 0, dimensionCorrection(5, 5), 1e-12)
	assert.InDelta(t, math.Log(7.0/3.0), dimensionCorrection(7, 3), 1e-12)
}

func TestInitialize(t *testing.T) {
	cfg := config.Default()
	s := New(cfg, gpdist.NewSource(1))

	tr, err := s.Initialize(testXs, testYs)
	require.NoError(t, err)

	assert.NotNil(t, tr.Root())
	assert.GreaterOrEqual(t, tr.NodeCount(), 1)
	assert.Greater(t, tr.Noise(), cfg.Grammar.NoiseFloor)
	assert.False(t, math.IsInf(tr.LogProb(), 0))
	assert.False(t, math.IsNaN(tr.LogProb()))
}

func TestStructuralStepRejectionLeavesTraceUntouched(t *testing.T) {
	cfg := config.Default()
	s := New(cfg, gpdist.NewSource(2))

	tr, err := s.Initialize(testXs, testYs)
	require.NoError(t, err)

	beforeTree := tr.Root().String()
	beforeNoise := tr.Noise()
	beforeLogProb := tr.LogProb()
	beforeCount := tr.NodeCount()

	// An impossible likelihood forces every proposal to be rejected.
	s.loglik = func(cov *mat.SymDense, noise float64, ys []float64) (float64, error) {
		return math.Inf(-1), nil
	}

	for i := 0; i < 20; i++ {
		next, accepted, err := s.StructuralStep(tr)
		require.NoError(t, err)
		assert.False(t, accepted)
		assert.Same(t, tr, next)
	}

	assert.Equal(t, beforeTree, tr.Root().String())
	assert.Equal(t, beforeNoise, tr.Noise())
	assert.Equal(t, beforeCount, tr.NodeCount())
	assert.InDelta(t, beforeLogProb, tr.LogProb(), 1e-12)
}

func TestStructuralStepRejectsNonPositiveDefinite(t *testing.T) {
	cfg := config.Default()
	s := New(cfg, gpdist.NewSource(3))

	tr, err := s.Initialize(testXs, testYs)
	require.NoError(t, err)

	// A factorization failure is a rejection, not a chain error.
	s.loglik = func(cov *mat.SymDense, noise float64, ys []float64) (float64, error) {
		return 0, gpdist.ErrNotPositiveDefinite
	}

	next, accepted, err := s.StructuralStep(tr)
	require.NoError(t, err)
	assert.False(t, accepted)
	assert.Same(t, tr, next)

	next, accepted, err = s.NoiseStep(tr)
	require.NoError(t, err)
	assert.False(t, accepted)
	assert.Same(t, tr, next)
}

func TestNoiseStepKeepsTreeFixed(t *testing.T) {
	cfg := config.Default()
	s := New(cfg, gpdist.NewSource(4))

	tr, err := s.Initialize(testXs, testYs)
	require.NoError(t, err)
	beforeTree := tr.Root().String()
	beforeCount := tr.NodeCount()

	for i := 0; i < 20; i++ {
		next, _, err := s.NoiseStep(tr)
		require.NoError(t, err)
		assert.Equal(t, beforeTree, next.Root().String())
		assert.Equal(t, beforeCount, next.NodeCount())
		assert.Greater(t, next.Noise(), cfg.Grammar.NoiseFloor)
		tr = next
	}
}

func TestAcceptDrawAlwaysConsumesStream(t *testing.T) {
	cfg := config.Default()

	a := New(cfg, gpdist.NewSource(5))
	b := New(cfg, gpdist.NewSource(5))

	// Guaranteed accept vs. guaranteed reject must advance the stream
	// identically.
	a.acceptDraw(math.Inf(1))
	b.acceptDraw(math.Inf(-1))
	assert.Equal(t, a.src.Float64(), b.src.Float64())
}

func TestChainIsReproduciblePerSeed(t *testing.T) {
	run := func(seed uint64) *Result {
		cfg := config.Default()
		cfg.Run.Seed = seed
		s := New(cfg, gpdist.NewSource(seed))
		res, err := s.Run(context.Background(), testXs, testYs, 30, nil)
		require.NoError(t, err)
		return res
	}

	a := run(7)
	b := run(7)
	assert.Equal(t, a.Tree.String(), b.Tree.String())
	assert.Equal(t, a.Noise, b.Noise)
	assert.Equal(t, a.LogProb, b.LogProb)
	assert.Equal(t, a.StructuralAccepts, b.StructuralAccepts)
	assert.Equal(t, a.NoiseAccepts, b.NoiseAccepts)
}

func TestRunEndToEnd(t *testing.T) {
	cfg := config.Default()
	s := New(cfg, gpdist.NewSource(11))

	var observed int
	observer := func(iteration int, tree kernel.Node, noise, logProb float64) {
		assert.Equal(t, observed, iteration)
		observed++

		// Every intermediate state is a valid draw from the model.
		require.NotNil(t, tree)
		assert.GreaterOrEqual(t, kernel.Size(tree), 1)
		assert.Greater(t, noise, cfg.Grammar.NoiseFloor)
		assert.False(t, math.IsNaN(logProb))
	}

	res, err := s.Run(context.Background(), testXs, testYs, 50, observer)
	require.NoError(t, err)

	assert.Equal(t, 50, observed)
	assert.Equal(t, 50, res.Iterations)
	assert.NotEmpty(t, res.RunID)
	assert.Greater(t, res.Noise, cfg.Grammar.NoiseFloor)
	assert.False(t, math.IsInf(res.LogProb, 0))
	assert.False(t, math.IsNaN(res.LogProb))
	require.NotNil(t, res.Trace)
	assert.Equal(t, kernel.Size(res.Tree), res.Trace.NodeCount())
}

func TestRunHonorsCancellation(t *testing.T) {
	cfg := config.Default()
	s := New(cfg, gpdist.NewSource(13))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Run(ctx, testXs, testYs, 50, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunChainsReturnsBest(t *testing.T) {
	cfg := config.Default()
	cfg.Run.Chains = 3
	cfg.Run.Iterations = 20
	cfg.Run.Seed = 17

	best, err := RunChains(context.Background(), cfg, testXs, testYs, ChainsOptions{})
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.NotNil(t, best.Tree)
	assert.False(t, math.IsNaN(best.LogProb))
}
