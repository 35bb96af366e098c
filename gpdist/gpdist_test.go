// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package gpdist

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestSourceIsReproducible(t *testing.T) {
	a := NewSource(11)
	b := NewSource(11)
	for i := 0; i < 50; i++ {
		assert.Equal(t, a.Float64(), b.Float64())
	}
}

func TestUniform(t *testing.T) {
	u := Uniform{Min: 0, Max: 1}
	src := NewSource(1)
	for i := 0; i < 100; i++ {
		v := u.Sample(src)
		require.GreaterOrEqual(t, v, 0.0)
		require.Less(t, v, 1.0)
		// Unit uniform has density 1 everywhere on its support.
		assert.InDelta(t, 0.0, u.LogProb(v), 1e-12)
	}
	assert.True(t, math.IsInf(u.LogProb(1.5), -1))
}

func TestGamma(t *testing.T) {
	g := Gamma{Shape: 1, Rate: 1}
	src := NewSource(2)
	for i := 0; i < 100; i++ {
		v := g.Sample(src)
		require.Greater(t, v, 0.0)
	}
	// Gamma(1, 1) is Exponential(1): log p(x) = -x.
	assert.InDelta(t, -0.5, g.LogProb(0.5), 1e-10)
	assert.InDelta(t, -2.0, g.LogProb(2.0), 1e-10)
}

func TestCategorical(t *testing.T) {
	c := Categorical{Weights: []float64{1, 3}}
	assert.InDelta(t, math.Log(0.25), c.LogProb(0), 1e-12)
	assert.InDelta(t, math.Log(0.75), c.LogProb(1), 1e-12)

	src := NewSource(3)
	counts := [2]int{}
	const draws = 8000
	for i := 0; i < draws; i++ {
		k := c.Sample(src)
		require.True(t, k == 0 || k == 1)
		counts[k]++
	}
	assert.InDelta(t, draws/4, counts[0], 200)
	assert.InDelta(t, 3*draws/4, counts[1], 200)
}

func TestMVNormalLogProb(t *testing.T) {
	// Standard bivariate normal at the origin: -log(2*pi).
	sigma := mat.NewSymDense(2, []float64{1, 0, 0, 1})
	lp, err := MVNormalLogProb([]float64{0, 0}, sigma, []float64{0, 0})
	require.NoError(t, err)
	assert.InDelta(t, -math.Log(2*math.Pi), lp, 1e-10)
}

func TestMVNormalRejectsNonPositiveDefinite(t *testing.T) {
	// Rank-deficient: second row is the first row doubled.
	sigma := mat.NewSymDense(2, []float64{1, 2, 2, 4})

	_, err := MVNormalLogProb([]float64{0, 0}, sigma, []float64{0, 0})
	assert.ErrorIs(t, err, ErrNotPositiveDefinite)

	_, err = MVNormalSample([]float64{0, 0}, sigma, NewSource(4))
	assert.ErrorIs(t, err, ErrNotPositiveDefinite)
}

func TestMVNormalSample(t *testing.T) {
	sigma := mat.NewSymDense(2, []float64{1, 0, 0, 1})
	v, err := MVNormalSample([]float64{5, -5}, sigma, NewSource(5))
	require.NoError(t, err)
	require.Len(t, v, 2)
	// Draws land within a few standard deviations of the mean.
	assert.InDelta(t, 5, v[0], 6)
	assert.InDelta(t, -5, v[1], 6)
}
