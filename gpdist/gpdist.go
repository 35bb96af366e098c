// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package gpdist wraps the distribution primitives used by structure
// search. Every wrapper pairs sampling with the matching log-density so
// the trace can book each draw's probability contribution, and every
// draw comes from one caller-owned source so a chain is a single ordered
// stream of randomness: same seed, same chain.
package gpdist

import (
	"errors"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrNotPositiveDefinite is returned when a covariance matrix cannot be
// factorized for multivariate-normal evaluation. Callers in the sampler
// treat it as automatic rejection of the offending proposal, not as a
// chain-fatal condition.
var ErrNotPositiveDefinite = errors.New("gpdist: covariance matrix is not positive definite")

// NewSource returns the seeded random stream shared by all draws of a
// chain.
func NewSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// Uniform is the continuous uniform distribution on [Min, Max).
type Uniform struct {
	Min, Max float64
}

// Sample draws one value from src.
func (u Uniform) Sample(src *rand.Rand) float64 {
	return distuv.Uniform{Min: u.Min, Max: u.Max, Src: src}.Rand()
}

// LogProb returns the log-density at x.
func (u Uniform) LogProb(x float64) float64 {
	return distuv.Uniform{Min: u.Min, Max: u.Max}.LogProb(x)
}

// Gamma is the gamma distribution parameterized by shape and rate.
type Gamma struct {
	Shape, Rate float64
}

// Sample draws one value from src.
func (g Gamma) Sample(src *rand.Rand) float64 {
	return distuv.Gamma{Alpha: g.Shape, Beta: g.Rate, Src: src}.Rand()
}

// LogProb returns the log-density at x.
func (g Gamma) LogProb(x float64) float64 {
	return distuv.Gamma{Alpha: g.Shape, Beta: g.Rate}.LogProb(x)
}

// Categorical is a discrete distribution over indices 0..len(Weights)-1.
// Weights need not be normalized.
type Categorical struct {
	Weights []float64
}

// Sample draws one index from src.
func (c Categorical) Sample(src *rand.Rand) int {
	return int(distuv.NewCategorical(c.Weights, src).Rand())
}

// LogProb returns the log-probability of index k.
func (c Categorical) LogProb(k int) float64 {
	return distuv.NewCategorical(c.Weights, nil).LogProb(float64(k))
}

// MVNormalLogProb evaluates the multivariate-normal log-density of x
// under mean mu and covariance sigma. Returns ErrNotPositiveDefinite
// when sigma cannot be factorized.
func MVNormalLogProb(mu []float64, sigma *mat.SymDense, x []float64) (float64, error) {
	normal, ok := distmv.NewNormal(mu, sigma, nil)
	if !ok {
		return 0, ErrNotPositiveDefinite
	}
	return normal.LogProb(x), nil
}

// MVNormalSample draws one vector from the multivariate normal with mean
// mu and covariance sigma. Returns ErrNotPositiveDefinite when sigma
// cannot be factorized.
func MVNormalSample(mu []float64, sigma *mat.SymDense, src *rand.Rand) ([]float64, error) {
	normal, ok := distmv.NewNormal(mu, sigma, src)
	if !ok {
		return nil, ErrNotPositiveDefinite
	}
	return normal.Rand(nil), nil
}
