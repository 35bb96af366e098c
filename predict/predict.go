// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package predict evaluates a sampled covariance tree on held-out data:
// Gaussian-process conditioning for the posterior-predictive mean and
// covariance, predictive log-likelihood, mean squared error, and
// posterior-predictive draws.
package predict

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/AleutianAI/kernelsearch/gpdist"
	"github.com/AleutianAI/kernelsearch/kernel"
)

// Condition computes the posterior-predictive distribution of the GP
// defined by node and noise at testXs, conditioned on the training
// observations. Returns the predictive mean and covariance.
//
// Returns gpdist.ErrNotPositiveDefinite when the training covariance
// cannot be factorized.
func Condition(node kernel.Node, noise float64, trainXs, trainYs, testXs []float64) ([]float64, *mat.SymDense, error) {
	if len(trainXs) != len(trainYs) {
		panic(fmt.Sprintf("predict: %d inputs vs %d observations", len(trainXs), len(trainYs)))
	}
	n := len(trainXs)
	m := len(testXs)

	train := withNoise(kernel.CovarianceMatrix(node, trainXs), noise)
	cross := kernel.CrossCovariance(node, trainXs, testXs)
	test := withNoise(kernel.CovarianceMatrix(node, testXs), noise)

	var chol mat.Cholesky
	if ok := chol.Factorize(train); !ok {
		return nil, nil, gpdist.ErrNotPositiveDefinite
	}

	// mean = cross^T train^-1 y
	var alpha mat.VecDense
	if err := chol.SolveVecTo(&alpha, mat.NewVecDense(n, trainYs)); err != nil {
		return nil, nil, fmt.Errorf("predictive mean solve: %w", err)
	}
	var meanVec mat.VecDense
	meanVec.MulVec(cross.T(), &alpha)
	mean := make([]float64, m)
	for i := 0; i < m; i++ {
		mean[i] = meanVec.AtVec(i)
	}

	// cov = test - cross^T train^-1 cross
	var solved mat.Dense
	if err := chol.SolveTo(&solved, cross); err != nil {
		return nil, nil, fmt.Errorf("predictive covariance solve: %w", err)
	}
	var quad mat.Dense
	quad.Mul(cross.T(), &solved)

	cov := mat.NewSymDense(m, nil)
	for i := 0; i < m; i++ {
		for j := i; j < m; j++ {
			// Average the two off-diagonal estimates; they differ only
			// by floating-point noise.
			q := 0.5 * (quad.At(i, j) + quad.At(j, i))
			cov.SetSym(i, j, test.At(i, j)-q)
		}
	}
	return mean, cov, nil
}

// LogLikelihood returns the predictive log-density of the held-out
// observations under the conditioned GP.
func LogLikelihood(node kernel.Node, noise float64, trainXs, trainYs, testXs, testYs []float64) (float64, error) {
	mean, cov, err := Condition(node, noise, trainXs, trainYs, testXs)
	if err != nil {
		return 0, err
	}
	return gpdist.MVNormalLogProb(mean, cov, testYs)
}

// MSE returns the mean squared error of the predictive mean against the
// held-out observations.
func MSE(node kernel.Node, noise float64, trainXs, trainYs, testXs, testYs []float64) (float64, error) {
	mean, _, err := Condition(node, noise, trainXs, trainYs, testXs)
	if err != nil {
		return 0, err
	}
	var total float64
	for i, y := range testYs {
		d := y - mean[i]
		total += d * d
	}
	return total / float64(len(testYs)), nil
}

// Sample draws one realization from the posterior predictive at testXs.
func Sample(node kernel.Node, noise float64, trainXs, trainYs, testXs []float64, src *rand.Rand) ([]float64, error) {
	mean, cov, err := Condition(node, noise, trainXs, trainYs, testXs)
	if err != nil {
		return nil, err
	}
	return gpdist.MVNormalSample(mean, cov, src)
}

func withNoise(cov *mat.SymDense, noise float64) *mat.SymDense {
	size := cov.SymmetricDim()
	out := mat.NewSymDense(size, nil)
	out.CopySym(cov)
	for i := 0; i < size; i++ {
		out.SetSym(i, i, out.At(i, i)+noise)
	}
	return out
}
