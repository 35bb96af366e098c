// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package kernel

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Eval evaluates the covariance function at a single pair of inputs.
// Pure and deterministic given the node's parameters.
func Eval(n Node, x1, x2 float64) float64 {
	switch v := n.(type) {
	case Constant:
		return v.Param
	case Linear:
		return (x1 - v.Param) * (x2 - v.Param)
	case SquaredExponential:
		d := x1 - x2
		return math.Exp(-0.5 * d * d / v.LengthScale)
	case Periodic:
		s := math.Sin(math.Pi * math.Abs(x1-x2) / v.Period)
		return math.Exp(-(1.0 / v.Scale) * s * s)
	case Plus:
		return Eval(v.Left, x1, x2) + Eval(v.Right, x1, x2)
	case Times:
		return Eval(v.Left, x1, x2) * Eval(v.Right, x1, x2)
	default:
		panic(fmt.Sprintf("kernel: unknown node type %T", n))
	}
}

// CovarianceMatrix evaluates the full covariance matrix of n over the
// input locations xs. The result is a fresh symmetric matrix; callers
// may retain it indefinitely.
func CovarianceMatrix(n Node, xs []float64) *mat.SymDense {
	size := len(xs)
	cov := mat.NewSymDense(size, nil)
	for i := 0; i < size; i++ {
		for j := i; j < size; j++ {
			cov.SetSym(i, j, Eval(n, xs[i], xs[j]))
		}
	}
	return cov
}

// CrossCovariance evaluates the (possibly rectangular) covariance of n
// between two input sets, with rows indexed by xs1 and columns by xs2.
func CrossCovariance(n Node, xs1, xs2 []float64) *mat.Dense {
	cov := mat.NewDense(len(xs1), len(xs2), nil)
	for i, x1 := range xs1 {
		for j, x2 := range xs2 {
			cov.Set(i, j, Eval(n, x1, x2))
		}
	}
	return cov
}

// Combine folds two children's covariance matrices into the parent's
// matrix for a combinator kind: elementwise sum for Plus, elementwise
// product for Times. Both inputs must have the same dimension; a
// mismatch indicates the children were built over different input
// vectors, which the recursion makes impossible, and panics.
// A fresh matrix is allocated; the children's matrices are not touched.
func Combine(k Kind, a, b *mat.SymDense) *mat.SymDense {
	size := a.SymmetricDim()
	if bs := b.SymmetricDim(); bs != size {
		panic(fmt.Sprintf("kernel: combine shape mismatch %d vs %d", size, bs))
	}
	out := mat.NewSymDense(size, nil)
	for i := 0; i < size; i++ {
		for j := i; j < size; j++ {
			switch k {
			case KindPlus:
				out.SetSym(i, j, a.At(i, j)+b.At(i, j))
			case KindTimes:
				out.SetSym(i, j, a.At(i, j)*b.At(i, j))
			default:
				panic(fmt.Sprintf("kernel: kind %s is not a combinator", k))
			}
		}
	}
	return out
}
