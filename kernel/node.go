// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package kernel defines the covariance-function grammar for Gaussian-process
// structure search: four leaf kernels (Constant, Linear, SquaredExponential,
// Periodic) and two combinators (Plus, Times) forming a closed tagged union.
//
// Nodes are immutable after construction. A node owns its children
// exclusively; trees never share subtrees or contain cycles. Structure-search
// proposals always build a new Node value rather than mutating one in place.
package kernel

import "fmt"

// Kind identifies one of the six node kinds in the grammar.
type Kind int

const (
	KindConstant Kind = iota
	KindLinear
	KindSquaredExponential
	KindPeriodic
	KindPlus
	KindTimes

	// NumKinds is the size of the grammar. The production distribution
	// must carry exactly this many weights.
	NumKinds = 6
)

// String returns the short display name of the kind.
func (k Kind) String() string {
	switch k {
	case KindConstant:
		return "Constant"
	case KindLinear:
		return "Linear"
	case KindSquaredExponential:
		return "SquaredExponential"
	case KindPeriodic:
		return "Periodic"
	case KindPlus:
		return "Plus"
	case KindTimes:
		return "Times"
	default:
		panic(fmt.Sprintf("kernel: unknown node kind %d", int(k)))
	}
}

// Arity returns the number of children a node of this kind owns:
// 0 for leaves, 2 for combinators. Unknown kinds are a grammar
// violation and panic.
func (k Kind) Arity() int {
	switch k {
	case KindConstant, KindLinear, KindSquaredExponential, KindPeriodic:
		return 0
	case KindPlus, KindTimes:
		return 2
	default:
		panic(fmt.Sprintf("kernel: unknown node kind %d", int(k)))
	}
}

// IsLeaf reports whether the kind is a leaf kernel.
func (k Kind) IsLeaf() bool { return k.Arity() == 0 }

// Node is one element of the covariance-function tree. The six concrete
// types below are the only implementations; the unexported method keeps
// the union closed.
type Node interface {
	Kind() Kind
	// String renders the node as a kernel expression, e.g.
	// "(Const(0.50) + SE(0.32))".
	String() string

	node()
}

// Constant is the constant kernel k(x, x') = param.
type Constant struct {
	Param float64
}

// Linear is the linear kernel k(x, x') = (x - param) * (x' - param).
type Linear struct {
	Param float64
}

// SquaredExponential is the squared-exponential kernel
// k(x, x') = exp(-0.5 * (x - x')^2 / lengthScale).
type SquaredExponential struct {
	LengthScale float64
}

// Periodic is the periodic kernel
// k(x, x') = exp(-(1/scale) * sin(pi*|x - x'|/period)^2).
type Periodic struct {
	Scale  float64
	Period float64
}

// Plus sums the covariance matrices of its two children elementwise.
type Plus struct {
	Left, Right Node
}

// Times multiplies the covariance matrices of its two children elementwise.
type Times struct {
	Left, Right Node
}

func (Constant) Kind() Kind           { return KindConstant }
func (Linear) Kind() Kind             { return KindLinear }
func (SquaredExponential) Kind() Kind { return KindSquaredExponential }
func (Periodic) Kind() Kind           { return KindPeriodic }
func (Plus) Kind() Kind               { return KindPlus }
func (Times) Kind() Kind              { return KindTimes }

func (Constant) node()           {}
func (Linear) node()             {}
func (SquaredExponential) node() {}
func (Periodic) node()           {}
func (Plus) node()               {}
func (Times) node()              {}

func (n Constant) String() string { return fmt.Sprintf("Const(%.2f)", n.Param) }
func (n Linear) String() string   { return fmt.Sprintf("Lin(%.2f)", n.Param) }
func (n SquaredExponential) String() string {
	return fmt.Sprintf("SE(%.2f)", n.LengthScale)
}
func (n Periodic) String() string {
	return fmt.Sprintf("Per(%.2f, %.2f)", n.Scale, n.Period)
}
func (n Plus) String() string  { return fmt.Sprintf("(%s + %s)", n.Left, n.Right) }
func (n Times) String() string { return fmt.Sprintf("(%s * %s)", n.Left, n.Right) }

// NewCombinator builds a Plus or Times node over the given children.
// Any other kind is a grammar violation and panics.
func NewCombinator(k Kind, left, right Node) Node {
	switch k {
	case KindPlus:
		return Plus{Left: left, Right: right}
	case KindTimes:
		return Times{Left: left, Right: right}
	default:
		panic(fmt.Sprintf("kernel: kind %s is not a combinator", k))
	}
}

// Children returns the two children of a combinator node, or ok=false
// for a leaf.
func Children(n Node) (left, right Node, ok bool) {
	switch v := n.(type) {
	case Plus:
		return v.Left, v.Right, true
	case Times:
		return v.Left, v.Right, true
	case Constant, Linear, SquaredExponential, Periodic:
		return nil, nil, false
	default:
		panic(fmt.Sprintf("kernel: unknown node type %T", n))
	}
}

// Size returns the total number of nodes in the tree rooted at n.
func Size(n Node) int {
	left, right, ok := Children(n)
	if !ok {
		return 1
	}
	return 1 + Size(left) + Size(right)
}
