// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package engine drives the generative recursion over covariance trees:
// a production step expands a position top-down (sample the node type,
// hand each child its input), and an aggregation step folds bottom-up
// (sample leaf parameters and evaluate, or combine the children's
// matrices). Every random draw is recorded in a trace.Subtrace at its
// hierarchical address.
//
// The recursion supports incremental re-execution: handed its prior
// subtrace and an Unchanged signal, it reuses the cached result instead
// of recomputing, provided the input locations are identical. Structural
// proposals always force a full re-expansion.
package engine

import (
	"fmt"
	"log/slog"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/AleutianAI/kernelsearch/config"
	"github.com/AleutianAI/kernelsearch/gpdist"
	"github.com/AleutianAI/kernelsearch/kernel"
	"github.com/AleutianAI/kernelsearch/trace"
	"github.com/AleutianAI/kernelsearch/treeindex"
)

// Diff tells the recursion whether a parent's output may have changed
// since the prior execution.
type Diff uint8

const (
	// DiffUnchanged permits reuse of the prior subtree when its inputs
	// match. A pure optimization: treating everything as Changed is
	// always correct, only slower.
	DiffUnchanged Diff = iota

	// DiffChanged forces full re-expansion with no shortcut.
	DiffChanged
)

// Engine expands covariance trees under a fixed grammar, drawing from a
// single ordered random stream.
//
// Thread Safety: Not safe for concurrent use; the random stream is
// stateful and draw order is part of chain reproducibility. One engine
// per chain.
type Engine struct {
	grammar config.GrammarConfig
	src     *rand.Rand
	logger  *slog.Logger
}

// New creates an engine for the given grammar, drawing from src.
// A nil logger falls back to slog.Default().
func New(grammar config.GrammarConfig, src *rand.Rand, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{grammar: grammar, src: src, logger: logger}
}

// Expand runs one production/aggregation pass over the subtree at
// rootID with input locations xs, returning the subtrace of choices and
// derived records.
//
// When diff is DiffUnchanged and the prior subtrace covers the same
// position over the same inputs, the prior is returned as-is: no draws
// are consumed, no matrices rebuilt. In every other case the subtree is
// resampled in full, type included, regardless of what was there before.
func (e *Engine) Expand(rootID int, xs []float64, prior *trace.Subtrace, diff Diff) *trace.Subtrace {
	if diff == DiffUnchanged && prior != nil && prior.RootID == rootID && prior.SameInputs(xs) {
		return prior
	}

	sub := trace.NewSubtrace(rootID, xs)

	// Production: sample this position's kind and derive its children.
	typeDist := gpdist.Categorical{Weights: e.grammar.NodeWeights}
	idx := typeDist.Sample(e.src)
	if idx < 0 || idx >= kernel.NumKinds {
		panic(fmt.Sprintf("engine: node type index %d outside grammar", idx))
	}
	kind := kernel.Kind(idx)
	sub.Choices[trace.Production(rootID)] = trace.Choice{
		Value:   float64(idx),
		LogProb: typeDist.LogProb(idx),
	}

	// Children receive xs verbatim; this recursion varies only the type.
	arity := kind.Arity()
	children := make([]*trace.Subtrace, 0, arity)
	for k := 1; k <= arity; k++ {
		child := e.Expand(treeindex.ChildID(rootID, k, e.grammar.MaxBranch), xs, nil, DiffChanged)
		children = append(children, child)
		sub.Merge(child)
	}

	// Aggregation: fold children (or sample leaf parameters) into this
	// position's node and matrix.
	node, cov := e.aggregate(kind, rootID, xs, children, sub)
	sub.Records[rootID] = trace.Record{Node: node, Cov: cov}
	return sub
}

func (e *Engine) aggregate(kind kernel.Kind, id int, xs []float64, children []*trace.Subtrace, sub *trace.Subtrace) (kernel.Node, *mat.SymDense) {
	switch kind {
	case kernel.KindConstant, kernel.KindLinear, kernel.KindSquaredExponential, kernel.KindPeriodic:
		if len(children) != 0 {
			panic(fmt.Sprintf("engine: leaf kind %s produced %d children", kind, len(children)))
		}
		node := e.sampleLeaf(kind, id, sub)
		return node, kernel.CovarianceMatrix(node, xs)
	case kernel.KindPlus, kernel.KindTimes:
		if len(children) != 2 {
			panic(fmt.Sprintf("engine: combinator kind %s produced %d children", kind, len(children)))
		}
		node := kernel.NewCombinator(kind, children[0].Node(), children[1].Node())
		return node, kernel.Combine(kind, children[0].Cov(), children[1].Cov())
	default:
		panic(fmt.Sprintf("engine: unknown node kind %d", int(kind)))
	}
}

// sampleLeaf draws a leaf's parameters from the prior. The recorded
// choice holds the raw uniform draw; floored fields shift the node's
// parameter by ParamFloor without changing the draw's density.
func (e *Engine) sampleLeaf(kind kernel.Kind, id int, sub *trace.Subtrace) kernel.Node {
	unit := gpdist.Uniform{Min: 0, Max: 1}
	draw := func(field string) float64 {
		v := unit.Sample(e.src)
		sub.Choices[trace.Aggregation(id, field)] = trace.Choice{Value: v, LogProb: unit.LogProb(v)}
		return v
	}

	switch kind {
	case kernel.KindConstant:
		return kernel.Constant{Param: draw("param")}
	case kernel.KindLinear:
		return kernel.Linear{Param: draw("param")}
	case kernel.KindSquaredExponential:
		return kernel.SquaredExponential{LengthScale: draw("length_scale") + e.grammar.ParamFloor}
	case kernel.KindPeriodic:
		scale := draw("scale") + e.grammar.ParamFloor
		period := draw("period") + e.grammar.ParamFloor
		return kernel.Periodic{Scale: scale, Period: period}
	default:
		panic(fmt.Sprintf("engine: kind %s is not a leaf", kind))
	}
}
