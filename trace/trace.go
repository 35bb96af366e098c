// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package trace stores every random choice of one execution of the
// generative covariance-tree program at a hierarchical address, along
// with the derived (Node, covariance matrix) pair at each tree position.
//
// The trace is the single mutable resource of an inference chain.
// Proposals never touch the current trace: they clone it, edit the
// clone, and the sampler swaps the whole trace on accept. A rejected
// proposal therefore leaves the prior trace bit-for-bit intact with no
// rollback machinery.
package trace

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/AleutianAI/kernelsearch/kernel"
	"github.com/AleutianAI/kernelsearch/treeindex"
)

// Record is the derived value pair produced by one aggregation step: the
// node at a tree position and its covariance matrix over the trace's
// input locations. Records are replaced wholesale, never mutated.
type Record struct {
	Node kernel.Node
	Cov  *mat.SymDense
}

// Subtrace holds the choices and derived records produced by expanding
// one subtree. It is the unit of exchange between the recursion engine
// and the trace: a structural proposal swaps exactly one Subtrace into a
// cloned Trace.
type Subtrace struct {
	RootID  int
	Xs      []float64
	Choices map[Address]Choice
	Records map[int]Record
}

// NewSubtrace returns an empty subtrace rooted at rootID over inputs xs.
func NewSubtrace(rootID int, xs []float64) *Subtrace {
	return &Subtrace{
		RootID:  rootID,
		Xs:      xs,
		Choices: make(map[Address]Choice),
		Records: make(map[int]Record),
	}
}

// Node returns the root node of the subtree.
func (s *Subtrace) Node() kernel.Node { return s.Records[s.RootID].Node }

// Cov returns the root covariance matrix of the subtree.
func (s *Subtrace) Cov() *mat.SymDense { return s.Records[s.RootID].Cov }

// Merge absorbs a child subtrace's choices and records. Address spaces
// of siblings are disjoint by construction, so collisions indicate a
// recursion bug and panic.
func (s *Subtrace) Merge(child *Subtrace) {
	for addr, c := range child.Choices {
		if _, dup := s.Choices[addr]; dup {
			panic(fmt.Sprintf("trace: duplicate address %s while merging subtrace", addr))
		}
		s.Choices[addr] = c
	}
	for id, rec := range child.Records {
		if _, dup := s.Records[id]; dup {
			panic(fmt.Sprintf("trace: duplicate record for node %d while merging subtrace", id))
		}
		s.Records[id] = rec
	}
}

// LogPrior returns the summed log-probability of every choice in the
// subtree.
func (s *Subtrace) LogPrior() float64 {
	var total float64
	for _, c := range s.Choices {
		total += c.LogProb
	}
	return total
}

// SameInputs reports whether the subtree was built over exactly these
// input locations. The incremental recursion consults this before
// honoring an Unchanged signal.
func (s *Subtrace) SameInputs(xs []float64) bool {
	if len(s.Xs) != len(xs) {
		return false
	}
	for i, x := range s.Xs {
		if x != xs[i] {
			return false
		}
	}
	return true
}

// Trace is the full record of one execution: all sampled choices, the
// derived record at every tree position, the constrained observation
// vector, the noise scalar, and the observation log-likelihood.
type Trace struct {
	maxBranch int
	xs        []float64
	ys        []float64

	noise        float64
	noiseLogProb float64
	obsLogLik    float64

	choices map[Address]Choice
	records map[int]Record
}

// New returns an empty trace over inputs xs constrained to observations
// ys. The observation vector is fixed for the trace's lifetime.
func New(xs, ys []float64, maxBranch int) *Trace {
	return &Trace{
		maxBranch: maxBranch,
		xs:        xs,
		ys:        ys,
		choices:   make(map[Address]Choice),
		records:   make(map[int]Record),
	}
}

// Xs returns the input locations. Callers must not modify the slice.
func (t *Trace) Xs() []float64 { return t.xs }

// Ys returns the constrained observation vector. Callers must not
// modify the slice.
func (t *Trace) Ys() []float64 { return t.ys }

// MaxBranch returns the arity of the implicit tree addressing scheme.
func (t *Trace) MaxBranch() int { return t.maxBranch }

// Root returns the root node of the current covariance tree.
func (t *Trace) Root() kernel.Node { return t.records[treeindex.RootID].Node }

// RootCov returns the covariance matrix of the full tree.
func (t *Trace) RootCov() *mat.SymDense { return t.records[treeindex.RootID].Cov }

// Noise returns the sampled observation-noise variance.
func (t *Trace) Noise() float64 { return t.noise }

// NoiseLogProb returns the log-prior of the noise draw.
func (t *Trace) NoiseLogProb() float64 { return t.noiseLogProb }

// SetNoise records the noise value and the log-prior of its draw.
func (t *Trace) SetNoise(value, logProb float64) {
	t.noise = value
	t.noiseLogProb = logProb
}

// ObservationLogLik returns the log-likelihood of ys under the current
// tree and noise.
func (t *Trace) ObservationLogLik() float64 { return t.obsLogLik }

// SetObservationLogLik records the observation log-likelihood after the
// tree or noise changed.
func (t *Trace) SetObservationLogLik(ll float64) { t.obsLogLik = ll }

// ChoiceAt reads the recorded choice at an address.
func (t *Trace) ChoiceAt(a Address) (Choice, bool) {
	c, ok := t.choices[a]
	return c, ok
}

// NodeCount returns the number of instantiated tree positions.
func (t *Trace) NodeCount() int { return len(t.records) }

// RecordAt returns the derived record at a tree position.
func (t *Trace) RecordAt(id int) (Record, bool) {
	r, ok := t.records[id]
	return r, ok
}

// LogProb returns the joint log-probability of the trace: every choice's
// contribution, the noise prior, and the observation log-likelihood.
func (t *Trace) LogProb() float64 {
	total := t.noiseLogProb + t.obsLogLik
	for _, c := range t.choices {
		total += c.LogProb
	}
	return total
}

// SubtreeLogPrior returns the summed log-probability of every choice
// recorded under the subtree rooted at root (inclusive).
func (t *Trace) SubtreeLogPrior(root int) float64 {
	var total float64
	for addr, c := range t.choices {
		if treeindex.IsWithin(addr.Node, root, t.maxBranch) {
			total += c.LogProb
		}
	}
	return total
}

// Subtree extracts the current subtree rooted at root as a Subtrace,
// sharing the underlying records (immutable by convention). Used to hand
// the recursion engine its prior execution for incremental re-runs.
func (t *Trace) Subtree(root int) *Subtrace {
	sub := NewSubtrace(root, t.xs)
	for addr, c := range t.choices {
		if treeindex.IsWithin(addr.Node, root, t.maxBranch) {
			sub.Choices[addr] = c
		}
	}
	for id, rec := range t.records {
		if treeindex.IsWithin(id, root, t.maxBranch) {
			sub.Records[id] = rec
		}
	}
	return sub
}

// ReplaceSubtree deletes every choice and record under sub.RootID,
// installs the subtrace's contents, and re-folds the records of the
// ancestors of the replaced position. Ancestor re-folding draws no new
// randomness; only derived matrices change above the splice point.
//
// The observation log-likelihood is left stale; the caller re-evaluates
// it against the new root covariance.
func (t *Trace) ReplaceSubtree(sub *Subtrace) {
	root := sub.RootID
	for addr := range t.choices {
		if treeindex.IsWithin(addr.Node, root, t.maxBranch) {
			delete(t.choices, addr)
		}
	}
	for id := range t.records {
		if treeindex.IsWithin(id, root, t.maxBranch) {
			delete(t.records, id)
		}
	}
	for addr, c := range sub.Choices {
		t.choices[addr] = c
	}
	for id, rec := range sub.Records {
		t.records[id] = rec
	}

	for id := root; id != treeindex.RootID; {
		parent := treeindex.ParentID(id, t.maxBranch)
		rec, ok := t.records[parent]
		if !ok {
			panic(fmt.Sprintf("trace: missing record for ancestor node %d", parent))
		}
		kind := rec.Node.Kind()
		left := t.records[treeindex.ChildID(parent, 1, t.maxBranch)]
		right := t.records[treeindex.ChildID(parent, 2, t.maxBranch)]
		t.records[parent] = Record{
			Node: kernel.NewCombinator(kind, left.Node, right.Node),
			Cov:  kernel.Combine(kind, left.Cov, right.Cov),
		}
		id = parent
	}
}

// Clone returns a deep copy of the trace's mutable state. Node values
// and covariance matrices are shared: both are immutable once built, so
// structural sharing across clones is safe. The observation vector is
// shared by design (constrained, immutable).
func (t *Trace) Clone() *Trace {
	out := &Trace{
		maxBranch:    t.maxBranch,
		xs:           t.xs,
		ys:           t.ys,
		noise:        t.noise,
		noiseLogProb: t.noiseLogProb,
		obsLogLik:    t.obsLogLik,
		choices:      make(map[Address]Choice, len(t.choices)),
		records:      make(map[int]Record, len(t.records)),
	}
	for addr, c := range t.choices {
		out.choices[addr] = c
	}
	for id, rec := range t.records {
		out.records[id] = rec
	}
	return out
}
