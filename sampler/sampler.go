// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package sampler implements reversible-jump Metropolis-Hastings over
// covariance-tree traces. Each iteration applies one structural move
// (resample a uniformly chosen subtree) and one noise move (resample
// the observation-noise variance), each with its own accept/reject
// decision.
//
// The structural move changes the number of free random variables, so
// its acceptance ratio carries a dimension correction of
// log(oldNodeCount) - log(newNodeCount): the reverse move must pick the
// same position out of a differently sized tree.
package sampler

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/AleutianAI/kernelsearch/config"
	"github.com/AleutianAI/kernelsearch/engine"
	"github.com/AleutianAI/kernelsearch/gpdist"
	"github.com/AleutianAI/kernelsearch/trace"
	"github.com/AleutianAI/kernelsearch/treeindex"
)

// likelihoodFunc evaluates the observation log-likelihood of ys under a
// covariance matrix and noise variance. Swappable in tests to force
// acceptance or rejection.
type likelihoodFunc func(cov *mat.SymDense, noise float64, ys []float64) (float64, error)

// Sampler runs one MCMC chain over covariance-tree traces.
//
// Thread Safety: Not safe for concurrent use. The random stream, the
// engine, and the draw order are per-chain state; run one Sampler per
// chain.
type Sampler struct {
	cfg     config.Config
	engine  *engine.Engine
	src     *rand.Rand
	logger  *slog.Logger
	metrics *Metrics
	tracer  *Tracer
	loglik  likelihoodFunc
}

// Option configures a Sampler during construction.
type Option func(*Sampler)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sampler) { s.logger = logger }
}

// WithMetrics attaches Prometheus instruments.
func WithMetrics(m *Metrics) Option {
	return func(s *Sampler) { s.metrics = m }
}

// WithTracer attaches an OpenTelemetry tracer.
func WithTracer(t *Tracer) Option {
	return func(s *Sampler) { s.tracer = t }
}

// New creates a sampler for the given configuration, drawing every
// random choice from src.
func New(cfg config.Config, src *rand.Rand, opts ...Option) *Sampler {
	s := &Sampler{
		cfg:    cfg,
		src:    src,
		logger: slog.Default(),
		loglik: observationLogLik,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.engine = engine.New(cfg.Grammar, src, s.logger)
	if s.tracer == nil {
		s.tracer = NewTracer(s.logger, false)
	}
	return s
}

// Initialize builds the chain's first trace: the observation vector is
// constrained to ys, the tree and noise are sampled from the prior, and
// the observation likelihood is evaluated. Any sampled tree plus a
// floored noise keeps ys observable, so initialization failure indicates
// a numeric problem, not a structural one.
func (s *Sampler) Initialize(xs, ys []float64) (*trace.Trace, error) {
	t := trace.New(xs, ys, s.cfg.Grammar.MaxBranch)
	sub := s.engine.Expand(treeindex.RootID, xs, nil, engine.DiffChanged)
	t.ReplaceSubtree(sub)

	prior := s.noisePrior()
	raw := prior.Sample(s.src)
	t.SetNoise(raw+s.cfg.Grammar.NoiseFloor, prior.LogProb(raw))

	ll, err := s.loglik(t.RootCov(), t.Noise(), ys)
	if err != nil {
		return nil, fmt.Errorf("initialize trace: %w", err)
	}
	t.SetObservationLogLik(ll)
	return t, nil
}

// StructuralStep proposes resampling the subtree at a uniformly chosen
// node and accepts or rejects it. Returns the post-step trace, which is
// the input trace untouched on rejection, and whether the proposal was
// accepted.
//
// A proposal whose covariance cannot be factorized is rejected rather
// than aborting the chain.
func (s *Sampler) StructuralStep(t *trace.Trace) (*trace.Trace, bool, error) {
	maxBranch := s.cfg.Grammar.MaxBranch
	target := treeindex.PickRandomNode(t.Root(), treeindex.RootID, maxBranch, s.src)
	oldCount := t.NodeCount()
	oldSubPrior := t.SubtreeLogPrior(target)

	sub := s.engine.Expand(target, t.Xs(), nil, engine.DiffChanged)
	cand := t.Clone()
	cand.ReplaceSubtree(sub)

	ll, err := s.loglik(cand.RootCov(), cand.Noise(), cand.Ys())
	if err != nil {
		if errors.Is(err, gpdist.ErrNotPositiveDefinite) {
			s.logger.Debug("structural proposal rejected: covariance not positive definite",
				slog.Int("target", target))
			s.metrics.recordMove("structural", false)
			return t, false, nil
		}
		return t, false, fmt.Errorf("structural step likelihood: %w", err)
	}
	cand.SetObservationLogLik(ll)

	// log alpha = delta joint log-prob
	//           + [log q(prior|new) - log q(new|prior)]  (subtree priors)
	//           + log(oldCount) - log(newCount)          (dimension correction)
	newCount := cand.NodeCount()
	logAlpha := cand.LogProb() - t.LogProb() +
		oldSubPrior - sub.LogPrior() +
		dimensionCorrection(oldCount, newCount)

	accepted := s.acceptDraw(logAlpha)
	s.metrics.recordMove("structural", accepted)
	if !accepted {
		return t, false, nil
	}
	return cand, true, nil
}

// NoiseStep proposes resampling the observation-noise variance from its
// prior and accepts or rejects it. The covariance tree is untouched and
// the parameter count is unchanged, so no dimension correction applies.
func (s *Sampler) NoiseStep(t *trace.Trace) (*trace.Trace, bool, error) {
	prior := s.noisePrior()
	raw := prior.Sample(s.src)
	newLogProb := prior.LogProb(raw)

	cand := t.Clone()
	cand.SetNoise(raw+s.cfg.Grammar.NoiseFloor, newLogProb)

	ll, err := s.loglik(cand.RootCov(), cand.Noise(), cand.Ys())
	if err != nil {
		if errors.Is(err, gpdist.ErrNotPositiveDefinite) {
			s.logger.Debug("noise proposal rejected: covariance not positive definite")
			s.metrics.recordMove("noise", false)
			return t, false, nil
		}
		return t, false, fmt.Errorf("noise step likelihood: %w", err)
	}
	cand.SetObservationLogLik(ll)

	// Proposal density is the prior itself, so q forward/reverse are the
	// two noise priors.
	logAlpha := cand.LogProb() - t.LogProb() + t.NoiseLogProb() - newLogProb

	accepted := s.acceptDraw(logAlpha)
	s.metrics.recordMove("noise", accepted)
	if !accepted {
		return t, false, nil
	}
	return cand, true, nil
}

// dimensionCorrection is the reversible-jump term for a move between
// trees of oldCount and newCount nodes: the reverse move picks its
// target uniformly from newCount positions while the forward move
// picked from oldCount, contributing log(oldCount) - log(newCount).
func dimensionCorrection(oldCount, newCount int) float64 {
	return math.Log(float64(oldCount)) - math.Log(float64(newCount))
}

// acceptDraw makes the MH decision. The uniform draw is consumed even
// when logAlpha guarantees the outcome, keeping the stream's draw count
// independent of acceptance history for reproducible replay.
func (s *Sampler) acceptDraw(logAlpha float64) bool {
	u := s.src.Float64()
	return math.Log(u) < logAlpha
}

func (s *Sampler) noisePrior() gpdist.Gamma {
	return gpdist.Gamma{Shape: s.cfg.Grammar.NoiseShape, Rate: s.cfg.Grammar.NoiseRate}
}

// observationLogLik evaluates ys under N(0, cov + noise*I).
func observationLogLik(cov *mat.SymDense, noise float64, ys []float64) (float64, error) {
	size := cov.SymmetricDim()
	if size != len(ys) {
		panic(fmt.Sprintf("sampler: covariance size %d does not match %d observations", size, len(ys)))
	}
	noisy := mat.NewSymDense(size, nil)
	noisy.CopySym(cov)
	for i := 0; i < size; i++ {
		noisy.SetSym(i, i, noisy.At(i, i)+noise)
	}
	return gpdist.MVNormalLogProb(make([]float64, size), noisy, ys)
}
