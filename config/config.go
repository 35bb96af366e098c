// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config holds the immutable configuration for kernel structure
// search: the generative grammar tables, run settings, and observability
// settings. Configuration is resolved with priority env > file > defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/kernelsearch/kernel"
)

// Config is the top-level configuration.
//
// Thread Safety: Safe to read concurrently. Not safe to modify after
// creation.
type Config struct {
	// Grammar contains the generative-model tables.
	Grammar GrammarConfig `json:"grammar" yaml:"grammar"`

	// Run contains inference-run settings.
	Run RunConfig `json:"run" yaml:"run"`

	// Observability contains metrics/tracing/journal settings.
	Observability ObservabilityConfig `json:"observability" yaml:"observability"`
}

// GrammarConfig fixes the generative model: node-type weights, tree
// arity, and the parameter priors. These tables are part of the model,
// not tuning knobs; changing them changes the posterior being sampled.
type GrammarConfig struct {
	// MaxBranch is the arity of the implicit tree addressing scheme.
	MaxBranch int `json:"max_branch" yaml:"max_branch"`

	// NodeWeights are the (unnormalized) production weights over the six
	// node kinds, indexed by kernel.Kind.
	NodeWeights []float64 `json:"node_weights" yaml:"node_weights"`

	// ParamFloor is added to length-scale, scale, and period draws to
	// keep them away from degenerate zero values.
	ParamFloor float64 `json:"param_floor" yaml:"param_floor"`

	// NoiseShape and NoiseRate parameterize the gamma prior on the
	// observation-noise variance.
	NoiseShape float64 `json:"noise_shape" yaml:"noise_shape"`
	NoiseRate  float64 `json:"noise_rate" yaml:"noise_rate"`

	// NoiseFloor is added to every noise draw.
	NoiseFloor float64 `json:"noise_floor" yaml:"noise_floor"`
}

// RunConfig contains inference-run settings.
type RunConfig struct {
	Iterations    int     `json:"iterations" yaml:"iterations"`
	Chains        int     `json:"chains" yaml:"chains"`
	Seed          uint64  `json:"seed" yaml:"seed"`
	TrainFraction float64 `json:"train_fraction" yaml:"train_fraction"`
}

// ObservabilityConfig contains metrics, tracing, and journal settings.
type ObservabilityConfig struct {
	// MetricsAddr enables the /metrics HTTP listener when non-empty,
	// e.g. ":9090".
	MetricsAddr string `json:"metrics_addr" yaml:"metrics_addr"`

	// TracingEnabled turns on OpenTelemetry spans for runs and moves.
	TracingEnabled bool `json:"tracing_enabled" yaml:"tracing_enabled"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level" yaml:"log_level"`

	// JournalDir enables the badger sample journal when non-empty.
	JournalDir string `json:"journal_dir" yaml:"journal_dir"`
}

// Default returns the default configuration.
//
// The node weights favor leaves 4:1 over combinators in total mass,
// which keeps the expected tree size finite under the recursive prior.
func Default() Config {
	return Config{
		Grammar: GrammarConfig{
			MaxBranch:   2,
			NodeWeights: []float64{0.2, 0.2, 0.2, 0.2, 0.1, 0.1},
			ParamFloor:  0.01,
			NoiseShape:  1,
			NoiseRate:   1,
			NoiseFloor:  0.01,
		},
		Run: RunConfig{
			Iterations:    200,
			Chains:        1,
			Seed:          1,
			TrainFraction: 0.8,
		},
		Observability: ObservabilityConfig{
			MetricsAddr:    "",
			TracingEnabled: false,
			LogLevel:       "info",
			JournalDir:     "",
		},
	}
}

// Load resolves configuration with priority env > file > defaults.
//
// Inputs:
//   - path: Path to a YAML or JSON config file (optional, can be empty).
//
// Outputs:
//   - Config: Merged configuration.
//   - error: Non-nil if the file exists but is invalid, or validation fails.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	loadEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // File doesn't exist, use defaults
		}
		return err
	}

	// Try YAML first, then JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return fmt.Errorf("parse config (tried YAML and JSON): YAML error: %v, JSON error: %w", err, jsonErr)
		}
	}
	return nil
}

func loadEnv(cfg *Config) {
	if v := os.Getenv("KERNELSEARCH_ITERATIONS"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Run.Iterations = i
		}
	}
	if v := os.Getenv("KERNELSEARCH_CHAINS"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Run.Chains = i
		}
	}
	if v := os.Getenv("KERNELSEARCH_SEED"); v != "" {
		if u, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.Run.Seed = u
		}
	}
	if v := os.Getenv("KERNELSEARCH_TRAIN_FRACTION"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Run.TrainFraction = f
		}
	}
	if v := os.Getenv("KERNELSEARCH_METRICS_ADDR"); v != "" {
		cfg.Observability.MetricsAddr = v
	}
	if v := os.Getenv("KERNELSEARCH_TRACING_ENABLED"); v != "" {
		cfg.Observability.TracingEnabled = v == "true" || v == "1"
	}
	if v := os.Getenv("KERNELSEARCH_LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
	if v := os.Getenv("KERNELSEARCH_JOURNAL_DIR"); v != "" {
		cfg.Observability.JournalDir = v
	}
}

// Validate checks that the configuration is valid.
//
// Outputs:
//   - error: Non-nil if configuration is invalid.
func (c Config) Validate() error {
	if c.Grammar.MaxBranch < 2 {
		return fmt.Errorf("max_branch must be >= 2")
	}
	if len(c.Grammar.NodeWeights) != kernel.NumKinds {
		return fmt.Errorf("node_weights must have %d entries, got %d", kernel.NumKinds, len(c.Grammar.NodeWeights))
	}
	var sum float64
	for i, w := range c.Grammar.NodeWeights {
		if w < 0 {
			return fmt.Errorf("node_weights[%d] must be >= 0", i)
		}
		sum += w
	}
	if sum <= 0 {
		return fmt.Errorf("node_weights must have positive total mass")
	}
	if c.Grammar.ParamFloor <= 0 {
		return fmt.Errorf("param_floor must be > 0")
	}
	if c.Grammar.NoiseShape <= 0 || c.Grammar.NoiseRate <= 0 {
		return fmt.Errorf("noise prior shape and rate must be > 0")
	}
	if c.Grammar.NoiseFloor <= 0 {
		return fmt.Errorf("noise_floor must be > 0")
	}
	if c.Run.Iterations < 1 {
		return fmt.Errorf("iterations must be >= 1")
	}
	if c.Run.Chains < 1 {
		return fmt.Errorf("chains must be >= 1")
	}
	if c.Run.TrainFraction <= 0 || c.Run.TrainFraction > 1 {
		return fmt.Errorf("train_fraction must be in (0, 1]")
	}
	switch c.Observability.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error")
	}
	return nil
}
