// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/kernelsearch/kernel"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 2, cfg.Grammar.MaxBranch)
	assert.Len(t, cfg.Grammar.NodeWeights, kernel.NumKinds)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Run.Iterations, cfg.Run.Iterations)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
run:
  iterations: 500
  chains: 4
  seed: 99
observability:
  log_level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.Run.Iterations)
	assert.Equal(t, 4, cfg.Run.Chains)
	assert.Equal(t, uint64(99), cfg.Run.Seed)
	assert.Equal(t, "debug", cfg.Observability.LogLevel)
	// Unspecified sections keep defaults.
	assert.Equal(t, Default().Grammar.MaxBranch, cfg.Grammar.MaxBranch)
}

func TestLoadJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"run": {"iterations": 321, "chains": 2, "seed": 5, "train_fraction": 0.75}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 321, cfg.Run.Iterations)
	assert.Equal(t, 0.75, cfg.Run.TrainFraction)
}

func TestLoadRejectsGarbageFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{{{not parseable"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("KERNELSEARCH_ITERATIONS", "77")
	t.Setenv("KERNELSEARCH_CHAINS", "3")
	t.Setenv("KERNELSEARCH_SEED", "123")
	t.Setenv("KERNELSEARCH_LOG_LEVEL", "warn")
	t.Setenv("KERNELSEARCH_JOURNAL_DIR", "/tmp/journal")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 77, cfg.Run.Iterations)
	assert.Equal(t, 3, cfg.Run.Chains)
	assert.Equal(t, uint64(123), cfg.Run.Seed)
	assert.Equal(t, "warn", cfg.Observability.LogLevel)
	assert.Equal(t, "/tmp/journal", cfg.Observability.JournalDir)
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"max_branch too small", func(c *Config) { c.Grammar.MaxBranch = 1 }},
		{"wrong weight count", func(c *Config) { c.Grammar.NodeWeights = []float64{1, 1} }},
		{"negative weight", func(c *Config) { c.Grammar.NodeWeights[0] = -1 }},
		{"zero total mass", func(c *Config) {
			c.Grammar.NodeWeights = make([]float64, kernel.NumKinds)
		}},
		{"zero param floor", func(c *Config) { c.Grammar.ParamFloor = 0 }},
		{"zero noise shape", func(c *Config) { c.Grammar.NoiseShape = 0 }},
		{"zero noise floor", func(c *Config) { c.Grammar.NoiseFloor = 0 }},
		{"zero iterations", func(c *Config) { c.Run.Iterations = 0 }},
		{"zero chains", func(c *Config) { c.Run.Chains = 0 }},
		{"train fraction too big", func(c *Config) { c.Run.TrainFraction = 1.5 }},
		{"train fraction zero", func(c *Config) { c.Run.TrainFraction = 0 }},
		{"bad log level", func(c *Config) { c.Observability.LogLevel = "verbose" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
