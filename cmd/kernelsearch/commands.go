// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	configPath  string
	dataPath    string
	iterations  int
	chains      int
	seed        uint64
	metricsAddr string
	journalDir  string
	logLevel    string
	runID       string

	rootCmd = &cobra.Command{
		Use:   "kernelsearch",
		Short: "Search for Gaussian-process covariance structure by MCMC",
		Long: `kernelsearch infers the compositional form of a Gaussian-process
covariance function (sums and products of constant, linear, squared
exponential, and periodic kernels) from one-dimensional data, using
reversible-jump Metropolis-Hastings over the space of kernel trees.`,
	}

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run structure search over a two-column (x, y) CSV dataset",
		RunE:  runSearch, // Defined in cmd_run.go
	}

	replayCmd = &cobra.Command{
		Use:   "replay",
		Short: "Replay the recorded samples of a previous run from the journal",
		RunE:  runReplay, // Defined in cmd_replay.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML or JSON config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")

	runCmd.Flags().StringVar(&dataPath, "data", "", "Path to a two-column (x, y) CSV dataset (required)")
	runCmd.Flags().IntVar(&iterations, "iters", 0, "MCMC iterations per chain (overrides config)")
	runCmd.Flags().IntVar(&chains, "chains", 0, "Number of independent chains (overrides config)")
	runCmd.Flags().Uint64Var(&seed, "seed", 0, "Random seed; chain c uses seed+c (overrides config)")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Address for the Prometheus /metrics listener, e.g. :9090")
	runCmd.Flags().StringVar(&journalDir, "journal-dir", "", "Directory for the per-iteration sample journal")
	_ = runCmd.MarkFlagRequired("data")

	replayCmd.Flags().StringVar(&journalDir, "journal-dir", "", "Directory of the sample journal (required)")
	replayCmd.Flags().StringVar(&runID, "run-id", "", "Run id to replay (required)")
	_ = replayCmd.MarkFlagRequired("journal-dir")
	_ = replayCmd.MarkFlagRequired("run-id")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(replayCmd)
}
