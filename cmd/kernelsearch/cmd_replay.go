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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/kernelsearch/journal"
	"github.com/AleutianAI/kernelsearch/pkg/logging"
)

func runReplay(cmd *cobra.Command, args []string) error {
	logger := logging.New(logging.Config{
		Level:   logging.ParseLevel(logLevel),
		Service: "kernelsearch",
	})
	defer logger.Close()

	jnl, err := journal.Open(journalDir, logger.Slog())
	if err != nil {
		return err
	}
	defer jnl.Close()

	entries, err := jnl.Entries(runID)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("no journal entries for run %q", runID)
	}

	for _, e := range entries {
		fmt.Printf("%6d  logp=%12.4f  noise=%.4f  %s\n", e.Iteration, e.LogProb, e.Noise, e.Kernel)
	}
	return nil
}
