// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command kernelsearch searches for Gaussian-process covariance
// structure over a one-dimensional dataset by reversible-jump MCMC.
//
// Usage:
//
//	kernelsearch run --data airline.csv
//	kernelsearch run --data airline.csv --iters 1000 --chains 4 --seed 7
//	kernelsearch run --data airline.csv --journal-dir ~/.kernelsearch/journal
//	kernelsearch replay --journal-dir ~/.kernelsearch/journal --run-id <id>
//
// With the metrics listener:
//
//	kernelsearch run --data airline.csv --metrics-addr :9090
//	curl http://localhost:9090/metrics
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
