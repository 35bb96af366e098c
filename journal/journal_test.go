// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package journal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestAppendAndEntries(t *testing.T) {
	j := openTestJournal(t)

	at := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	// Append out of order; the key scheme restores iteration order.
	for _, i := range []int{2, 0, 1} {
		require.NoError(t, j.Append("run-a", Entry{
			Iteration: i,
			Kernel:    "Const(0.50)",
			Noise:     0.1,
			LogProb:   -5.5,
			At:        at,
		}))
	}

	entries, err := j.Entries("run-a")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for i, e := range entries {
		assert.Equal(t, i, e.Iteration)
		assert.Equal(t, "Const(0.50)", e.Kernel)
		assert.Equal(t, 0.1, e.Noise)
		assert.Equal(t, -5.5, e.LogProb)
		assert.True(t, e.At.Equal(at))
	}
}

func TestEntriesIsolatesRuns(t *testing.T) {
	j := openTestJournal(t)

	require.NoError(t, j.Append("run-a", Entry{Iteration: 0, Kernel: "Lin(0.10)"}))
	require.NoError(t, j.Append("run-b", Entry{Iteration: 0, Kernel: "SE(0.30)"}))
	require.NoError(t, j.Append("run-b", Entry{Iteration: 1, Kernel: "SE(0.30)"}))

	a, err := j.Entries("run-a")
	require.NoError(t, err)
	assert.Len(t, a, 1)

	b, err := j.Entries("run-b")
	require.NoError(t, err)
	assert.Len(t, b, 2)
}

func TestEntriesUnknownRun(t *testing.T) {
	j := openTestJournal(t)
	entries, err := j.Entries("nope")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAppendOverwritesSameIteration(t *testing.T) {
	j := openTestJournal(t)

	require.NoError(t, j.Append("run-a", Entry{Iteration: 0, Kernel: "old"}))
	require.NoError(t, j.Append("run-a", Entry{Iteration: 0, Kernel: "new"}))

	entries, err := j.Entries("run-a")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "new", entries[0].Kernel)
}

func TestOpenOnDisk(t *testing.T) {
	dir := t.TempDir()
	j, err := Open(dir, nil)
	require.NoError(t, err)

	require.NoError(t, j.Append("run-a", Entry{Iteration: 0, Kernel: "Const(1.00)"}))
	require.NoError(t, j.Close())

	// Reopen and read back.
	j, err = Open(dir, nil)
	require.NoError(t, err)
	defer j.Close()

	entries, err := j.Entries("run-a")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Const(1.00)", entries[0].Kernel)
}

func TestOpenRequiresDir(t *testing.T) {
	_, err := Open("", nil)
	assert.Error(t, err)
}
