// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelInfo, ParseLevel("info"))
	assert.Equal(t, LevelWarn, ParseLevel("warn"))
	assert.Equal(t, LevelError, ParseLevel("error"))
	// Unknown strings fall back to Info.
	assert.Equal(t, LevelInfo, ParseLevel("chatty"))
	assert.Equal(t, LevelInfo, ParseLevel(""))
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "UNKNOWN", Level(42).String())
}

func TestFileLogging(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{
		Level:   LevelInfo,
		LogDir:  dir,
		Service: "testsvc",
		Quiet:   true,
	})

	logger.Info("chain started", "seed", 7)
	logger.Debug("suppressed below level")
	require.NoError(t, logger.Close())

	files, err := filepath.Glob(filepath.Join(dir, "testsvc_*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "chain started")
	assert.Contains(t, content, `"service":"testsvc"`)
	assert.NotContains(t, content, "suppressed below level")
}

func TestWithAttachesAttributes(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{Level: LevelInfo, LogDir: dir, Service: "testsvc", Quiet: true})

	child := logger.With("chain", 2)
	child.Info("step")
	require.NoError(t, logger.Close())

	files, err := filepath.Glob(filepath.Join(dir, "testsvc_*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"chain":2`)
}

func TestCloseIsIdempotentWithoutFile(t *testing.T) {
	logger := New(Config{Quiet: true})
	assert.NoError(t, logger.Close())
	assert.NoError(t, logger.Close())
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	expanded := expandPath("~/logs")
	assert.True(t, strings.HasPrefix(expanded, home))
	assert.Equal(t, "/var/log", expandPath("/var/log"))
}
