// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummaryRender(t *testing.T) {
	s := Summary{
		Title: "Kernel Structure Search",
		Rows: []Row{
			{Label: "Kernel", Value: "(Const(0.50) + SE(0.32))"},
			{Label: "Noise", Value: "0.1100"},
		},
	}

	out := s.Render()
	assert.Contains(t, out, "Kernel Structure Search")
	assert.Contains(t, out, "(Const(0.50) + SE(0.32))")
	assert.Contains(t, out, "0.1100")
}

func TestSummaryRenderEmptyRows(t *testing.T) {
	out := Summary{Title: "Empty"}.Render()
	assert.Contains(t, out, "Empty")
}

func TestErrorf(t *testing.T) {
	out := Errorf("inference failed: %v", "boom")
	assert.Contains(t, out, "inference failed: boom")
}
