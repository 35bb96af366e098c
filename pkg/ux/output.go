// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ux renders CLI output for kernelsearch commands.
package ux

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Brand palette.
const (
	ColorTealBright  = lipgloss.Color("#2CD7C7") // highlights, success
	ColorTealPrimary = lipgloss.Color("#20B9B4") // main brand color
	ColorSlate       = lipgloss.Color("#2C4A54") // muted text, borders
	ColorWarning     = lipgloss.Color("#F4D03F")
	ColorError       = lipgloss.Color("#E74C3C")
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(ColorTealBright).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(ColorTealPrimary).
			Width(22)

	valueStyle = lipgloss.NewStyle()

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorSlate).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)
)

// Row is one labeled line of a summary.
type Row struct {
	Label string
	Value string
}

// Summary is a titled block of rows rendered as a bordered box.
type Summary struct {
	Title string
	Rows  []Row
}

// Render returns the styled summary block.
func (s Summary) Render() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(s.Title))
	b.WriteString("\n")
	for _, row := range s.Rows {
		b.WriteString(labelStyle.Render(row.Label))
		b.WriteString(valueStyle.Render(row.Value))
		b.WriteString("\n")
	}
	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// Errorf returns a styled error line.
func Errorf(format string, args ...any) string {
	return errorStyle.Render(fmt.Sprintf(format, args...))
}
