// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
)

var (
	headerRowStyle = lipgloss.NewStyle().Reverse(true).
			Padding(0, 2, 0, 2).Align(lipgloss.Center)
	oddRowStyle = lipgloss.NewStyle().Faint(false).
			PaddingLeft(1).PaddingRight(1)
	evenRowStyle = lipgloss.NewStyle().Faint(true).
			PaddingLeft(1).PaddingRight(1)
	titleStyle = lipgloss.NewStyle().Bold(true).Padding(1, 4, 0, 4)
)

// newPlainTable returns a table with alternating row styles. The alignments are given per column, the last
// one is used for the remaining columns.
func newPlainTable(alignments ...lipgloss.Position) *lgtable.Table {
	return lgtable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
		StyleFunc(func(row, col int) (s lipgloss.Style) {
			if row == lgtable.HeaderRow {
				return headerRowStyle
			}
			if row%2 == 0 {
				s = oddRowStyle
			} else {
				s = evenRowStyle
			}
			alignment := lipgloss.Left
			if col < len(alignments) {
				alignment = alignments[col]
			} else if len(alignments) > 0 {
				alignment = alignments[len(alignments)-1]
			}
			return s.Align(alignment)
		})
}

// renderReport renders the title, the configuration and one row per case.
func renderReport(r report) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(fmt.Sprintf("Reduce with %q, dtype %s, %s layout", r.Op, r.DType, r.Layout)))
	sb.WriteString("\n")

	table := newPlainTable(lipgloss.Left, lipgloss.Left, lipgloss.Left, lipgloss.Right).
		Headers("Case", "Path", "Input", "Axis", "Elements", "Memory", "Time/op", "Throughput")
	for _, result := range r.Results {
		throughput := "-"
		if seconds := result.Elapsed.Seconds(); seconds > 0 {
			throughput = humanize.SIWithDigits(float64(result.Size)/seconds, 2, "elem/s")
		}
		table.Row(
			result.Name,
			result.Path.String(),
			result.Input.String(),
			fmt.Sprintf("%d", result.Axis),
			humanize.Comma(int64(result.Size)),
			humanize.Bytes(uint64(result.Bytes)),
			result.Elapsed.String(),
			throughput,
		)
	}
	sb.WriteString(table.Render())
	return sb.String()
}
