package stats

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// formatTable lays header and rows out in space-separated columns sized by
// display width. Columns in right are right-aligned. Short rows get blank cells.
func formatTable(header []string, rows [][]string, right map[int]bool) []string {
	all := rows
	if len(header) > 0 {
		all = append([][]string{header}, rows...)
	}
	var widths []int
	for _, row := range all {
		for i, cell := range row {
			if i == len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}
	if len(widths) == 0 {
		return nil
	}

	lines := make([]string, len(all))
	cells := make([]string, len(widths))
	for r, row := range all {
		for i, w := range widths {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			if right[i] {
				cells[i] = runewidth.FillLeft(cell, w)
			} else {
				cells[i] = runewidth.FillRight(cell, w)
			}
		}
		lines[r] = strings.Join(cells, " ")
	}
	return lines
}
