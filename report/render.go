// Package report prints one value per rank, collected on
// the root rank, as a box-drawn table or as a list.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
)

// AllRanks is the list filter that keeps every line.
const AllRanks = -1

// cellPadding is the room left around the widest cell.
const cellPadding = 3

// Center pads msg on both sides with fill to reach the
// given display width.
// When the padding is uneven, the extra fill goes on the
// left.
// A message wider than width is returned unchanged.
func Center(msg string, width int, fill string) string {
	diff := width - runewidth.StringWidth(msg)
	if diff <= 0 {
		return msg
	}
	front := diff/2 + diff%2
	back := diff / 2
	return strings.Repeat(fill, front) + msg + strings.Repeat(fill, back)
}

// ColumnWidth computes the uniform column width for a
// table of cells, one per rank.
//
// Columns fit both the largest rank index and the widest
// cell, plus padding.
func ColumnWidth(cells []string) int {
	width := len(strconv.Itoa(len(cells) - 1))
	for _, cell := range cells {
		width = max(width, runewidth.StringWidth(cell))
	}
	return width + cellPadding
}

// TableWidth returns the display width of the table that
// RenderTable would produce for the label and cells.
func TableWidth(label string, cells []string) int {
	return innerWidth(tableColumnWidth(label, cells), len(cells)) + 2
}

// tableColumnWidth widens ColumnWidth until the label fits
// between the table's borders.
func tableColumnWidth(label string, cells []string) int {
	colWidth := ColumnWidth(cells)
	for len(cells) > 0 && innerWidth(colWidth, len(cells)) < runewidth.StringWidth(label) {
		colWidth++
	}
	return colWidth
}

func innerWidth(colWidth, numCols int) int {
	return (colWidth+1)*numCols - 1
}

// RenderTable writes a table with a centered label, one
// column per rank, a row of rank indices and a row of
// cells.
//
// Columns are widened evenly if the label would not fit
// otherwise.
func RenderTable(w io.Writer, label string, cells []string) error {
	colWidth := tableColumnWidth(label, cells)
	empty := func(int) string { return "" }
	index := func(i int) string { return strconv.Itoa(i) }
	value := func(i int) string { return cells[i] }

	var b strings.Builder
	b.WriteString(tableRow("┌", "─", "┐", "─", len(cells), colWidth, empty))
	b.WriteString("│" + Center(label, innerWidth(colWidth, len(cells)), " ") + "│\n")
	b.WriteString(tableRow("├", "┬", "┤", "─", len(cells), colWidth, empty))
	b.WriteString(tableRow("│", "│", "│", " ", len(cells), colWidth, index))
	b.WriteString(tableRow("├", "┼", "┤", "─", len(cells), colWidth, empty))
	b.WriteString(tableRow("│", "│", "│", " ", len(cells), colWidth, value))
	b.WriteString(tableRow("└", "┴", "┘", "─", len(cells), colWidth, empty))
	_, err := io.WriteString(w, b.String())
	return err
}

func tableRow(left, mid, right, fill string, numCols, colWidth int, cell func(i int) string) string {
	var b strings.Builder
	b.WriteString(left)
	for i := 0; i < numCols; i++ {
		if i != 0 {
			b.WriteString(mid)
		}
		b.WriteString(Center(cell(i), colWidth, fill))
	}
	b.WriteString(right)
	b.WriteString("\n")
	return b.String()
}

// RenderList writes one "<marker><rank> <label>: <cell>"
// line per rank, in rank order.
//
// If filter is not negative, only the line for that rank
// is written.
func RenderList(w io.Writer, marker, label string, cells []string, filter int) error {
	var b strings.Builder
	for i, cell := range cells {
		if filter < 0 || filter == i {
			fmt.Fprintf(&b, "%s%d %s: %s\n", marker, i, label, cell)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
