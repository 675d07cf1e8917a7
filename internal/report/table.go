// Package report renders the dry-run selection preview.
package report

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/Happyfeet01/reblogging/internal/selector"
)

const maxTitleWidth = 60

// SelectionTable renders the selected articles as an aligned markdown table,
// oldest first, showing what a live run would publish.
func SelectionTable(picks []selector.Candidate) string {
	rows := [][]string{{"Published", "URL", "Title"}}

	for _, pick := range picks {
		rows = append(rows, []string{
			pick.Article.PublishedAt.UTC().Format("2006-01-02"),
			pick.NormalizedURL,
			truncate(pick.Article.Title, maxTitleWidth),
		})
	}

	widths := columnWidths(rows)

	var b strings.Builder

	writeRow(&b, rows[0], widths)
	writeSeparator(&b, widths)

	for _, row := range rows[1:] {
		writeRow(&b, row, widths)
	}

	return b.String()
}

// columnWidths computes the display width of each column, using runewidth so
// double-width characters in titles do not break the alignment.
func columnWidths(rows [][]string) []int {
	widths := make([]int, len(rows[0]))

	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	return widths
}

func writeRow(b *strings.Builder, row []string, widths []int) {
	b.WriteString("|")

	for i, cell := range row {
		b.WriteString(" ")
		b.WriteString(cell)
		b.WriteString(strings.Repeat(" ", widths[i]-runewidth.StringWidth(cell)))
		b.WriteString(" |")
	}

	b.WriteString("\n")
}

func writeSeparator(b *strings.Builder, widths []int) {
	b.WriteString("|")

	for _, w := range widths {
		b.WriteString(strings.Repeat("-", w+2))
		b.WriteString("|")
	}

	b.WriteString("\n")
}

func truncate(s string, maxWidth int) string {
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}

	return runewidth.Truncate(s, maxWidth, "...")
}
