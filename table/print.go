package table

import (
	"bufio"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Fprint writes the table as aligned text: a header, a separator line and
// one line per row, columns joined by " | ".
func Fprint(w io.Writer, t *Table) error {
	cols := t.Columns()
	if len(cols) == 0 {
		return nil
	}

	// Display widths, so wide runes stay aligned
	widths := make([]int, len(cols))
	for i, col := range cols {
		widths[i] = runewidth.StringWidth(col)
	}

	// Format all cell values
	cells := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		cells[i] = make([]string, len(cols))
		for j := range cols {
			if j < len(row.Values) {
				cells[i][j] = row.Values[j].AsString()
			} else {
				cells[i][j] = "null"
			}
			if n := runewidth.StringWidth(cells[i][j]); n > widths[j] {
				widths[j] = n
			}
		}
	}

	bw := bufio.NewWriter(w)
	parts := make([]string, len(cols))
	line := func(sep string) {
		bw.WriteString(strings.Join(parts, sep))
		bw.WriteByte('\n')
	}

	for i, col := range cols {
		parts[i] = padRight(col, widths[i])
	}
	line(" | ")

	for i := range cols {
		parts[i] = strings.Repeat("-", widths[i])
	}
	line("-+-")

	for _, row := range cells {
		for i := range cols {
			parts[i] = padRight(row[i], widths[i])
		}
		line(" | ")
	}
	return bw.Flush()
}

func padRight(s string, width int) string {
	n := runewidth.StringWidth(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}
