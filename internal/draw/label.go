package draw

import "github.com/mattn/go-runewidth"

// Fit truncates s to at most cells terminal columns, marking the cut with an
// ellipsis. Wide (CJK) runes count as two columns.
func Fit(s string, cells int) string {
	if cells <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= cells {
		return s
	}
	return runewidth.Truncate(s, cells, "…")
}

// Label places text centered on a logical point. It returns the 1-based
// canvas cell where the text starts and the possibly truncated text; ok is
// false when the point is off the canvas vertically.
func (c *Canvas) Label(center Point, text string, maxCells int) (col, row int, s string, ok bool) {
	col, row = c.LogicalToTerminal(center)
	if row < 1 || row > c.termHeight {
		return 0, 0, "", false
	}
	if maxCells <= 0 || maxCells > c.termWidth {
		maxCells = c.termWidth
	}
	s = Fit(text, maxCells)
	width := runewidth.StringWidth(s)
	col -= width / 2
	col = max(1, min(col, c.termWidth-width+1))
	return col, row, s, s != ""
}
