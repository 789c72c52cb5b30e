// Package strings holds text helpers for CLI output.
package strings

import "strings"

// DescriptionWidth is the column width for descriptions in tables.
const DescriptionWidth = 60

const ellipsis = "..."

// Truncate collapses whitespace in s onto one line and cuts it to at most
// width runes, marking the cut with "...". Widths below 4 are raised to 4.
func Truncate(s string, width int) string {
	if width < len(ellipsis)+1 {
		width = len(ellipsis) + 1
	}
	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-len(ellipsis)]) + ellipsis
}
