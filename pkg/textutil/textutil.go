// Package textutil provides display-width-aware text helpers.
package textutil

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Ellipsis is appended to truncated strings.
const Ellipsis = "..."

// Truncate shortens s to at most maxWidth display columns, appending an
// ellipsis when anything was cut. Width is measured in terminal cells, so
// East Asian characters count as two columns.
func Truncate(s string, maxWidth int) string {
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}

	return runewidth.Truncate(s, maxWidth, Ellipsis)
}

// NormalizeWhitespace collapses whitespace runs into single spaces and trims
// the ends.
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
