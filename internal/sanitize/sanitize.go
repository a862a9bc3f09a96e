// Package sanitize strips terminal escape sequences and non-printable
// characters so text can be laid out on a fixed-width grid.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	// ESC, a C1 introducer, parameter bytes, intermediate bytes, one final byte.
	escapeSeq   = regexp.MustCompile(`\x1B[@-_][0-?]*[ -/]*[@-~]`)
	unprintable = regexp.MustCompile(`[^\x20-\x7E\n\t\r]+`)
)

// Clean removes escape sequences, then every rune outside printable ASCII
// except newline, tab and carriage return, then trims surrounding whitespace.
func Clean(text string) string {
	text = escapeSeq.ReplaceAllString(text, "")
	text = unprintable.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
