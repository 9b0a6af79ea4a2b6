package scanner

import (
	"regexp"
	"strings"
)

// escapePattern matches ANSI color escape sequences, including the malformed
// variants container engines leave behind when the ESC byte is lost or
// mangled in transit.
var escapePattern = regexp.MustCompile("\x1b\\[[0-9;]*m|D\\[[0-9;]*m|\\[[0-9]+m")

// Normalize strips escape sequences and surrounding whitespace from one raw
// log line. The second return is false when nothing remains; empty lines
// produce no event.
func Normalize(raw string) (string, bool) {
	line := escapePattern.ReplaceAllString(strings.TrimSpace(raw), "")
	line = strings.TrimSpace(line)
	return line, line != ""
}
