package notes

import (
	"regexp"
	"strings"
)

var (
	reHSpace     = regexp.MustCompile(`[ \t]{2,}`)
	reBlankLines = regexp.MustCompile(`\n{3,}`)
)

// Clean normalizes generated text: LF newlines, no trailing blanks, single
// inner spaces, at most one empty line between blocks.
func Clean(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	lines := strings.Split(s, "\n")
	for i, ln := range lines {
		lines[i] = strings.TrimRight(ln, " \t")
	}
	s = strings.Join(lines, "\n")
	s = reHSpace.ReplaceAllString(s, " ")
	s = reBlankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
