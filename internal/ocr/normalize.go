package ocr

import (
	"regexp"
	"strings"
)

var (
	reSpaces = regexp.MustCompile(`[ \t]+`)
	// lines made only of table rules and scanner artifacts
	reBoxNoise = regexp.MustCompile(`^[\s|_\-=~—–•·.,:;'"` + "`" + `]*$`)
)

// Normalize cleans raw OCR output: unix newlines, single spaces, no noise-only
// lines, no leading or trailing blank lines.
func Normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, "\f", "\n")

	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, ln := range lines {
		ln = strings.TrimSpace(reSpaces.ReplaceAllString(ln, " "))
		if ln == "" || reBoxNoise.MatchString(ln) {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, ln)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
