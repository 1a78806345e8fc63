package export

import (
	"io"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/lecture-notes/constants"
)

var reTxtBlank = regexp.MustCompile(`\n{3,}`)

// TXTRenderer writes UTF-8 plain text with a boxed upper-case title.
type TXTRenderer struct{}

func NewTXTRenderer() *TXTRenderer { return &TXTRenderer{} }

func (r *TXTRenderer) Format() constants.ExportFormat { return constants.TXT }

func (r *TXTRenderer) Render(doc Document, w io.Writer) error {
	title := strings.TrimSpace(doc.Title)
	if title == "" {
		title = "Notes"
	}
	rule := strings.Repeat("=", min(len([]rune(title)), 80))

	var b strings.Builder
	b.WriteString(rule + "\n" + strings.ToUpper(title) + "\n" + rule + "\n\n")

	content := reImageAny.ReplaceAllString(doc.Content, "[ILLUSTRATION : $1]")
	for _, ln := range strings.Split(content, "\n") {
		b.WriteString(ln)
		b.WriteByte('\n')
		if t := strings.TrimSpace(ln); strings.HasPrefix(t, "# ") {
			// underline H1 sections
			b.WriteString(strings.Repeat("-", min(len([]rune(t))-2, 80)) + "\n")
		}
	}
	out := reTxtBlank.ReplaceAllString(b.String(), "\n\n")
	_, err := io.WriteString(w, strings.TrimRight(out, "\n")+"\n")
	return err
}
