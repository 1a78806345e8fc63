package export

import (
	"io"

	"github.com/joseph-ayodele/lecture-notes/constants"
)

// Document is the common note shape every renderer consumes.
type Document struct {
	Title   string
	Content string
}

// Renderer writes one format.
type Renderer interface {
	Format() constants.ExportFormat
	Render(doc Document, w io.Writer) error
}

// DefaultRenderers returns one renderer per supported format.
func DefaultRenderers() []Renderer {
	return []Renderer{NewPDFRenderer(), NewDOCXRenderer(), NewTXTRenderer()}
}

func extensionFor(f constants.ExportFormat) string {
	switch f {
	case constants.PDF:
		return ".pdf"
	case constants.DOCX:
		return ".docx"
	case constants.TXT:
		return ".txt"
	}
	return "." + string(f)
}
