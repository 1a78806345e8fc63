package ocr

import (
	"context"
	"strings"

	"github.com/joseph-ayodele/lecture-notes/internal/command"
)

// PDFPages extracts the text layer of a PDF, one entry per page.
func (e *Extractor) PDFPages(ctx context.Context, path string) ([]string, error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return nil, command.Describe("pdftotext", errb, err)
	}
	// A form-feed \f is used as page separator by default
	pages := strings.Split(string(out), "\f")
	if n := len(pages); n > 1 && strings.TrimSpace(pages[n-1]) == "" {
		pages = pages[:n-1]
	}
	return pages, nil
}
