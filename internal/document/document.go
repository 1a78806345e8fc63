package document

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/joseph-ayodele/lecture-notes/constants"
	"github.com/joseph-ayodele/lecture-notes/internal/common"
)

// PDFTextExtractor returns the text layer of a PDF, one entry per page.
type PDFTextExtractor interface {
	PDFPages(ctx context.Context, path string) ([]string, error)
}

// Extractor pulls plain text out of pdf, docx and txt files.
type Extractor struct {
	pdf      PDFTextExtractor
	minChars int
	logger   *slog.Logger
}

func NewExtractor(pdf PDFTextExtractor, minChars int, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if minChars <= 0 {
		minChars = constants.MinDocumentTextLen
	}
	return &Extractor{pdf: pdf, minChars: minChars, logger: logger}
}

// Extract returns the document text. It fails with ErrUnsupportedFormat for
// unknown extensions and ErrInsufficientText when fewer than minChars
// non-space characters come out.
func (e *Extractor) Extract(ctx context.Context, path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", common.ErrSourceMissing, path)
		}
		return "", err
	}

	ext := constants.NormalizeExt(filepath.Ext(path))
	var (
		text string
		err  error
	)
	switch ext {
	case "pdf":
		text, err = e.extractPDF(ctx, path)
	case "docx":
		text, err = extractDOCX(path)
	case "txt":
		text, err = extractTXT(path)
	default:
		return "", fmt.Errorf("%w: .%s", common.ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", ext, err)
	}

	text = strings.TrimSpace(text)
	if n := countNonSpace(text); n < e.minChars {
		return "", fmt.Errorf("%w: %d characters, need %d", common.ErrInsufficientText, n, e.minChars)
	}
	e.logger.Info("document.extract.ok", "path", path, "format", ext, "chars", utf8.RuneCountInString(text))
	return text, nil
}

func (e *Extractor) extractPDF(ctx context.Context, path string) (string, error) {
	if e.pdf == nil {
		return "", fmt.Errorf("%w: no pdf extractor configured", common.ErrToolUnavailable)
	}
	pages, err := e.pdf.PDFPages(ctx, path)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for i, p := range pages {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "--- Page %d ---\n%s", i+1, p)
	}
	return b.String(), nil
}

// extractDOCX reads paragraph text from word/document.xml.
func extractDOCX(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", err
	}
	defer zr.Close()

	var body io.ReadCloser
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			body, err = f.Open()
			if err != nil {
				return "", err
			}
			break
		}
	}
	if body == nil {
		return "", errors.New("word/document.xml not found")
	}
	defer body.Close()

	dec := xml.NewDecoder(body)
	var (
		paras []string
		cur   strings.Builder
		inT   bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inT = true
			case "tab":
				cur.WriteByte('\t')
			case "br", "cr":
				cur.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inT = false
			case "p":
				if s := strings.TrimSpace(cur.String()); s != "" {
					paras = append(paras, s)
				}
				cur.Reset()
			}
		case xml.CharData:
			if inT {
				cur.Write(t)
			}
		}
	}
	return strings.Join(paras, "\n"), nil
}

// extractTXT reads UTF-8, falling back to Latin-1 for legacy files.
func extractTXT(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	raw = []byte(strings.TrimPrefix(string(raw), "\ufeff"))
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func countNonSpace(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}
