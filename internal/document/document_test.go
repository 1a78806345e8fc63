package document

import (
	"archive/zip"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joseph-ayodele/lecture-notes/internal/common"
)

type fakePDF struct {
	pages []string
	err   error
}

func (f fakePDF) PDFPages(ctx context.Context, path string) ([]string, error) {
	return f.pages, f.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustWriteFile(t *testing.T, path string, content []byte) {
	t.Helper()
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

const longText = "La thermodynamique étudie les échanges d'énergie entre systèmes."

// TestExtractPDFMarksPages checks page markers and empty-page skipping.
func TestExtractPDFMarksPages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cours.pdf")
	mustWriteFile(t, path, []byte("%PDF"))
	e := NewExtractor(fakePDF{pages: []string{longText, "   ", "Second law"}}, 0, quietLogger())

	got, err := e.Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	want := "--- Page 1 ---\n" + longText + "\n\n--- Page 3 ---\nSecond law"
	if got != want {
		t.Fatalf("Extract() = %q, want %q", got, want)
	}
}

// TestExtractDOCXParagraphs checks run concatenation and paragraph breaks.
func TestExtractDOCXParagraphs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.docx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	zw := zip.NewWriter(f)
	w, _ := zw.Create("word/document.xml")
	_, _ = io.WriteString(w, `<?xml version="1.0"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`+
		`<w:p><w:r><w:t>La thermodynamique </w:t></w:r><w:r><w:t>étudie les échanges d'énergie</w:t></w:r></w:p>`+
		`<w:p></w:p>`+
		`<w:p><w:r><w:t>entre systèmes et leur environnement.</w:t></w:r></w:p>`+
		`</w:body></w:document>`)
	_ = zw.Close()
	_ = f.Close()

	got, err := NewExtractor(nil, 0, quietLogger()).Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	want := "La thermodynamique étudie les échanges d'énergie\nentre systèmes et leur environnement."
	if got != want {
		t.Fatalf("Extract() = %q, want %q", got, want)
	}
}

// TestExtractTXTLatin1Fallback checks decoding of non-UTF-8 input.
func TestExtractTXTLatin1Fallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.txt")
	latin1 := []byte("Cours de thermodynamique : l'\xe9nergie interne d'un syst\xe8me ferm\xe9.")
	mustWriteFile(t, path, latin1)

	got, err := NewExtractor(nil, 0, quietLogger()).Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if !strings.Contains(got, "l'énergie interne d'un système fermé") {
		t.Fatalf("Extract() = %q", got)
	}
}

// TestExtractInsufficientText checks the minimum text rule.
func TestExtractInsufficientText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.txt")
	mustWriteFile(t, path, []byte("   too short   "))
	_, err := NewExtractor(nil, 0, quietLogger()).Extract(context.Background(), path)
	if !errors.Is(err, common.ErrInsufficientText) {
		t.Fatalf("Extract() error = %v, want ErrInsufficientText", err)
	}
}

// TestExtractUnsupported checks unknown extensions are rejected.
func TestExtractUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slides.pptx")
	mustWriteFile(t, path, []byte("x"))
	_, err := NewExtractor(nil, 0, quietLogger()).Extract(context.Background(), path)
	if !errors.Is(err, common.ErrUnsupportedFormat) {
		t.Fatalf("Extract() error = %v, want ErrUnsupportedFormat", err)
	}
}
