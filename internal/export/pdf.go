package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/encoding/charmap"

	"github.com/joseph-ayodele/lecture-notes/constants"
)

const (
	pdfMargin     = 50.0
	pdfImageMax   = 450.0
	pdfLineHeight = 14.0
)

// PDFRenderer draws notes on A4 with the core Helvetica fonts.
type PDFRenderer struct {
	// OnImageError is called for images that cannot be embedded. Optional.
	OnImageError func(path string, err error)
}

func NewPDFRenderer() *PDFRenderer { return &PDFRenderer{} }

func (r *PDFRenderer) Format() constants.ExportFormat { return constants.PDF }

func (r *PDFRenderer) Render(doc Document, w io.Writer) error {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.SetTitle(toWin1252(doc.Title), false)
	pdf.AddPage()
	pageW, _ := pdf.GetPageSize()
	width := pageW - 2*pdfMargin

	title := doc.Title
	if strings.TrimSpace(title) == "" {
		title = "Notes"
	}
	pdf.SetFont("Helvetica", "B", 24)
	pdf.SetTextColor(44, 62, 80)
	pdf.MultiCell(width, 30, toWin1252(title), "", "C", false)
	pdf.Ln(20)
	pdf.SetTextColor(0, 0, 0)

	for _, b := range Parse(doc.Content) {
		switch b.Kind {
		case BlockBlank:
			pdf.Ln(6)
		case BlockHeading:
			size := map[int]float64{1: 18, 2: 15, 3: 13}[b.Level]
			pdf.Ln(4)
			pdf.SetFont("Helvetica", "B", size)
			pdf.MultiCell(width, size+4, toWin1252(b.Text), "", "L", false)
			pdf.Ln(2)
		case BlockBullet:
			pdf.SetFont("Helvetica", "", 11)
			pdf.SetX(pdfMargin + 10)
			pdf.MultiCell(width-10, pdfLineHeight, toWin1252("• "+b.Text), "", "L", false)
		case BlockNumbered:
			pdf.SetFont("Helvetica", "", 11)
			pdf.SetX(pdfMargin + 10)
			pdf.MultiCell(width-10, pdfLineHeight, toWin1252(fmt.Sprintf("%d. %s", b.Number, b.Text)), "", "L", false)
		case BlockAlert:
			pdf.SetFont("Helvetica", "I", 11)
			pdf.SetFillColor(242, 244, 244)
			pdf.SetTextColor(52, 73, 94)
			pdf.SetX(pdfMargin + 20)
			pdf.MultiCell(width-20, pdfLineHeight+2, toWin1252(b.Text), "", "L", true)
			pdf.SetTextColor(0, 0, 0)
		case BlockImage:
			r.image(pdf, b.Path, pageW)
		default:
			pdf.SetFont("Helvetica", "", 11)
			pdf.MultiCell(width, pdfLineHeight, toWin1252(b.Text), "", "L", false)
		}
	}
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("pdf layout: %w", err)
	}
	return pdf.Output(w)
}

// image embeds path centered, capped at pdfImageMax points wide. Failures are
// reported and skipped so one bad frame does not lose the document.
func (r *PDFRenderer) image(pdf *fpdf.Fpdf, path string, pageW float64) {
	kind := imageType(path)
	if kind == "" {
		r.imageError(path, fmt.Errorf("unsupported image type"))
		return
	}
	if _, err := os.Stat(path); err != nil {
		r.imageError(path, err)
		return
	}
	opts := fpdf.ImageOptions{ImageType: kind, ReadDpi: true}
	info := pdf.RegisterImageOptions(path, opts)
	if err := pdf.Error(); err != nil || info == nil {
		pdf.ClearError()
		r.imageError(path, err)
		return
	}
	w, h := info.Width(), info.Height()
	if w <= 0 || h <= 0 {
		return
	}
	if w > pdfImageMax {
		h = h * pdfImageMax / w
		w = pdfImageMax
	}
	pdf.Ln(6)
	pdf.ImageOptions(path, (pageW-w)/2, -1, w, h, true, opts, 0, "")
	pdf.Ln(6)
}

func (r *PDFRenderer) imageError(path string, err error) {
	if r.OnImageError != nil {
		r.OnImageError(path, err)
	}
}

func imageType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "JPG"
	case ".png":
		return "PNG"
	}
	return ""
}

// toWin1252 maps s onto the core-font code page, dropping runes it cannot
// represent (emoji, CJK, Cyrillic).
func toWin1252(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if c, ok := charmap.Windows1252.EncodeRune(r); ok {
			b.WriteByte(c)
		}
	}
	return b.String()
}
