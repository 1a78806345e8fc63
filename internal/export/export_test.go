package export

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/lecture-notes/constants"
	"github.com/joseph-ayodele/lecture-notes/internal/entity"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: uint8(y), B: 40, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
}

type memRecorder struct {
	rows []*entity.Export
	err  error
}

func (m *memRecorder) Create(ctx context.Context, e *entity.Export) (*entity.Export, error) {
	if m.err != nil {
		return nil, m.err
	}
	row := *e
	row.ID = uuid.New()
	m.rows = append(m.rows, &row)
	return &row, nil
}

type failingRenderer struct{ format constants.ExportFormat }

func (f failingRenderer) Format() constants.ExportFormat { return f.format }
func (f failingRenderer) Render(Document, io.Writer) error {
	return errors.New("renderer exploded")
}

type panickingRenderer struct{}

func (panickingRenderer) Format() constants.ExportFormat { return constants.TXT }
func (panickingRenderer) Render(Document, io.Writer) error {
	panic("boom")
}

const sample = "# Heat\n\nIntro with **bold** text.\n\n## Laws\n- first\n* second\n1. one\n2) two\n> careful here\n![Illustration 1](/nope/frame.png)\n"

// TestParseBlocks checks each supported construct is recognised.
func TestParseBlocks(t *testing.T) {
	blocks := Parse(sample)
	var kinds []BlockKind
	for _, b := range blocks {
		if b.Kind != BlockBlank {
			kinds = append(kinds, b.Kind)
		}
	}
	want := []BlockKind{BlockHeading, BlockParagraph, BlockHeading, BlockBullet, BlockBullet, BlockNumbered, BlockNumbered, BlockAlert, BlockImage}
	if len(kinds) != len(want) {
		t.Fatalf("Parse() kinds = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("block %d kind = %v, want %v", i, kinds[i], want[i])
		}
	}
	if blocks[2].Text != "Intro with bold text." {
		t.Fatalf("inline markup kept: %q", blocks[2].Text)
	}
	last := blocks[len(blocks)-2]
	if last.Alt != "Illustration 1" || last.Path != "/nope/frame.png" {
		t.Fatalf("image block = %+v", last)
	}
}

// TestTXTRender checks the boxed title and image placeholders.
func TestTXTRender(t *testing.T) {
	var buf bytes.Buffer
	if err := NewTXTRenderer().Render(Document{Title: "Heat", Content: sample}, &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "====\nHEAT\n====\n\n") {
		t.Fatalf("header = %q", out[:20])
	}
	if !strings.Contains(out, "[ILLUSTRATION : Illustration 1]") || strings.Contains(out, "](") {
		t.Fatalf("image not replaced:\n%s", out)
	}
	if !strings.Contains(out, "# Heat\n----\n") {
		t.Fatalf("H1 not underlined:\n%s", out)
	}
}

// TestTXTRuleCapped checks the title rule never exceeds 80 columns.
func TestTXTRuleCapped(t *testing.T) {
	var buf bytes.Buffer
	_ = NewTXTRenderer().Render(Document{Title: strings.Repeat("t", 120)}, &buf)
	first := strings.SplitN(buf.String(), "\n", 2)[0]
	if len(first) != 80 {
		t.Fatalf("rule length = %d", len(first))
	}
}

// TestDOCXRender checks the package parts, control char stripping and image embedding.
func TestDOCXRender(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "keyframe_0001.png")
	writePNG(t, img, 40, 20)
	var skipped []string
	r := NewDOCXRenderer()
	r.OnImageError = func(path string, err error) { skipped = append(skipped, path) }

	content := "Bad\x01char & <tag>\n![Illustration 1](" + img + ")\n![Illustration 2](/missing.png)"
	var buf bytes.Buffer
	if err := r.Render(Document{Title: "T\x0bitle", Content: content}, &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("zip.NewReader() error = %v", err)
	}
	files := map[string]string{}
	for _, f := range zr.File {
		rc, _ := f.Open()
		data, _ := io.ReadAll(rc)
		rc.Close()
		files[f.Name] = string(data)
	}
	for _, name := range []string{"[Content_Types].xml", "_rels/.rels", "word/document.xml", "word/styles.xml", "word/media/image1.png"} {
		if _, ok := files[name]; !ok {
			t.Fatalf("missing part %s", name)
		}
	}
	doc := files["word/document.xml"]
	if strings.ContainsAny(doc, "\x01\x0b") {
		t.Fatal("control characters left in document.xml")
	}
	if !strings.Contains(doc, "Badchar &amp; &lt;tag&gt;") || !strings.Contains(doc, ">Title<") {
		t.Fatalf("text not escaped/cleaned: %s", doc)
	}
	// 40x20 px stays at its natural 96 dpi size
	if !strings.Contains(doc, `cx="381000" cy="190500"`) {
		t.Fatalf("image extent wrong: %s", doc)
	}
	if len(skipped) != 1 || skipped[0] != "/missing.png" {
		t.Fatalf("skipped = %v", skipped)
	}
}

// TestDOCXWideImageCapped checks wide frames are scaled down to the 5in text width.
func TestDOCXWideImageCapped(t *testing.T) {
	img := filepath.Join(t.TempDir(), "keyframe_0002.png")
	writePNG(t, img, 900, 300)
	var buf bytes.Buffer
	if err := NewDOCXRenderer().Render(Document{Title: "Wide", Content: "![Illustration 1](" + img + ")"}, &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("zip.NewReader() error = %v", err)
	}
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, _ := f.Open()
		data, _ := io.ReadAll(rc)
		rc.Close()
		if !strings.Contains(string(data), `cx="4572000" cy="1524000"`) {
			t.Fatalf("image extent wrong: %s", data)
		}
		return
	}
	t.Fatal("missing word/document.xml")
}

// TestPDFRender checks a PDF is produced even with unencodable text and bad images.
func TestPDFRender(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "wide.png")
	writePNG(t, img, 900, 300)
	var skipped int
	r := NewPDFRenderer()
	r.OnImageError = func(string, error) { skipped++ }

	content := sample + "\nÉté 🚀 привет\n![x](" + img + ")\n"
	var buf bytes.Buffer
	if err := r.Render(Document{Title: "Notes 🎓", Content: content}, &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("not a PDF: %q", buf.Bytes()[:8])
	}
	if skipped != 1 {
		t.Fatalf("skipped images = %d, want 1", skipped)
	}
}

// TestToWin1252 checks accents survive and other scripts are dropped.
func TestToWin1252(t *testing.T) {
	got := toWin1252("Été 🚀 ok – €")
	if got != "\xc9t\xe9  ok \x96 \x80" {
		t.Fatalf("toWin1252() = %q", got)
	}
}

// TestServiceIsolatesFailures checks one failing format leaves the others recorded.
func TestServiceIsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	rec := &memRecorder{}
	s := NewService(dir, rec, quietLogger(), NewPDFRenderer(), failingRenderer{constants.DOCX}, NewTXTRenderer())

	out := s.Export(context.Background(), uuid.New(), "u1", Document{Title: "T", Content: "body"}, constants.DefaultExportFormats)
	if len(out) != 2 || len(rec.rows) != 2 {
		t.Fatalf("Export() = %d rows, recorded %d, want 2", len(out), len(rec.rows))
	}
	for _, e := range out {
		if e.Format == constants.DOCX {
			t.Fatal("failed format was recorded")
		}
		st, err := os.Stat(e.FilePath)
		if err != nil || st.Size() != e.FileSize || e.FileSize == 0 {
			t.Fatalf("export %s size = %d, stat %v", e.Format, e.FileSize, err)
		}
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 2 {
		t.Fatalf("partial files left behind: %d entries", len(entries))
	}
}

// TestServiceZeroSuccess checks total failure is not an error.
func TestServiceZeroSuccess(t *testing.T) {
	s := NewService(t.TempDir(), &memRecorder{}, quietLogger(), panickingRenderer{})
	out := s.Export(context.Background(), uuid.New(), "u1", Document{Title: "T"}, []constants.ExportFormat{constants.TXT, constants.PDF})
	if len(out) != 0 {
		t.Fatalf("Export() = %d rows, want 0", len(out))
	}
}

// TestServiceRecordFailureRemovesFile checks a file without a row is not kept.
func TestServiceRecordFailureRemovesFile(t *testing.T) {
	dir := t.TempDir()
	s := NewService(dir, &memRecorder{err: errors.New("db down")}, quietLogger())
	if out := s.Export(context.Background(), uuid.New(), "u", Document{Title: "T"}, []constants.ExportFormat{constants.TXT}); len(out) != 0 {
		t.Fatalf("Export() = %v", out)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("orphan export left: %d", len(entries))
	}
}

type fakePruner struct{ paths []string }

func (f *fakePruner) DeleteByFilePath(ctx context.Context, path string) (int64, error) {
	f.paths = append(f.paths, path)
	return 1, nil
}

// TestSweepRemovesOldFiles checks only stale files and their rows go.
func TestSweepRemovesOldFiles(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "export_old.pdf")
	fresh := filepath.Join(dir, "export_new.txt")
	for _, p := range []string{old, fresh} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	past := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(old, past, past); err != nil {
		t.Fatal(err)
	}
	pr := &fakePruner{}
	s := NewSweeper(dir, 24*time.Hour, pr, quietLogger())

	n, err := s.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if n != 1 {
		t.Fatalf("Sweep() = %d, want 1", n)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatal("old export still present")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Fatal("fresh export removed")
	}
	if len(pr.paths) != 1 || pr.paths[0] != old {
		t.Fatalf("pruned = %v", pr.paths)
	}
}

// TestSweepMissingDir checks a missing directory is a no-op.
func TestSweepMissingDir(t *testing.T) {
	s := NewSweeper(filepath.Join(t.TempDir(), "nope"), time.Hour, nil, quietLogger())
	if n, err := s.Sweep(context.Background()); n != 0 || err != nil {
		t.Fatalf("Sweep() = %d, %v", n, err)
	}
}

type fakeNotes struct{ notes []*entity.Note }

func (f fakeNotes) List(ctx context.Context, limit int) ([]*entity.Note, error) { return f.notes, nil }

type fakeExports map[string][]*entity.Export

func (f fakeExports) ListByNote(ctx context.Context, id string) ([]*entity.Export, error) {
	return f[id], nil
}

// TestInventoryWorkbook checks the sheet layout and one data row.
func TestInventoryWorkbook(t *testing.T) {
	n := &entity.Note{ID: uuid.New(), MediaID: uuid.New(), Title: "Heat", ContentType: "course", CreatedAt: time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)}
	ex := fakeExports{n.ID.String(): {
		{Format: constants.PDF, FilePath: "/e/a.pdf"},
		{Format: constants.TXT, FilePath: "/e/a.txt"},
	}}
	data, err := NewInventory(fakeNotes{notes: []*entity.Note{n}}, ex, quietLogger()).WorkbookXLSX(context.Background(), 0)
	if err != nil {
		t.Fatalf("WorkbookXLSX() error = %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Notes")
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 2 || rows[0][0] != "Created" || rows[0][5] != "Export Paths" {
		t.Fatalf("rows = %v", rows)
	}
	if rows[1][1] != "Heat" || rows[1][4] != "pdf, txt" || rows[1][0] != "2025-03-01 09:30" {
		t.Fatalf("data row = %v", rows[1])
	}
}
