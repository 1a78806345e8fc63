package notes

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joseph-ayodele/lecture-notes/constants"
	"github.com/joseph-ayodele/lecture-notes/internal/common"
	"github.com/joseph-ayodele/lecture-notes/internal/llm"
)

type fakeCompleter struct {
	complete func(req llm.CompletionRequest) (string, error)
	reqs     []llm.CompletionRequest
}

func (f *fakeCompleter) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	f.reqs = append(f.reqs, req)
	return f.complete(req)
}

func answer(s string, err error) *fakeCompleter {
	return &fakeCompleter{complete: func(llm.CompletionRequest) (string, error) { return s, err }}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustWriteFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// TestClassifyMatchesAnswer checks a verbose answer still resolves.
func TestClassifyMatchesAnswer(t *testing.T) {
	c := NewClassifier(answer("Category: meeting.", nil), "m", quietLogger())
	if got := c.Classify(context.Background(), "hello"); got != constants.Meeting {
		t.Fatalf("Classify() = %q, want meeting", got)
	}
}

// TestClassifyFallsBack covers provider errors and unusable answers.
func TestClassifyFallsBack(t *testing.T) {
	for name, f := range map[string]*fakeCompleter{
		"error":     answer("", errors.New("boom")),
		"unmatched": answer("I cannot tell", nil),
		"empty":     answer("", nil),
	} {
		c := NewClassifier(f, "m", quietLogger())
		if got := c.Classify(context.Background(), "x"); got != constants.Course {
			t.Errorf("%s: Classify() = %q, want course", name, got)
		}
	}
}

// TestClassifySamplesHead checks only the leading sample is sent.
func TestClassifySamplesHead(t *testing.T) {
	f := answer("news", nil)
	c := NewClassifier(f, "m", quietLogger())
	long := strings.Repeat("a", constants.ClassifySampleLen) + "TAIL"
	c.Classify(context.Background(), long)
	if len(f.reqs) != 1 || strings.Contains(f.reqs[0].Prompt, "TAIL") {
		t.Fatalf("prompt should carry only the first %d chars", constants.ClassifySampleLen)
	}
}

// TestResolveExplicitSkipsClassification checks explicit types are honoured.
func TestResolveExplicitSkipsClassification(t *testing.T) {
	f := answer("news", nil)
	c := NewClassifier(f, "m", quietLogger())
	ct, classified := c.Resolve(context.Background(), "podcast", "text")
	if ct != constants.Podcast || classified || len(f.reqs) != 0 {
		t.Fatalf("Resolve() = %q,%v calls=%d", ct, classified, len(f.reqs))
	}
	ct, classified = c.Resolve(context.Background(), "auto", "text")
	if ct != constants.News || !classified {
		t.Fatalf("Resolve(auto) = %q,%v", ct, classified)
	}
}

// TestGenerateCleansAndTruncates checks the prompt cap and output normalization.
func TestGenerateCleansAndTruncates(t *testing.T) {
	f := answer("# Title  \r\n\r\n\r\n\r\nBody   text\t\t here  ", nil)
	g := NewGenerator(f, "notes-model", quietLogger())
	g.maxLen = 10
	out, err := g.Generate(context.Background(), constants.Course, strings.Repeat("x", 50), "")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if out != "# Title\n\nBody text here" {
		t.Fatalf("Generate() = %q", out)
	}
	req := f.reqs[0]
	if !strings.Contains(req.Prompt, constants.TruncationMarker) || strings.Contains(req.Prompt, strings.Repeat("x", 11)) {
		t.Fatalf("prompt not truncated: %q", req.Prompt)
	}
	if req.Temperature != 0.15 || req.Model != "notes-model" {
		t.Fatalf("request = %+v", req)
	}
}

// TestGenerateEmptyFails checks an empty answer is a generation failure.
func TestGenerateEmptyFails(t *testing.T) {
	g := NewGenerator(answer(" \n ", nil), "m", quietLogger())
	_, err := g.Generate(context.Background(), constants.Course, "t", "")
	if !errors.Is(err, common.ErrGenerationFailed) {
		t.Fatalf("Generate() error = %v, want ErrGenerationFailed", err)
	}
}

// TestGenerateKeepsTransient checks provider transience survives wrapping.
func TestGenerateKeepsTransient(t *testing.T) {
	g := NewGenerator(answer("", common.MarkTransient(errors.New("503"))), "m", quietLogger())
	_, err := g.Generate(context.Background(), constants.Course, "t", "")
	if !common.IsTransient(err) || !errors.Is(err, common.ErrGenerationFailed) {
		t.Fatalf("Generate() error = %v", err)
	}
}

// TestIntegrateImages covers ordering, numbering and excess markers.
func TestIntegrateImages(t *testing.T) {
	m := constants.ImageMarker
	text := "Intro " + m + " middle " + m + " end " + m + " tail"
	got := IntegrateImages(text, m, []string{"/a/1.jpg", "/a/2.jpg"})
	want := "Intro\n\n![Illustration 1](/a/1.jpg)\n\nmiddle\n\n![Illustration 2](/a/2.jpg)\n\nend tail"
	if got != want {
		t.Fatalf("IntegrateImages() = %q\nwant %q", got, want)
	}
	if strings.Contains(got, m) {
		t.Fatal("marker left in output")
	}
}

// TestIntegrateImagesNoMarkers checks text passes through untouched.
func TestIntegrateImagesNoMarkers(t *testing.T) {
	text := "plain  text\n"
	if got := IntegrateImages(text, constants.ImageMarker, []string{"/x.jpg"}); got != text {
		t.Fatalf("IntegrateImages() = %q", got)
	}
}

// TestSelectFrames checks even spread and order.
func TestSelectFrames(t *testing.T) {
	frames := []string{"f0", "f1", "f2", "f3", "f4", "f5"}
	got := SelectFrames(frames, 3)
	if strings.Join(got, ",") != "f1,f3,f5" {
		t.Fatalf("SelectFrames() = %v", got)
	}
	if got := SelectFrames(frames[:2], 5); len(got) != 2 {
		t.Fatalf("SelectFrames() over-asked = %v", got)
	}
	if got := SelectFrames(frames, 0); got != nil {
		t.Fatalf("SelectFrames(0) = %v", got)
	}
}

// TestPromoteKeyframes checks copies land under the asset dir with absolute paths.
func TestPromoteKeyframes(t *testing.T) {
	src := t.TempDir()
	a := filepath.Join(src, "keyframe_0001.jpg")
	b := filepath.Join(src, "keyframe_0002.jpg")
	mustWriteFile(t, a, "A")
	mustWriteFile(t, b, "B")
	dest := filepath.Join(t.TempDir(), "notes_assets", "m1")

	out, err := PromoteKeyframes([]string{a, b}, dest)
	if err != nil {
		t.Fatalf("PromoteKeyframes() error = %v", err)
	}
	if len(out) != 2 || !filepath.IsAbs(out[0]) || filepath.Base(out[1]) != "keyframe_0002.jpg" {
		t.Fatalf("PromoteKeyframes() = %v", out)
	}
	if err := os.RemoveAll(src); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(out[0])
	if err != nil || string(data) != "A" {
		t.Fatalf("promoted copy = %q, %v", data, err)
	}
}

// TestStructure checks title derivation and H1 sections.
func TestStructure(t *testing.T) {
	doc := Structure("# Thermo\n\nintro\n## Sub\nx\n# Part two\nbody", "Lecture notes")
	if doc.Title != "Thermo" {
		t.Fatalf("Title = %q", doc.Title)
	}
	if len(doc.Sections) != 2 || doc.Sections[1].Heading != "Part two" || doc.Sections[1].Body != "body" {
		t.Fatalf("Sections = %+v", doc.Sections)
	}
	if !strings.Contains(doc.Sections[0].Body, "## Sub") {
		t.Fatalf("subheadings should stay in the body: %q", doc.Sections[0].Body)
	}
}

// TestStructureFallbackTitle checks the default is used without an H1.
func TestStructureFallbackTitle(t *testing.T) {
	doc := Structure("## only sub\ntext", constants.DefaultDocumentTitle)
	if doc.Title != constants.DefaultDocumentTitle {
		t.Fatalf("Title = %q", doc.Title)
	}
	if len(doc.Sections) != 1 || doc.Sections[0].Heading != "" {
		t.Fatalf("Sections = %+v", doc.Sections)
	}
}
