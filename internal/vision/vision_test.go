package vision

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeOCR struct {
	mu       sync.Mutex
	texts    map[string]string
	inflight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeOCR) ExtractText(ctx context.Context, path string) string {
	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.texts[path]
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestVisualContextOrderAndDedupe checks stable dedupe and failed-frame skipping.
func TestVisualContextOrderAndDedupe(t *testing.T) {
	ocr := &fakeOCR{texts: map[string]string{
		"f1": "Title slide",
		"f2": "",
		"f3": "Ohm's law",
		"f4": " Title slide ",
		"f5": "Power",
	}}
	b := NewBuilder(ocr, 2, 5000, quietLogger())

	got := b.VisualContext(context.Background(), []string{"f1", "f2", "f3", "f4", "f5"})
	want := "Title slide\nOhm's law\nPower"
	if got != want {
		t.Fatalf("VisualContext() = %q, want %q", got, want)
	}
	if p := ocr.peak.Load(); p > 2 {
		t.Fatalf("peak concurrency = %d, want <= 2", p)
	}
}

// TestVisualContextCap checks the character budget.
func TestVisualContextCap(t *testing.T) {
	ocr := &fakeOCR{texts: map[string]string{"a": strings.Repeat("é", 30), "b": strings.Repeat("x", 30)}}
	b := NewBuilder(ocr, 1, 40, quietLogger())
	got := b.VisualContext(context.Background(), []string{"a", "b"})
	if n := len([]rune(got)); n != 40 {
		t.Fatalf("len = %d, want 40", n)
	}
	if !strings.HasPrefix(got, strings.Repeat("é", 30)+"\n") {
		t.Fatalf("VisualContext() = %q", got)
	}
}

// TestVisualContextNoFrames checks the empty case.
func TestVisualContextNoFrames(t *testing.T) {
	b := NewBuilder(&fakeOCR{}, 2, 0, quietLogger())
	if got := b.VisualContext(context.Background(), nil); got != "" {
		t.Fatalf("VisualContext() = %q", got)
	}
}
