package vision

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/lecture-notes/constants"
)

// TextExtractor is the OCR contract: empty text on failure, never an error.
type TextExtractor interface {
	ExtractText(ctx context.Context, imagePath string) string
}

// Builder turns sampled keyframes into one visual-context string.
type Builder struct {
	ocr     TextExtractor
	workers int
	maxLen  int
	logger  *slog.Logger
}

func NewBuilder(ocr TextExtractor, workers, maxLen int, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	if workers <= 0 {
		workers = 2
	}
	if maxLen <= 0 {
		maxLen = constants.VisualContextMaxLen
	}
	return &Builder{ocr: ocr, workers: workers, maxLen: maxLen, logger: logger}
}

// VisualContext OCRs frames with bounded parallelism, keeps the non-empty
// results in frame order, drops repeats and caps the joined text.
func (b *Builder) VisualContext(ctx context.Context, frames []string) string {
	if len(frames) == 0 {
		return ""
	}
	start := time.Now()
	texts := make([]string, len(frames))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i, f := range frames {
		g.Go(func() error {
			texts[i] = strings.TrimSpace(b.ocr.ExtractText(gctx, f))
			return nil
		})
	}
	_ = g.Wait()

	unique := Dedupe(texts)
	joined := Cap(strings.Join(unique, "\n"), b.maxLen)
	b.logger.Info("vision.context.ok",
		"frames", len(frames),
		"unique_texts", len(unique),
		"chars", len([]rune(joined)),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return joined
}

// Dedupe drops empty and repeated entries, keeping first occurrences in order.
func Dedupe(texts []string) []string {
	seen := make(map[string]struct{}, len(texts))
	out := make([]string, 0, len(texts))
	for _, t := range texts {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Cap truncates s to at most max runes.
func Cap(s string, max int) string {
	if max <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
