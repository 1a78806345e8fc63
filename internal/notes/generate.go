package notes

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/lecture-notes/constants"
	"github.com/joseph-ayodele/lecture-notes/internal/common"
	"github.com/joseph-ayodele/lecture-notes/internal/llm"
)

// Generator turns a refined transcript into Markdown notes.
type Generator struct {
	llm         llm.Completer
	model       string
	maxLen      int
	marker      string
	temperature float32
	logger      *slog.Logger
}

func NewGenerator(c llm.Completer, model string, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		llm:         c,
		model:       model,
		maxLen:      constants.TranscriptMaxLen,
		marker:      constants.ImageMarker,
		temperature: 0.15,
		logger:      logger,
	}
}

// Model is the identifier recorded in note generation params.
func (g *Generator) Model() string { return g.model }

// Generate issues one completion and returns cleaned Markdown. An error or an
// empty answer fails with common.ErrGenerationFailed.
func (g *Generator) Generate(ctx context.Context, ct constants.ContentType, transcript, visual string) (string, error) {
	logger := common.LoggerWithContext(ctx, g.logger)
	start := time.Now()

	body, truncated := Truncate(transcript, g.maxLen)
	if truncated {
		logger.Warn("notes.generate.truncated", "limit", g.maxLen)
	}
	out, err := g.llm.Complete(ctx, llm.CompletionRequest{
		Model:       g.model,
		System:      llm.BuildNotesSystemPrompt(ct, g.marker),
		Prompt:      llm.BuildNotesPrompt(ct, body, visual),
		Temperature: g.temperature,
	})
	if err != nil {
		// keep ErrTransient visible to the dispatcher
		return "", fmt.Errorf("%w: %w", common.ErrGenerationFailed, err)
	}
	out = Clean(out)
	if out == "" {
		return "", fmt.Errorf("%w: empty completion", common.ErrGenerationFailed)
	}
	logger.Info("notes.generate.ok",
		"content_type", ct,
		"chars", len(out),
		"markers", strings.Count(out, g.marker),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// Truncate caps s at max runes and appends a visible marker when it cut.
func Truncate(s string, max int) (string, bool) {
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s, false
	}
	return string(r[:max]) + constants.TruncationMarker, true
}
