package notes

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/lecture-notes/constants"
	"github.com/joseph-ayodele/lecture-notes/internal/common"
	"github.com/joseph-ayodele/lecture-notes/internal/llm"
)

// Classifier picks a content type for a transcript. It never fails: any
// provider error or unmatched answer resolves to the default category.
type Classifier struct {
	llm       llm.Completer
	model     string
	sampleLen int
	logger    *slog.Logger
}

func NewClassifier(c llm.Completer, model string, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{llm: c, model: model, sampleLen: constants.ClassifySampleLen, logger: logger}
}

func (c *Classifier) Classify(ctx context.Context, transcript string) constants.ContentType {
	logger := common.LoggerWithContext(ctx, c.logger)
	out, err := c.llm.Complete(ctx, llm.CompletionRequest{
		Model:       c.model,
		System:      llm.ClassifySystemPrompt,
		Prompt:      llm.BuildClassifyPrompt(headRunes(transcript, c.sampleLen)),
		Temperature: 0,
	})
	if err != nil {
		logger.Warn("notes.classify.fallback", "error", err, "content_type", constants.DefaultContentType)
		return constants.DefaultContentType
	}
	ct, ok := constants.MatchContentType(out)
	if !ok {
		logger.Warn("notes.classify.unmatched", "answer", out, "content_type", constants.DefaultContentType)
		return constants.DefaultContentType
	}
	logger.Info("notes.classify.ok", "content_type", ct)
	return ct
}

// Resolve honours an explicit non-auto request and classifies otherwise. The
// bool reports whether classification ran.
func (c *Classifier) Resolve(ctx context.Context, requested, transcript string) (constants.ContentType, bool) {
	ct, ok := constants.Canonicalize(requested)
	if ok && ct != constants.Auto {
		return ct, false
	}
	if !ok {
		c.logger.Warn("unknown content type requested, classifying instead", "requested", requested)
	}
	return c.Classify(ctx, transcript), true
}

func headRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
