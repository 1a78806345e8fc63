package llm

import (
	"context"

	"github.com/joseph-ayodele/lecture-notes/internal/entity"
)

// CompletionRequest is one chat-style call: a system instruction plus a user prompt.
type CompletionRequest struct {
	Model       string
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int // 0 = provider default
}

// Completer is the text-refinement and generation contract. Output is not
// deterministic and may be empty; callers must handle that.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// STTResult is what the speech-to-text service returns for one audio file.
type STTResult struct {
	Text     string
	Segments []entity.Segment
	Language string
}

// SpeechToText transcribes one audio file. Implementations reject files over
// their byte ceiling before any network call.
type SpeechToText interface {
	Transcribe(ctx context.Context, audioPath, languageHint string) (STTResult, error)
}
