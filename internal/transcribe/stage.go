package transcribe

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/lecture-notes/constants"
	"github.com/joseph-ayodele/lecture-notes/internal/common"
	"github.com/joseph-ayodele/lecture-notes/internal/entity"
	"github.com/joseph-ayodele/lecture-notes/internal/llm"
)

type Config struct {
	RefineModel   string
	Language      string        // hint sent with every chunk
	MaxBytes      int64         // provider payload ceiling
	ChunkDuration time.Duration // used to shift segment timestamps per chunk
}

// Result is the accumulated transcript of every chunk, in chunk order.
type Result struct {
	Raw      string
	Refined  string
	Segments []entity.Segment
	Language string
	Chunks   int
}

// Stage sends chunks to STT one at a time and refines each transcript.
type Stage struct {
	stt    llm.SpeechToText
	refine llm.Completer
	cfg    Config
	logger *slog.Logger
}

func NewStage(stt llm.SpeechToText, refine llm.Completer, cfg Config, logger *slog.Logger) *Stage {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RefineModel == "" {
		cfg.RefineModel = "llama-3.1-8b-instant"
	}
	if cfg.Language == "" {
		cfg.Language = constants.DefaultLanguage
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = constants.STTMaxBytes
	}
	if cfg.ChunkDuration <= 0 {
		cfg.ChunkDuration = constants.ChunkDuration
	}
	return &Stage{stt: stt, refine: refine, cfg: cfg, logger: logger}
}

// Run processes chunks strictly in order. Chunks with no speech are skipped;
// an empty accumulated result fails with common.ErrEmptyTranscript.
func (s *Stage) Run(ctx context.Context, chunks []string) (Result, error) {
	logger := common.LoggerWithContext(ctx, s.logger)
	var (
		res     = Result{Chunks: len(chunks)}
		raw     []string
		refined []string
	)

	for i, chunk := range chunks {
		fi, err := os.Stat(chunk)
		if err != nil {
			return Result{}, fmt.Errorf("chunk %d: %w: %s", i, common.ErrSourceMissing, chunk)
		}
		if fi.Size() > s.cfg.MaxBytes {
			return Result{}, fmt.Errorf("chunk %d: %w: %d bytes, limit %d", i, common.ErrFileTooLarge, fi.Size(), s.cfg.MaxBytes)
		}

		stt, err := s.stt.Transcribe(ctx, chunk, s.cfg.Language)
		if err != nil {
			return Result{}, fmt.Errorf("transcribe chunk %d: %w", i, err)
		}
		// Only the first chunk decides the language; later detections are
		// ignored and the whole file is assumed to share it.
		if i == 0 {
			res.Language = stt.Language
		}

		text := strings.TrimSpace(stt.Text)
		if text == "" {
			logger.Warn("transcribe.chunk.empty", "chunk", i, "file", filepath.Base(chunk))
			continue
		}

		clean, err := s.refine.Complete(ctx, llm.CompletionRequest{
			Model:       s.cfg.RefineModel,
			System:      llm.RefineSystemPrompt,
			Prompt:      text,
			Temperature: 0.1,
			MaxTokens:   4096,
		})
		if err != nil {
			return Result{}, fmt.Errorf("refine chunk %d: %w", i, err)
		}
		clean = strings.TrimSpace(clean)
		if clean == "" {
			logger.Warn("transcribe.refine.empty", "chunk", i, "fallback", "raw")
			clean = text
		}

		raw = append(raw, text)
		refined = append(refined, clean)
		offset := float64(i) * s.cfg.ChunkDuration.Seconds()
		for _, seg := range stt.Segments {
			seg.Start += offset
			seg.End += offset
			res.Segments = append(res.Segments, seg)
		}
		logger.Info("transcribe.chunk.ok", "chunk", i, "of", len(chunks), "raw_len", len(text), "refined_len", len(clean))
	}

	res.Raw = strings.Join(raw, "\n")
	res.Refined = strings.Join(refined, "\n")
	if res.Language == "" {
		res.Language = s.cfg.Language
	}
	if strings.TrimSpace(res.Refined) == "" {
		return Result{}, fmt.Errorf("%w: %d chunks yielded no text", common.ErrEmptyTranscript, len(chunks))
	}
	return res, nil
}
