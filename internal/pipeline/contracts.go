package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/lecture-notes/constants"
	"github.com/joseph-ayodele/lecture-notes/internal/entity"
	"github.com/joseph-ayodele/lecture-notes/internal/export"
	"github.com/joseph-ayodele/lecture-notes/internal/transcribe"
)

// MediaTransformer is the local ffmpeg side of the media variant.
type MediaTransformer interface {
	ExtractAudio(ctx context.Context, src, dst string) error
	Denoise(ctx context.Context, src, dst string) error
	Probe(ctx context.Context, src string) time.Duration
	Split(ctx context.Context, src, dir, prefix string) []string
	ExtractKeyframes(ctx context.Context, src, dir string) ([]string, error)
}

// VisualContextBuilder OCRs keyframes into one text block.
type VisualContextBuilder interface {
	VisualContext(ctx context.Context, frames []string) string
}

// Transcriber runs STT and refinement over ordered chunks.
type Transcriber interface {
	Run(ctx context.Context, chunks []string) (transcribe.Result, error)
}

// ContentResolver decides the content type of a job.
type ContentResolver interface {
	Resolve(ctx context.Context, requested, transcript string) (constants.ContentType, bool)
}

// NoteGenerator produces Markdown notes.
type NoteGenerator interface {
	Generate(ctx context.Context, ct constants.ContentType, transcript, visual string) (string, error)
	Model() string
}

// DocumentExtractor reads text out of pdf/docx/txt sources.
type DocumentExtractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// Exporter renders and records export artifacts.
type Exporter interface {
	Export(ctx context.Context, noteID uuid.UUID, userID string, doc export.Document, formats []constants.ExportFormat) []*entity.Export
}
