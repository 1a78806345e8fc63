package constants

import "time"

// Defaults shared by the pipeline stages. All of them can be overridden via config.
const (
	SampleRate           = 16000
	ChunkDuration        = 600 * time.Second
	KeyframeInterval     = 2 * time.Second
	VisualContextMaxLen  = 5000
	TranscriptMaxLen     = 60000
	ClassifySampleLen    = 2000
	MinDocumentTextLen   = 50
	STTMaxBytes          = 25 * 1024 * 1024
	DefaultLanguage      = "fr"
	ImageMarker          = "изображение"
	TruncationMarker     = "... [truncated]"
	DefaultMediaTitle    = "Lecture notes"
	DefaultDocumentTitle = "Document notes"
)
