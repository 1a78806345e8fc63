package entity

import (
	"time"

	"github.com/google/uuid"
)

// GenerationParams records how a note was produced.
type GenerationParams struct {
	Model  string `json:"model"`
	Visual bool   `json:"visual"`
	Source string `json:"source"` // "media" | "document"
}

// Note is the structured study artifact generated from a transcript.
type Note struct {
	ID           uuid.UUID        `json:"id"`
	UserID       string           `json:"user_id"`
	TranscriptID uuid.UUID        `json:"transcript_id"`
	MediaID      uuid.UUID        `json:"media_id"`
	Title        string           `json:"title"`
	Content      string           `json:"content"`
	ContentType  string           `json:"content_type"`
	Params       GenerationParams `json:"generation_params"`
	Status       string           `json:"status"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

type NoteUpdate struct {
	Title  *string
	Status *string
}
