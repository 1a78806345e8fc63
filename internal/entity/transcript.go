package entity

import (
	"time"

	"github.com/google/uuid"
)

// Segment is a time-stamped slice of a transcript, in seconds from the start of the source.
type Segment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
	Speaker string  `json:"speaker,omitempty"`
}

// Transcript is the accumulated text result of one job.
type Transcript struct {
	ID            uuid.UUID `json:"id"`
	MediaID       uuid.UUID `json:"media_id"`
	UserID        string    `json:"user_id"`
	RawText       string    `json:"raw_text"`
	RefinedText   string    `json:"refined_text"`
	Segments      []Segment `json:"segments"`
	Language      string    `json:"language"`
	VisualContext string    `json:"visual_context,omitempty"`
	Model         string    `json:"model"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type TranscriptUpdate struct {
	UserID        *string
	RefinedText   *string
	VisualContext *string
}
