package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/lecture-notes/constants"
)

// Media represents an uploaded lecture file and the job processing it.
type Media struct {
	ID            uuid.UUID             `json:"id"`
	UserID        string                `json:"user_id"`
	Filename      string                `json:"filename"`
	FilePath      string                `json:"file_path"`
	Kind          constants.MediaKind   `json:"media_kind"`
	Status        constants.MediaStatus `json:"status"`
	ContentType   string                `json:"content_type,omitempty"`
	ExportFormats []string              `json:"export_formats,omitempty"`
	ErrorMessage  *string               `json:"error_message,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

// MediaUpdate carries the fields to merge into a media row; nil means unchanged.
type MediaUpdate struct {
	Status        *constants.MediaStatus
	ContentType   *string
	ExportFormats []string
	ErrorMessage  *string
}
