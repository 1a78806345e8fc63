package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/lecture-notes/constants"
)

// Export is one rendered file derived from a note.
type Export struct {
	ID        uuid.UUID              `json:"id"`
	UserID    string                 `json:"user_id"`
	NoteID    uuid.UUID              `json:"note_id"`
	Format    constants.ExportFormat `json:"format"`
	FilePath  string                 `json:"file_path"`
	FileSize  int64                  `json:"file_size"`
	CreatedAt time.Time              `json:"created_at"`
}
