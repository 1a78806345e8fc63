package constants

// MediaStatus is the user-visible lifecycle state of a submitted media item.
type MediaStatus string

// Stable values (store these exact strings in DB).
const (
	StatusUploaded        MediaStatus = "uploaded"
	StatusProcessing      MediaStatus = "processing"       // accepted, waiting for a worker
	StatusProcessingAudio MediaStatus = "processing_audio" // extraction, denoise, keyframes
	StatusExtractingText  MediaStatus = "extracting_text"  // document variant only
	StatusTranscribing    MediaStatus = "transcribing"
	StatusGeneratingNotes MediaStatus = "generating_notes"
	StatusCompleted       MediaStatus = "completed"
	StatusFailed          MediaStatus = "failed"
	StatusError           MediaStatus = "error"
)

// IsTerminal reports whether no further transition is allowed.
func (s MediaStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusError:
		return true
	}
	return false
}

// NoteStatus values.
const (
	NoteStatusDraft     = "draft"
	NoteStatusCompleted = "completed"
)
