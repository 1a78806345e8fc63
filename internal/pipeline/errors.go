package pipeline

import (
	"fmt"

	"github.com/joseph-ayodele/lecture-notes/internal/common"
)

// Stage names used in logs, errors and error_message.
const (
	StageValidate   = "validate"
	StageAudio      = "audio"
	StageKeyframes  = "keyframes"
	StageTranscribe = "transcribe"
	StageExtract    = "extract_text"
	StageGenerate   = "generate"
	StageImages     = "images"
	StagePersist    = "persist"
	StageExport     = "export"
)

// StageError is a stage-aware pipeline failure. Settled reports that the
// orchestrator already persisted a terminal status for the job, in which case
// errors.Is(err, common.ErrFatal) holds.
type StageError struct {
	Stage   string
	Err     error
	Settled bool
}

func (e *StageError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *StageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *StageError) Is(target error) bool {
	return e != nil && e.Settled && target == common.ErrFatal
}
