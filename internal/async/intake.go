package async

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/lecture-notes/constants"
	"github.com/joseph-ayodele/lecture-notes/internal/common"
	"github.com/joseph-ayodele/lecture-notes/internal/entity"
)

// MediaStore is the media repository surface intake needs.
type MediaStore interface {
	Create(ctx context.Context, m *entity.Media) (*entity.Media, error)
	Update(ctx context.Context, id string, upd entity.MediaUpdate) (*entity.Media, error)
}

// Submission is a request to process one file.
type Submission struct {
	UserID        string
	FilePath      string
	ContentType   string
	ExportFormats []string
}

// Intake records a media row and hands the job to a transport. It returns as
// soon as the job is accepted.
type Intake struct {
	media  MediaStore
	out    Submitter
	logger *slog.Logger
}

func NewIntake(media MediaStore, out Submitter, logger *slog.Logger) *Intake {
	if logger == nil {
		logger = slog.Default()
	}
	return &Intake{media: media, out: out, logger: logger}
}

func (in *Intake) Submit(ctx context.Context, s Submission) (*entity.Media, error) {
	v := common.NewValidator().
		Field("user_id", s.UserID, common.Required, common.MaxLength(128)).
		Field("file_path", s.FilePath, common.Required)
	if err := v.Error(); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(s.FilePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}
	if st, err := os.Stat(abs); err != nil || st.IsDir() {
		return nil, fmt.Errorf("%w: %s", common.ErrSourceMissing, abs)
	}
	kind, ok := constants.KindOf(abs)
	if !ok {
		return nil, fmt.Errorf("%w: %s", common.ErrUnsupportedFormat, filepath.Ext(abs))
	}
	ct, ok := constants.Canonicalize(s.ContentType)
	if !ok {
		return nil, fmt.Errorf("%w: content_type %q", common.ErrInvalidInput, s.ContentType)
	}
	formats, _ := constants.NormalizeExportFormats(s.ExportFormats)

	m, err := in.media.Create(ctx, &entity.Media{
		UserID:        s.UserID,
		Filename:      filepath.Base(abs),
		FilePath:      abs,
		Kind:          kind,
		Status:        constants.StatusProcessing,
		ContentType:   string(ct),
		ExportFormats: constants.ExportFormatsAsStrings(formats),
	})
	if err != nil {
		return nil, err
	}

	doc := kind == constants.KindDocument
	job := Job{
		MediaID:       m.ID.String(),
		FilePath:      abs,
		UserID:        s.UserID,
		ContentType:   string(ct),
		ExportFormats: constants.ExportFormatsAsStrings(formats),
		Document:      &doc,
		SubmittedAt:   time.Now().UTC(),
		TraceID:       uuid.NewString(),
	}
	if err := in.out.Submit(ctx, job); err != nil {
		status := constants.StatusError
		msg := "submit: " + err.Error()
		if _, uerr := in.media.Update(context.WithoutCancel(ctx), m.ID.String(), entity.MediaUpdate{Status: &status, ErrorMessage: &msg}); uerr != nil {
			in.logger.Error("intake.status.persist.failed", "media_id", m.ID.String(), "error", uerr)
		}
		return m, fmt.Errorf("submit job: %w", err)
	}
	in.logger.Info("intake.accepted", "media_id", m.ID.String(), "kind", kind, "trace_id", job.TraceID)
	return m, nil
}
