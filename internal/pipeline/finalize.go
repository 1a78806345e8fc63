package pipeline

import (
	"context"
	"fmt"

	"github.com/joseph-ayodele/lecture-notes/constants"
	"github.com/joseph-ayodele/lecture-notes/internal/entity"
	"github.com/joseph-ayodele/lecture-notes/internal/export"
	"github.com/joseph-ayodele/lecture-notes/internal/notes"
)

type finalizeInput struct {
	raw          string
	refined      string
	segments     []entity.Segment
	language     string
	visual       string
	content      string
	contentType  constants.ContentType
	model        string
	source       string
	defaultTitle string
}

func (o *Orchestrator) generate(ctx context.Context, j *job, transcript, visual string) (constants.ContentType, string, error) {
	ct, classified := o.Classifier.Resolve(ctx, j.req.ContentType, transcript)
	j.res.ContentType, j.res.Classified = ct, classified
	j.logger.Info("pipeline.content_type", "content_type", ct, "classified", classified)

	content, err := o.Generator.Generate(ctx, ct, transcript, visual)
	if err != nil {
		return ct, "", err
	}
	return ct, content, nil
}

// finalize is shared by both variants: structure, persist transcript and
// note, export, then mark completed.
func (o *Orchestrator) finalize(ctx context.Context, j *job, in finalizeInput) error {
	j.stage = StagePersist
	doc := notes.Structure(in.content, in.defaultTitle)
	mediaID := j.req.MediaID.String()

	tr, err := o.Transcripts.Create(ctx, &entity.Transcript{
		MediaID:       j.req.MediaID,
		UserID:        j.req.UserID,
		RawText:       in.raw,
		RefinedText:   in.refined,
		Segments:      in.segments,
		Language:      in.language,
		VisualContext: in.visual,
		Model:         in.model,
	})
	if err != nil {
		return fmt.Errorf("save transcript: %w", err)
	}
	j.res.TranscriptID = tr.ID

	note, err := o.Notes.Create(ctx, &entity.Note{
		UserID:       j.req.UserID,
		TranscriptID: tr.ID,
		MediaID:      j.req.MediaID,
		Title:        doc.Title,
		Content:      doc.Content,
		ContentType:  string(in.contentType),
		Params: entity.GenerationParams{
			Model:  o.Generator.Model(),
			Visual: in.visual != "",
			Source: in.source,
		},
		Status: constants.NoteStatusCompleted,
	})
	if err != nil {
		return fmt.Errorf("save note: %w", err)
	}
	j.res.NoteID = note.ID

	ct := string(in.contentType)
	if _, err := o.MediaRepo.Update(ctx, mediaID, entity.MediaUpdate{ContentType: &ct}); err != nil {
		return fmt.Errorf("save content type: %w", err)
	}
	j.logger.Info("pipeline.persisted", "transcript_id", tr.ID.String(), "note_id", note.ID.String(), "sections", len(doc.Sections))

	j.stage = StageExport
	formats, fellBack := constants.NormalizeExportFormats(j.req.ExportFormats)
	if fellBack && len(j.req.ExportFormats) > 0 {
		j.logger.Warn("pipeline.export.formats.defaulted", "requested", j.req.ExportFormats)
	}
	if o.Exporter != nil {
		exports := o.Exporter.Export(ctx, note.ID, j.req.UserID, export.Document{Title: doc.Title, Content: doc.Content}, formats)
		j.res.Exports = len(exports)
	}

	return o.enter(ctx, j, StageExport, constants.StatusCompleted)
}
