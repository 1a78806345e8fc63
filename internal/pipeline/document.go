package pipeline

import (
	"context"
	"fmt"

	"github.com/joseph-ayodele/lecture-notes/constants"
)

// ProcessDocument runs the text variant:
// extracting_text → generating_notes → completed.
func (o *Orchestrator) ProcessDocument(ctx context.Context, req Request) (Result, error) {
	return o.run(ctx, req, "document", o.document)
}

func (o *Orchestrator) document(ctx context.Context, j *job) error {
	if o.Documents == nil {
		return fmt.Errorf("document variant not configured")
	}
	if err := o.enter(ctx, j, StageExtract, constants.StatusExtractingText); err != nil {
		return err
	}
	if err := requireSource(j.req.FilePath); err != nil {
		return err
	}
	text, err := o.Documents.Extract(ctx, j.req.FilePath)
	if err != nil {
		return err
	}

	if err := o.enter(ctx, j, StageGenerate, constants.StatusGeneratingNotes); err != nil {
		return err
	}
	ct, content, err := o.generate(ctx, j, text, "")
	if err != nil {
		return err
	}
	// no frames: any marker the model emitted is dropped
	content = o.integrateImages(j, content, nil)

	return o.finalize(ctx, j, finalizeInput{
		raw:          text,
		refined:      text,
		language:     o.Language,
		content:      content,
		contentType:  ct,
		model:        documentModelLabel,
		source:       "document",
		defaultTitle: constants.DefaultDocumentTitle,
	})
}
