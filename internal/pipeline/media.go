package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/lecture-notes/constants"
	"github.com/joseph-ayodele/lecture-notes/internal/notes"
)

// ProcessMedia runs the audio/video variant:
// processing_audio → transcribing → generating_notes → completed.
func (o *Orchestrator) ProcessMedia(ctx context.Context, req Request) (Result, error) {
	return o.run(ctx, req, "media", o.media)
}

func (o *Orchestrator) media(ctx context.Context, j *job) error {
	if o.Media == nil || o.Transcriber == nil {
		return fmt.Errorf("media variant not configured")
	}
	if err := o.enter(ctx, j, StageAudio, constants.StatusProcessingAudio); err != nil {
		return err
	}
	if err := requireSource(j.req.FilePath); err != nil {
		return err
	}
	kind, _ := constants.KindOf(j.req.FilePath)
	if d := o.Media.Probe(ctx, j.req.FilePath); d > 0 {
		j.logger.Info("pipeline.media.duration", "seconds", int(d.Seconds()), "kind", kind)
	}

	id := j.req.MediaID.String()
	audioDir := o.Storage.AudioDir()
	if err := os.MkdirAll(audioDir, 0o755); err != nil {
		return err
	}
	raw := j.ws.Register(filepath.Join(audioDir, id+"_raw.wav"))
	if err := o.Media.ExtractAudio(ctx, j.req.FilePath, raw); err != nil {
		return err
	}
	clean := j.ws.Register(filepath.Join(audioDir, id+"_clean.wav"))
	if err := o.Media.Denoise(ctx, raw, clean); err != nil {
		j.logger.Warn("pipeline.denoise.skipped", "error", err)
		clean = raw
	}
	chunkDir := j.ws.Register(filepath.Join(audioDir, id+"_chunks"))
	if err := os.MkdirAll(chunkDir, 0o755); err != nil {
		return err
	}
	chunks := o.Media.Split(ctx, clean, chunkDir, "chunk")
	j.res.Chunks = len(chunks)

	var frames []string
	visual := ""
	if kind == constants.KindVideo {
		j.stage = StageKeyframes
		kfDir := j.ws.Register(filepath.Join(o.Storage.KeyframesDir(), id))
		var err error
		frames, err = o.Media.ExtractKeyframes(ctx, j.req.FilePath, kfDir)
		if err != nil {
			j.logger.Warn("pipeline.keyframes.skipped", "error", err)
			frames = nil
		}
		j.res.Frames = len(frames)
		if len(frames) > 0 && o.Vision != nil {
			visual = o.Vision.VisualContext(ctx, frames)
		}
	}

	if err := o.enter(ctx, j, StageTranscribe, constants.StatusTranscribing); err != nil {
		return err
	}
	tr, err := o.Transcriber.Run(ctx, chunks)
	if err != nil {
		return err
	}

	if err := o.enter(ctx, j, StageGenerate, constants.StatusGeneratingNotes); err != nil {
		return err
	}
	ct, content, err := o.generate(ctx, j, tr.Refined, visual)
	if err != nil {
		return err
	}

	// frames are copied out of the keyframe dir before cleanup can touch it
	j.stage = StageImages
	content = o.integrateImages(j, content, frames)

	return o.finalize(ctx, j, finalizeInput{
		raw:          tr.Raw,
		refined:      tr.Refined,
		segments:     tr.Segments,
		language:     tr.Language,
		visual:       visual,
		content:      content,
		contentType:  ct,
		model:        o.STTModel + " chunked + OCR + LLM",
		source:       "media",
		defaultTitle: constants.DefaultMediaTitle,
	})
}

func (o *Orchestrator) integrateImages(j *job, content string, frames []string) string {
	markers := notes.CountMarkers(content, o.marker)
	if markers == 0 {
		return content
	}
	var refs []string
	if len(frames) > 0 {
		dest := filepath.Join(o.Storage.NoteAssetsDir(), j.req.MediaID.String())
		var err error
		refs, err = notes.PromoteKeyframes(notes.SelectFrames(frames, markers), dest)
		if err != nil {
			j.logger.Warn("pipeline.images.promote.failed", "error", err, "promoted", len(refs))
		}
	}
	j.res.Images = len(refs)
	j.logger.Info("pipeline.images", "markers", markers, "images", len(refs))
	return notes.IntegrateImages(content, o.marker, refs)
}
