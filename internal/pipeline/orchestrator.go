package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/lecture-notes/constants"
	"github.com/joseph-ayodele/lecture-notes/internal/common"
	"github.com/joseph-ayodele/lecture-notes/internal/entity"
	"github.com/joseph-ayodele/lecture-notes/internal/repository"
)

const documentModelLabel = "document-extraction"

// Request is one job delivery.
type Request struct {
	MediaID       uuid.UUID
	FilePath      string
	UserID        string
	ContentType   string
	ExportFormats []string
	Document      bool
}

// Result summarises a completed job.
type Result struct {
	MediaID      uuid.UUID
	TranscriptID uuid.UUID
	NoteID       uuid.UUID
	ContentType  constants.ContentType
	Classified   bool
	Exports      int
	Chunks       int
	Frames       int
	Images       int
}

// Deps are the collaborators the orchestrator drives. Media, Vision and
// Transcriber may be nil for a document-only deployment; Documents may be nil
// for a media-only one.
type Deps struct {
	Media       MediaTransformer
	Vision      VisualContextBuilder
	Transcriber Transcriber
	Classifier  ContentResolver
	Generator   NoteGenerator
	Documents   DocumentExtractor
	Exporter    Exporter

	MediaRepo   repository.MediaRepository
	Transcripts repository.TranscriptRepository
	Notes       repository.NoteRepository

	Storage  common.StorageConfig
	STTModel string
	Language string // recorded for documents
}

// Orchestrator runs one job through its stages and owns its terminal status.
type Orchestrator struct {
	Deps
	marker string
	logger *slog.Logger
}

func NewOrchestrator(deps Deps, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Language == "" {
		deps.Language = constants.DefaultLanguage
	}
	return &Orchestrator{Deps: deps, marker: constants.ImageMarker, logger: logger}
}

// Process routes req to the media or document variant.
func (o *Orchestrator) Process(ctx context.Context, req Request) (Result, error) {
	kind, ok := constants.KindOf(req.FilePath)
	if req.Document || (ok && kind == constants.KindDocument) {
		return o.ProcessDocument(ctx, req)
	}
	return o.ProcessMedia(ctx, req)
}

// run wraps one variant in the failure boundary: panics and errors become a
// persisted terminal status, except transient errors which are left for the
// dispatcher to retry. Cleanup always runs.
func (o *Orchestrator) run(ctx context.Context, req Request, variant string, body func(context.Context, *job) error) (res Result, err error) {
	ctx = common.WithMediaID(ctx, req.MediaID.String())
	j := &job{
		req:    req,
		ws:     NewWorkspace(o.logger),
		logger: common.LoggerWithContext(ctx, o.logger).With("variant", variant),
		stage:  StageValidate,
	}
	j.res.MediaID = req.MediaID
	start := time.Now()
	j.logger.Info("pipeline.start", "file", filepath.Base(req.FilePath))

	defer func() {
		if p := recover(); p != nil {
			j.logger.Error("pipeline.panic", "stage", j.stage, "panic", p, "stack", string(debug.Stack()))
			err = o.settle(ctx, j, fmt.Errorf("panic: %v", p), constants.StatusError)
		}
		j.ws.Cleanup()
		j.logger.Info("pipeline.end", "ok", err == nil, "elapsed_ms", time.Since(start).Milliseconds())
	}()

	if err := body(ctx, j); err != nil {
		return Result{}, o.fail(ctx, j, err)
	}
	return j.res, nil
}

type job struct {
	req    Request
	ws     *Workspace
	res    Result
	stage  string
	logger *slog.Logger
}

// enter moves the job to a new stage and, when status is set, persists it.
func (o *Orchestrator) enter(ctx context.Context, j *job, stage string, status constants.MediaStatus) error {
	j.stage = stage
	if status == "" {
		return nil
	}
	if _, err := o.MediaRepo.UpdateStatus(ctx, j.req.MediaID.String(), status); err != nil {
		return fmt.Errorf("persist status %s: %w", status, err)
	}
	j.logger.Info("pipeline.status", "status", status, "stage", stage)
	return nil
}

// fail settles err unless the job should run again: a cancelled context is a
// worker shutdown and a transient error is retried by the dispatcher. Both
// leave the last non-terminal status in place.
func (o *Orchestrator) fail(ctx context.Context, j *job, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		j.logger.Warn("pipeline.stage.abandoned", "stage", j.stage, "error", err)
		return &StageError{Stage: j.stage, Err: err}
	}
	if common.IsTransient(err) && ctx.Err() == nil {
		j.logger.Warn("pipeline.stage.transient", "stage", j.stage, "error", err)
		return &StageError{Stage: j.stage, Err: err}
	}
	status := constants.StatusFailed
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		status = constants.StatusError
	}
	j.logger.Error("pipeline.stage.failed", "stage", j.stage, "error", err)
	return o.settle(ctx, j, err, status)
}

// settle persists a terminal status with the error message. The write uses a
// context detached from ctx so a timed-out job can still be marked.
func (o *Orchestrator) settle(ctx context.Context, j *job, cause error, status constants.MediaStatus) error {
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	msg := fmt.Sprintf("%s: %v", j.stage, cause)
	_, uerr := o.MediaRepo.Update(wctx, j.req.MediaID.String(), entity.MediaUpdate{Status: &status, ErrorMessage: &msg})
	if uerr != nil {
		j.logger.Error("pipeline.status.persist.failed", "status", status, "error", uerr)
		return &StageError{Stage: j.stage, Err: errors.Join(cause, uerr)}
	}
	j.logger.Info("pipeline.status", "status", status, "stage", j.stage)
	return &StageError{Stage: j.stage, Err: cause, Settled: true}
}

func requireSource(path string) error {
	st, err := os.Stat(path)
	if err != nil || st.IsDir() {
		return fmt.Errorf("%w: %s", common.ErrSourceMissing, path)
	}
	return nil
}
