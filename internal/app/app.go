// Package app wires the pipeline collaborators from configuration. Every
// binary that processes jobs builds the same graph through New.
package app

import (
	"context"
	"log/slog"
	"os"

	"github.com/joseph-ayodele/lecture-notes/internal/async"
	"github.com/joseph-ayodele/lecture-notes/internal/command"
	"github.com/joseph-ayodele/lecture-notes/internal/common"
	"github.com/joseph-ayodele/lecture-notes/internal/document"
	"github.com/joseph-ayodele/lecture-notes/internal/export"
	"github.com/joseph-ayodele/lecture-notes/internal/llm/openai"
	"github.com/joseph-ayodele/lecture-notes/internal/media"
	"github.com/joseph-ayodele/lecture-notes/internal/notes"
	"github.com/joseph-ayodele/lecture-notes/internal/ocr"
	"github.com/joseph-ayodele/lecture-notes/internal/pipeline"
	repo "github.com/joseph-ayodele/lecture-notes/internal/repository"
	"github.com/joseph-ayodele/lecture-notes/internal/transcribe"
	"github.com/joseph-ayodele/lecture-notes/internal/vision"
)

type App struct {
	Config *common.Config
	DB     *repo.DB

	Media       repo.MediaRepository
	Transcripts repo.TranscriptRepository
	Notes       repo.NoteRepository
	Exports     repo.ExportRepository

	Exporter     *export.Service
	Orchestrator *pipeline.Orchestrator
	Dispatcher   *async.Dispatcher

	logger *slog.Logger
}

// NewLogger returns the text logger every binary uses. Plain mode drops time
// and level so output reads like a transcript of events.
func NewLogger(plain bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if plain {
		opts.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey || a.Key == slog.LevelKey {
				return slog.Attr{}
			}
			return a
		}
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// LoadConfig reads .env and the environment and validates the result.
func LoadConfig() (*common.Config, error) {
	if err := common.LoadDotEnv(); err != nil {
		return nil, common.WrapError(err, "load .env")
	}
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadStoreConfig is LoadConfig for binaries that only touch the database.
func LoadStoreConfig() (*common.Config, error) {
	if err := common.LoadDotEnv(); err != nil {
		return nil, common.WrapError(err, "load .env")
	}
	cfg := common.LoadConfig()
	if err := cfg.Database.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Open connects the database, runs migrations and opens the repositories
// without building the processing graph.
func Open(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := repo.Open(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	if err := repo.Migrate(ctx, db); err != nil {
		db.Close(logger)
		return nil, err
	}
	return &App{
		Config:      cfg,
		DB:          db,
		Media:       repo.NewMediaRepository(db, logger),
		Transcripts: repo.NewTranscriptRepository(db, logger),
		Notes:       repo.NewNoteRepository(db, logger),
		Exports:     repo.NewExportRepository(db, logger),
		logger:      logger,
	}, nil
}

// New opens the database and builds the orchestrator and dispatcher.
func New(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*App, error) {
	a, err := Open(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	logger = a.logger
	if err := cfg.Storage.EnsureDirectories(); err != nil {
		a.Close()
		return nil, err
	}

	runner := command.NewExecRunner(logger)
	transformer := media.NewTransformer(cfg.Media, logger, media.WithRunner(runner))
	extractor := ocr.NewExtractor(ocr.ConfigFrom(cfg.OCR), runner, logger)
	client := openai.NewClient(openai.ConfigFrom(cfg.LLM), logger)

	a.Exporter = export.NewService(cfg.Storage.ExportsDir(), a.Exports, logger)
	a.Orchestrator = pipeline.NewOrchestrator(pipeline.Deps{
		Media:  transformer,
		Vision: vision.NewBuilder(extractor, cfg.OCR.Workers, 0, logger),
		Transcriber: transcribe.NewStage(client, client, transcribe.Config{
			RefineModel:   cfg.LLM.RefineModel,
			Language:      cfg.LLM.STTLanguage,
			MaxBytes:      cfg.LLM.STTMaxBytes,
			ChunkDuration: cfg.Media.ChunkDuration,
		}, logger),
		Classifier:  notes.NewClassifier(client, cfg.LLM.NotesModel, logger),
		Generator:   notes.NewGenerator(client, cfg.LLM.NotesModel, logger),
		Documents:   document.NewExtractor(extractor, 0, logger),
		Exporter:    a.Exporter,
		MediaRepo:   a.Media,
		Transcripts: a.Transcripts,
		Notes:       a.Notes,
		Storage:     cfg.Storage,
		STTModel:    cfg.LLM.STTModel,
		Language:    cfg.LLM.STTLanguage,
	}, logger)
	a.Dispatcher = async.NewDispatcher(a.Orchestrator, a.Media, logger,
		async.WithMaxAttempts(cfg.Jobs.MaxAttempts),
		async.WithBackoff(cfg.Jobs.RetryBase),
		async.WithJobTimeout(cfg.Jobs.Timeout),
	)
	return a, nil
}

// Intake returns a submission front door that hands jobs to out.
func (a *App) Intake(out async.Submitter) *async.Intake {
	return async.NewIntake(a.Media, out, a.logger)
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close(a.logger)
	}
}
