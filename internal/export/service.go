package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/lecture-notes/constants"
	"github.com/joseph-ayodele/lecture-notes/internal/common"
	"github.com/joseph-ayodele/lecture-notes/internal/entity"
)

// Recorder persists export rows.
type Recorder interface {
	Create(ctx context.Context, e *entity.Export) (*entity.Export, error)
}

// Service renders a note into every requested format and records what
// succeeded. A failing format never stops its siblings.
type Service struct {
	dir       string
	renderers map[constants.ExportFormat]Renderer
	repo      Recorder
	logger    *slog.Logger
}

func NewService(dir string, repo Recorder, logger *slog.Logger, renderers ...Renderer) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if len(renderers) == 0 {
		renderers = DefaultRenderers()
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	s := &Service{dir: dir, repo: repo, logger: logger, renderers: make(map[constants.ExportFormat]Renderer)}
	for _, r := range renderers {
		s.renderers[r.Format()] = r
	}
	return s
}

// Dir is the absolute output directory.
func (s *Service) Dir() string { return s.dir }

// Export renders doc for each format and returns the persisted rows.
// Zero successes is logged as a warning, not returned as an error.
func (s *Service) Export(ctx context.Context, noteID uuid.UUID, userID string, doc Document, formats []constants.ExportFormat) []*entity.Export {
	logger := common.LoggerWithContext(ctx, s.logger).With("note_id", noteID.String())
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		logger.Error("export.dir.failed", "dir", s.dir, "error", err)
		return nil
	}

	var out []*entity.Export
	for _, f := range formats {
		rec, err := s.one(ctx, noteID, userID, doc, f)
		if err != nil {
			logger.Error(fmt.Sprintf("export.%s.failed", f), "error", err)
			continue
		}
		out = append(out, rec)
	}
	if len(out) == 0 {
		logger.Warn("export.none", "requested", constants.ExportFormatsAsStrings(formats))
	} else {
		logger.Info("export.done", "succeeded", len(out), "requested", len(formats))
	}
	return out
}

func (s *Service) one(ctx context.Context, noteID uuid.UUID, userID string, doc Document, f constants.ExportFormat) (rec *entity.Export, err error) {
	r, ok := s.renderers[f]
	if !ok {
		return nil, fmt.Errorf("%w: no renderer for %q", common.ErrUnsupportedFormat, f)
	}
	start := time.Now()
	name := "export_" + strings.ReplaceAll(uuid.NewString(), "-", "") + extensionFor(f)
	path := filepath.Join(s.dir, name)

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", name, err)
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("renderer panic: %v", p)
		}
		if err != nil {
			_ = file.Close()
			_ = os.Remove(path)
		}
	}()

	if err = r.Render(doc, file); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	if err = file.Close(); err != nil {
		return nil, fmt.Errorf("close: %w", err)
	}
	st, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	rec, err = s.repo.Create(ctx, &entity.Export{
		UserID:   userID,
		NoteID:   noteID,
		Format:   f,
		FilePath: path,
		FileSize: st.Size(),
	})
	if err != nil {
		return nil, fmt.Errorf("record: %w", err)
	}
	s.logger.Info(fmt.Sprintf("export.%s.ok", f),
		"path", path,
		"bytes", st.Size(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return rec, nil
}
