package pipeline

import (
	"log/slog"
	"os"
	"sync"
)

// Workspace tracks temporary paths created while a job runs. Cleanup removes
// all of them and may be called any number of times.
type Workspace struct {
	mu     sync.Mutex
	paths  []string
	logger *slog.Logger
}

func NewWorkspace(logger *slog.Logger) *Workspace {
	if logger == nil {
		logger = slog.Default()
	}
	return &Workspace{logger: logger}
}

// Register adds path (file or directory) and returns it.
func (w *Workspace) Register(path string) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, p := range w.paths {
		if p == path {
			return path
		}
	}
	w.paths = append(w.paths, path)
	return path
}

// Cleanup removes every registered path, newest first. Missing paths are fine.
func (w *Workspace) Cleanup() {
	w.mu.Lock()
	paths := w.paths
	w.paths = nil
	w.mu.Unlock()

	for i := len(paths) - 1; i >= 0; i-- {
		if err := os.RemoveAll(paths[i]); err != nil {
			w.logger.Warn("pipeline.cleanup.failed", "path", paths[i], "error", err)
			continue
		}
		w.logger.Debug("pipeline.cleanup.removed", "path", paths[i])
	}
}
