package export

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Pruner drops export rows for a removed file.
type Pruner interface {
	DeleteByFilePath(ctx context.Context, path string) (int64, error)
}

// Sweeper deletes exported files older than MaxAge.
type Sweeper struct {
	dir    string
	maxAge time.Duration
	repo   Pruner
	now    func() time.Time
	logger *slog.Logger
}

func NewSweeper(dir string, maxAge time.Duration, repo Pruner, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return &Sweeper{dir: dir, maxAge: maxAge, repo: repo, now: time.Now, logger: logger}
}

// Sweep removes stale files once and reports how many went.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	cutoff := s.now().Add(-s.maxAge)
	removed := 0
	for _, e := range entries {
		if ctx.Err() != nil {
			return removed, ctx.Err()
		}
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		if err := os.Remove(path); err != nil {
			s.logger.Warn("retention.remove.failed", "path", path, "error", err)
			continue
		}
		removed++
		if s.repo != nil {
			if _, err := s.repo.DeleteByFilePath(ctx, path); err != nil {
				s.logger.Warn("retention.prune.failed", "path", path, "error", err)
			}
		}
	}
	s.logger.Info("retention.sweep.done", "removed", removed, "dir", s.dir)
	return removed, nil
}

// Run sweeps immediately and then every interval until ctx ends.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	if _, err := s.Sweep(ctx); err != nil {
		s.logger.Error("retention.sweep.failed", "error", err)
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.Error("retention.sweep.failed", "error", err)
			}
		}
	}
}
