package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/lecture-notes/internal/async"
	"github.com/joseph-ayodele/lecture-notes/internal/entity"
)

// Submitter accepts a file for processing.
type Submitter interface {
	Submit(ctx context.Context, s async.Submission) (*entity.Media, error)
}

// Inbox moves files dropped into a watched directory into the uploads area
// and submits them. Files already seen (by content hash) are skipped.
type Inbox struct {
	uploads       string
	userID        string
	contentType   string
	exportFormats []string
	submit        Submitter
	logger        *slog.Logger

	mu   sync.Mutex
	seen map[string]struct{}
}

type InboxConfig struct {
	UploadsDir    string
	UserID        string
	ContentType   string
	ExportFormats []string
}

func NewInbox(cfg InboxConfig, submit Submitter, logger *slog.Logger) *Inbox {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.UserID == "" {
		cfg.UserID = "inbox"
	}
	return &Inbox{
		uploads:       cfg.UploadsDir,
		userID:        cfg.UserID,
		contentType:   cfg.ContentType,
		exportFormats: cfg.ExportFormats,
		submit:        submit,
		logger:        logger,
		seen:          make(map[string]struct{}),
	}
}

// Run watches dir until ctx ends.
func (in *Inbox) Run(ctx context.Context, dir string) error {
	paths, errs, err := StartWatcher(ctx, WatchConfig{Roots: []string{dir}, InitialScan: true, Debounce: 2 * time.Second, Logger: in.logger})
	if err != nil {
		return err
	}
	in.logger.Info("inbox watching", "dir", dir)
	for {
		select {
		case <-ctx.Done():
			return nil
		case p, ok := <-paths:
			if !ok {
				return nil
			}
			if _, err := in.Ingest(ctx, p); err != nil {
				in.logger.Error("inbox.ingest.failed", "path", p, "error", err)
			}
		case err, ok := <-errs:
			if ok && err != nil {
				in.logger.Warn("inbox watcher error", "error", err)
			}
		}
	}
}

// Ingest handles one file. It returns nil media for duplicates.
func (in *Inbox) Ingest(ctx context.Context, path string) (*entity.Media, error) {
	sum, err := fileSHA256(path)
	if err != nil {
		return nil, fmt.Errorf("hash: %w", err)
	}
	in.mu.Lock()
	if _, dup := in.seen[sum]; dup {
		in.mu.Unlock()
		in.logger.Info("inbox.duplicate", "path", path, "sha256", sum[:12])
		_ = os.Remove(path)
		return nil, nil
	}
	in.seen[sum] = struct{}{}
	in.mu.Unlock()

	if err := os.MkdirAll(in.uploads, 0o755); err != nil {
		return nil, err
	}
	dst := filepath.Join(in.uploads, uuid.NewString()+"_"+filepath.Base(path))
	if err := moveFile(path, dst); err != nil {
		in.forget(sum)
		return nil, fmt.Errorf("move to uploads: %w", err)
	}
	m, err := in.submit.Submit(ctx, async.Submission{
		UserID:        in.userID,
		FilePath:      dst,
		ContentType:   in.contentType,
		ExportFormats: in.exportFormats,
	})
	if err != nil {
		return m, err
	}
	in.logger.Info("inbox.submitted", "path", path, "media_id", m.ID.String())
	return m, nil
}

func (in *Inbox) forget(sum string) {
	in.mu.Lock()
	delete(in.seen, sum)
	in.mu.Unlock()
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// moveFile renames src to dst, copying across filesystems.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
