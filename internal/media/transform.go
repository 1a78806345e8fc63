package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/lecture-notes/constants"
	"github.com/joseph-ayodele/lecture-notes/internal/command"
	"github.com/joseph-ayodele/lecture-notes/internal/common"
)

// Transformer wraps ffmpeg/ffprobe for audio extraction, chunking and keyframe sampling.
type Transformer struct {
	cfg      common.MediaConfig
	runner   command.Runner
	lookPath func(string) (string, error)
	logger   *slog.Logger
}

type Option func(*Transformer)

func WithRunner(r command.Runner) Option {
	return func(t *Transformer) {
		if r != nil {
			t.runner = r
		}
	}
}

// WithLookPath replaces tool discovery; tests use it to pretend ffmpeg exists.
func WithLookPath(fn func(string) (string, error)) Option {
	return func(t *Transformer) {
		if fn != nil {
			t.lookPath = fn
		}
	}
}

func NewTransformer(cfg common.MediaConfig, logger *slog.Logger, opts ...Option) *Transformer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.FFmpeg == "" {
		cfg.FFmpeg = "ffmpeg"
	}
	if cfg.FFprobe == "" {
		cfg.FFprobe = "ffprobe"
	}
	if cfg.ChunkDuration <= 0 {
		cfg.ChunkDuration = constants.ChunkDuration
	}
	if cfg.KeyframeInterval <= 0 {
		cfg.KeyframeInterval = constants.KeyframeInterval
	}
	t := &Transformer{
		cfg:      cfg,
		runner:   command.NewExecRunner(logger),
		lookPath: command.LookPath,
		logger:   logger,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// ExtractAudio converts any input media into mono 16 kHz PCM WAV at dst.
// A missing source or a missing ffmpeg fails immediately.
func (t *Transformer) ExtractAudio(ctx context.Context, src, dst string) error {
	if _, err := os.Stat(src); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", common.ErrSourceMissing, src)
		}
		return fmt.Errorf("stat source: %w", err)
	}
	bin, err := t.lookPath(t.cfg.FFmpeg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create audio dir: %w", err)
	}

	args := []string{
		"-hide_banner", "-nostdin", "-y",
		"-i", src,
		"-vn",
		"-ac", "1",
		"-ar", strconv.Itoa(constants.SampleRate),
		"-c:a", "pcm_s16le",
		dst,
	}
	start := time.Now()
	_, stderr, err := t.runner.Run(ctx, bin, args...)
	if err != nil {
		return fmt.Errorf("extract audio: %w", command.Describe("ffmpeg", stderr, err))
	}
	if fi, err := os.Stat(dst); err != nil || fi.Size() == 0 {
		return fmt.Errorf("extract audio: ffmpeg produced no output at %s", dst)
	}
	t.logger.Info("media.extract.ok", "src", src, "dst", dst, "duration_ms", time.Since(start).Milliseconds())
	return nil
}

// Probe returns the container duration. Failures are logged and yield 0.
func (t *Transformer) Probe(ctx context.Context, src string) time.Duration {
	out, _, err := t.runner.Run(ctx, t.cfg.FFprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		src,
	)
	if err != nil {
		t.logger.Warn("media.probe.failed", "src", src, "error", err)
		return 0
	}
	secs, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil || secs < 0 {
		t.logger.Warn("media.probe.unparsable", "src", src, "output", strings.TrimSpace(string(out)))
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}

// Split cuts src into fixed-duration mp3 chunks under dir, named prefix_000.mp3,
// prefix_001.mp3, ... in playback order. If splitting fails or produces nothing,
// the whole input is returned as the single chunk.
func (t *Transformer) Split(ctx context.Context, src, dir, prefix string) []string {
	fallback := []string{src}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.logger.Warn("media.split.fallback", "src", src, "error", err)
		return fallback
	}
	pattern := filepath.Join(dir, prefix+"_%03d.mp3")
	args := []string{
		"-hide_banner", "-nostdin", "-y",
		"-i", src,
		"-f", "segment",
		"-segment_time", strconv.Itoa(int(t.cfg.ChunkDuration / time.Second)),
		"-c:a", "libmp3lame",
		"-ac", "1",
		"-ar", strconv.Itoa(constants.SampleRate),
		"-b:a", "64k",
		"-reset_timestamps", "1",
		pattern,
	}
	if _, stderr, err := t.runner.Run(ctx, t.cfg.FFmpeg, args...); err != nil {
		t.logger.Warn("media.split.fallback", "src", src, "error", command.Describe("ffmpeg", stderr, err))
		return fallback
	}

	chunks, err := filepath.Glob(filepath.Join(dir, prefix+"_*.mp3"))
	if err != nil || len(chunks) == 0 {
		t.logger.Warn("media.split.fallback", "src", src, "reason", "no chunks produced")
		return fallback
	}
	sort.Strings(chunks)
	t.logger.Info("media.split.ok", "src", src, "chunks", len(chunks))
	return chunks
}

// ExtractKeyframes samples one JPEG every KeyframeInterval into dir as
// keyframe_0001.jpg, keyframe_0002.jpg, ... and returns them in order.
func (t *Transformer) ExtractKeyframes(ctx context.Context, src, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create keyframe dir: %w", err)
	}
	interval := t.cfg.KeyframeInterval.Seconds()
	args := []string{
		"-hide_banner", "-nostdin", "-y",
		"-i", src,
		"-vf", "fps=1/" + strconv.FormatFloat(interval, 'f', -1, 64),
		"-q:v", "2",
		filepath.Join(dir, "keyframe_%04d.jpg"),
	}
	if _, stderr, err := t.runner.Run(ctx, t.cfg.FFmpeg, args...); err != nil {
		return nil, fmt.Errorf("extract keyframes: %w", command.Describe("ffmpeg", stderr, err))
	}
	frames, err := filepath.Glob(filepath.Join(dir, "keyframe_*.jpg"))
	if err != nil {
		return nil, err
	}
	sort.Strings(frames)
	t.logger.Info("media.keyframes.ok", "src", src, "frames", len(frames), "interval_s", interval)
	return frames, nil
}
