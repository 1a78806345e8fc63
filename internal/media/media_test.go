package media

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/joseph-ayodele/lecture-notes/internal/common"
)

// fakeRunner simulates command execution.
type fakeRunner struct {
	run func(ctx context.Context, name string, args ...string) ([]byte, []byte, error)
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	if f.run == nil {
		return nil, nil, nil
	}
	return f.run(ctx, name, args...)
}

func foundTool(name string) (string, error) { return name, nil }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// TestExtractAudioMissingSource checks the fail-fast path for absent input.
func TestExtractAudioMissingSource(t *testing.T) {
	called := false
	tr := NewTransformer(common.MediaConfig{}, quietLogger(),
		WithLookPath(foundTool),
		WithRunner(&fakeRunner{run: func(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
			called = true
			return nil, nil, nil
		}}))

	err := tr.ExtractAudio(context.Background(), filepath.Join(t.TempDir(), "missing.mp4"), filepath.Join(t.TempDir(), "a.wav"))
	if !errors.Is(err, common.ErrSourceMissing) {
		t.Fatalf("ExtractAudio() error = %v, want ErrSourceMissing", err)
	}
	if called {
		t.Fatalf("runner must not be called for a missing source")
	}
}

// TestExtractAudioMissingTool checks the fail-fast path when ffmpeg is absent.
func TestExtractAudioMissingTool(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "in.mp4")
	mustWriteFile(t, src, "media")

	tr := NewTransformer(common.MediaConfig{FFmpeg: "ffmpeg-not-installed-xyz"}, quietLogger())
	err := tr.ExtractAudio(context.Background(), src, filepath.Join(root, "a.wav"))
	if !errors.Is(err, common.ErrToolUnavailable) {
		t.Fatalf("ExtractAudio() error = %v, want ErrToolUnavailable", err)
	}
}

// TestExtractAudioArgs checks the normalization flags and output handling.
func TestExtractAudioArgs(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "in.mp4")
	dst := filepath.Join(root, "audio", "out.wav")
	mustWriteFile(t, src, "media")

	var got []string
	tr := NewTransformer(common.MediaConfig{}, quietLogger(),
		WithLookPath(foundTool),
		WithRunner(&fakeRunner{run: func(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
			got = args
			mustWriteFile(t, args[len(args)-1], "RIFF")
			return nil, nil, nil
		}}))

	if err := tr.ExtractAudio(context.Background(), src, dst); err != nil {
		t.Fatalf("ExtractAudio() error = %v", err)
	}
	joined := strings.Join(got, " ")
	for _, want := range []string{"-vn", "-ac 1", "-ar 16000", "-c:a pcm_s16le"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("args %q missing %q", joined, want)
		}
	}
}

// TestExtractAudioCommandFailure checks that ffmpeg errors surface with stderr.
func TestExtractAudioCommandFailure(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "in.mp4")
	mustWriteFile(t, src, "media")

	tr := NewTransformer(common.MediaConfig{}, quietLogger(),
		WithLookPath(foundTool),
		WithRunner(&fakeRunner{run: func(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
			return nil, []byte("Invalid data found"), errors.New("exit status 1")
		}}))

	err := tr.ExtractAudio(context.Background(), src, filepath.Join(root, "a.wav"))
	if err == nil || !strings.Contains(err.Error(), "Invalid data found") {
		t.Fatalf("ExtractAudio() error = %v", err)
	}
}

// TestSplitReturnsSortedChunks checks segment globbing and ordering.
func TestSplitReturnsSortedChunks(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "clean.wav")
	dir := filepath.Join(root, "chunks")

	var segArgs []string
	tr := NewTransformer(common.MediaConfig{ChunkDuration: 600 * time.Second}, quietLogger(),
		WithRunner(&fakeRunner{run: func(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
			segArgs = args
			for _, n := range []string{"job_002.mp3", "job_000.mp3", "job_001.mp3"} {
				mustWriteFile(t, filepath.Join(dir, n), "x")
			}
			return nil, nil, nil
		}}))

	chunks := tr.Split(context.Background(), src, dir, "job")
	if len(chunks) != 3 {
		t.Fatalf("Split() = %v, want 3 chunks", chunks)
	}
	for i, c := range chunks {
		if filepath.Base(c) != []string{"job_000.mp3", "job_001.mp3", "job_002.mp3"}[i] {
			t.Fatalf("chunk %d = %s", i, c)
		}
	}
	if !strings.Contains(strings.Join(segArgs, " "), "-segment_time 600") {
		t.Fatalf("segment args = %v", segArgs)
	}
}

// TestSplitFallsBackToInput checks both fallback paths of the chunker.
func TestSplitFallsBackToInput(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "clean.wav")

	failing := NewTransformer(common.MediaConfig{}, quietLogger(),
		WithRunner(&fakeRunner{run: func(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
			return nil, nil, errors.New("exit status 1")
		}}))
	if got := failing.Split(context.Background(), src, filepath.Join(root, "a"), "p"); len(got) != 1 || got[0] != src {
		t.Fatalf("Split() on failure = %v", got)
	}

	empty := NewTransformer(common.MediaConfig{}, quietLogger(), WithRunner(&fakeRunner{}))
	if got := empty.Split(context.Background(), src, filepath.Join(root, "b"), "p"); len(got) != 1 || got[0] != src {
		t.Fatalf("Split() with zero chunks = %v", got)
	}
}

// TestProbeParsesDuration checks ffprobe output handling.
func TestProbeParsesDuration(t *testing.T) {
	tr := NewTransformer(common.MediaConfig{}, quietLogger(),
		WithRunner(&fakeRunner{run: func(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
			return []byte("1200.500000\n"), nil, nil
		}}))
	if got := tr.Probe(context.Background(), "x.mp4"); got != 1200*time.Second+500*time.Millisecond {
		t.Fatalf("Probe() = %v", got)
	}

	bad := NewTransformer(common.MediaConfig{}, quietLogger(),
		WithRunner(&fakeRunner{run: func(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
			return []byte("N/A"), nil, nil
		}}))
	if got := bad.Probe(context.Background(), "x.mp4"); got != 0 {
		t.Fatalf("Probe() on garbage = %v, want 0", got)
	}
}

// TestExtractKeyframes checks the sampling filter and frame ordering.
func TestExtractKeyframes(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "kf")
	var vf string
	tr := NewTransformer(common.MediaConfig{KeyframeInterval: 2 * time.Second}, quietLogger(),
		WithRunner(&fakeRunner{run: func(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
			for i, a := range args {
				if a == "-vf" {
					vf = args[i+1]
				}
			}
			mustWriteFile(t, filepath.Join(dir, "keyframe_0002.jpg"), "j")
			mustWriteFile(t, filepath.Join(dir, "keyframe_0001.jpg"), "j")
			return nil, nil, nil
		}}))

	frames, err := tr.ExtractKeyframes(context.Background(), "in.mp4", dir)
	if err != nil {
		t.Fatalf("ExtractKeyframes() error = %v", err)
	}
	if vf != "fps=1/2" {
		t.Fatalf("filter = %q, want fps=1/2", vf)
	}
	if len(frames) != 2 || filepath.Base(frames[0]) != "keyframe_0001.jpg" {
		t.Fatalf("frames = %v", frames)
	}
}

func writeSineWAV(t *testing.T, path string, sr int, seconds float64, amp float64) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	enc := wav.NewEncoder(f, sr, 16, 1, 1)
	n := int(float64(sr) * seconds)
	data := make([]int, n)
	for i := range data {
		data[i] = int(amp * 32767 * math.Sin(2*math.Pi*440*float64(i)/float64(sr)))
	}
	buf := &audio.IntBuffer{Format: &audio.Format{NumChannels: 1, SampleRate: sr}, Data: data, SourceBitDepth: 16}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
	_ = f.Close()
}

func readWAV(t *testing.T, path string) []int {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	buf, err := wav.NewDecoder(f).FullPCMBuffer()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return buf.Data
}

// TestDenoiseFilePreservesLengthAndNormalizes checks block processing end to end.
func TestDenoiseFilePreservesLengthAndNormalizes(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "in.wav")
	dst := filepath.Join(root, "out.wav")
	writeSineWAV(t, src, 8000, 2.5, 0.3)

	err := DenoiseFile(context.Background(), src, dst, DenoiseOptions{Block: time.Second, Profile: 100 * time.Millisecond})
	if err != nil {
		t.Fatalf("DenoiseFile() error = %v", err)
	}

	in := readWAV(t, src)
	out := readWAV(t, dst)
	if len(out) != len(in) {
		t.Fatalf("length = %d, want %d", len(out), len(in))
	}
	peak := 0
	for _, v := range out {
		if v < 0 {
			v = -v
		}
		if v > peak {
			peak = v
		}
	}
	targetPeak := 0.90
	want := int(targetPeak * 32768)
	if peak > want+1 || peak < want-400 {
		t.Fatalf("peak = %d, want about %d", peak, want)
	}
}

// TestDenoiseFileRejectsNonWAV checks header validation.
func TestDenoiseFileRejectsNonWAV(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "in.wav")
	mustWriteFile(t, src, "definitely not riff")
	if err := DenoiseFile(context.Background(), src, filepath.Join(root, "o.wav"), DenoiseOptions{}); err == nil {
		t.Fatalf("DenoiseFile() expected error for invalid wav")
	}
}
