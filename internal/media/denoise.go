package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// DenoiseOptions controls the block-wise noise gate.
type DenoiseOptions struct {
	Block        time.Duration // samples processed per pass
	Profile      time.Duration // leading slice of the first block used as noise profile
	PropDecrease float64       // attenuation applied to frames under the gate, 0..1
	Peak         float64       // per-block peak normalization target, fraction of full scale
}

func (o DenoiseOptions) withDefaults() DenoiseOptions {
	if o.Block <= 0 {
		o.Block = 30 * time.Second
	}
	if o.Profile <= 0 {
		o.Profile = 500 * time.Millisecond
	}
	if o.PropDecrease <= 0 || o.PropDecrease > 1 {
		o.PropDecrease = 0.85
	}
	if o.Peak <= 0 || o.Peak > 1 {
		o.Peak = 0.90
	}
	return o
}

const (
	gateFrame   = 20 * time.Millisecond
	gateRatio   = 1.5
	gatePercent = 0.10
	silencePeak = 1e-4
)

// Denoise runs the gate over the configured options.
func (t *Transformer) Denoise(ctx context.Context, src, dst string) error {
	start := time.Now()
	err := DenoiseFile(ctx, src, dst, DenoiseOptions{
		Block:        t.cfg.DenoiseBlock,
		Profile:      t.cfg.DenoiseProfile,
		PropDecrease: t.cfg.DenoisePropDecrease,
		Peak:         t.cfg.DenoisePeak,
	})
	if err != nil {
		return err
	}
	t.logger.Info("media.denoise.ok", "src", src, "dst", dst, "duration_ms", time.Since(start).Milliseconds())
	return nil
}

// DenoiseFile reads a PCM WAV file block by block, gates low-energy frames and
// peak-normalizes each block. Memory use is bounded by one block.
//
// The first block's leading Profile slice estimates a noise floor for that
// block; later blocks estimate their own floor from their quietest frames.
func DenoiseFile(ctx context.Context, src, dst string, opts DenoiseOptions) error {
	opts = opts.withDefaults()

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open wav: %w", err)
	}
	defer in.Close()

	dec := wav.NewDecoder(in)
	if !dec.IsValidFile() {
		return fmt.Errorf("denoise: %s is not a valid wav file", src)
	}
	sr := int(dec.SampleRate)
	chans := int(dec.NumChans)
	depth := int(dec.BitDepth)
	if sr <= 0 || chans <= 0 || depth <= 0 {
		return fmt.Errorf("denoise: bad wav header in %s", src)
	}
	format := &audio.Format{NumChannels: chans, SampleRate: sr}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create wav: %w", err)
	}
	enc := wav.NewEncoder(out, sr, depth, chans, 1)

	blockLen := int(opts.Block.Seconds()*float64(sr)) * chans
	frameLen := int(gateFrame.Seconds()*float64(sr)) * chans
	profileLen := int(opts.Profile.Seconds()*float64(sr)) * chans
	if frameLen < chans {
		frameLen = chans
	}
	full := math.Exp2(float64(depth - 1))

	buf := &audio.IntBuffer{Format: format, Data: make([]int, blockLen), SourceBitDepth: depth}
	samples := make([]float64, blockLen)
	first := true
	for {
		if err := ctx.Err(); err != nil {
			_ = out.Close()
			return err
		}
		n, err := dec.PCMBuffer(buf)
		if err != nil && !errors.Is(err, io.EOF) {
			_ = out.Close()
			return fmt.Errorf("read wav: %w", err)
		}
		if n == 0 {
			break
		}

		x := samples[:n]
		for i := 0; i < n; i++ {
			x[i] = float64(buf.Data[i]) / full
		}
		floor := -1.0
		if first && profileLen > 0 {
			floor = rms(x[:min(profileLen, n)])
		}
		gateBlock(x, frameLen, floor, opts.PropDecrease)
		normalizePeak(x, opts.Peak)
		for i := 0; i < n; i++ {
			buf.Data[i] = clampSample(math.Round(x[i]*full), full)
		}
		first = false

		if err := enc.Write(&audio.IntBuffer{Format: format, Data: buf.Data[:n], SourceBitDepth: depth}); err != nil {
			_ = out.Close()
			return fmt.Errorf("write wav: %w", err)
		}
	}

	if err := enc.Close(); err != nil {
		_ = out.Close()
		return fmt.Errorf("finalize wav: %w", err)
	}
	return out.Close()
}

// gateBlock attenuates frames whose energy sits under the noise threshold.
// floor < 0 means "estimate from this block".
func gateBlock(x []float64, frameLen int, floor, prop float64) {
	if len(x) == 0 {
		return
	}
	var energies []float64
	for off := 0; off < len(x); off += frameLen {
		energies = append(energies, rms(x[off:min(off+frameLen, len(x))]))
	}
	if floor < 0 {
		sorted := append([]float64(nil), energies...)
		sort.Float64s(sorted)
		floor = sorted[int(float64(len(sorted)-1)*gatePercent)]
	}
	threshold := floor * gateRatio

	prev := 1.0
	for i, e := range energies {
		gain := 1.0
		if e <= threshold {
			gain = 1 - prop
		}
		off := i * frameLen
		end := min(off+frameLen, len(x))
		span := float64(end - off)
		// Ramp from the previous gain to avoid clicks at frame edges.
		for j := off; j < end; j++ {
			k := float64(j-off) / span
			x[j] *= prev + (gain-prev)*k
		}
		prev = gain
	}
}

func normalizePeak(x []float64, target float64) {
	peak := 0.0
	for _, v := range x {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	if peak < silencePeak {
		return
	}
	scale := target / peak
	for i := range x {
		x[i] *= scale
	}
}

func rms(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

func clampSample(v, full float64) int {
	if v > full-1 {
		return int(full - 1)
	}
	if v < -full {
		return int(-full)
	}
	return int(v)
}
