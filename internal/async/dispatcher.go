package async

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/joseph-ayodele/lecture-notes/constants"
	"github.com/joseph-ayodele/lecture-notes/internal/common"
	"github.com/joseph-ayodele/lecture-notes/internal/entity"
	"github.com/joseph-ayodele/lecture-notes/internal/pipeline"
)

// Processor runs one job attempt.
type Processor interface {
	Process(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

// StatusWriter persists a terminal status on the media row.
type StatusWriter interface {
	Update(ctx context.Context, id string, upd entity.MediaUpdate) (*entity.Media, error)
}

// Outcome is how a delivery was settled.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
	OutcomeError     Outcome = "error"
	// OutcomeRequeue means the worker stopped before the job settled; the
	// transport should redeliver it.
	OutcomeRequeue Outcome = "requeue"
)

// Dispatcher invokes the processor once per attempt, retrying whole jobs on
// transient provider failures with linear backoff.
type Dispatcher struct {
	proc        Processor
	media       StatusWriter
	maxAttempts int
	backoff     time.Duration
	timeout     time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
	logger      *slog.Logger
}

type DispatcherOption func(*Dispatcher)

func WithMaxAttempts(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.maxAttempts = n
		}
	}
}

// WithBackoff sets the base delay; attempt n waits n × base.
func WithBackoff(base time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if base >= 0 {
			d.backoff = base
		}
	}
}

func WithJobTimeout(t time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if t > 0 {
			d.timeout = t
		}
	}
}

// WithSleep replaces the backoff wait (tests).
func WithSleep(fn func(ctx context.Context, d time.Duration) error) DispatcherOption {
	return func(d *Dispatcher) {
		if fn != nil {
			d.sleep = fn
		}
	}
}

func NewDispatcher(proc Processor, media StatusWriter, logger *slog.Logger, opts ...DispatcherOption) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{
		proc:        proc,
		media:       media,
		maxAttempts: 3,
		backoff:     60 * time.Second,
		timeout:     time.Hour,
		sleep:       sleepCtx,
		logger:      logger,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Handle settles one delivery.
func (d *Dispatcher) Handle(ctx context.Context, job Job) Outcome {
	logger := d.logger.With("media_id", job.MediaID)
	req, err := job.Request()
	if err != nil {
		logger.Error("dispatch.invalid", "error", err)
		return OutcomeError
	}

	for attempt := 1; ; attempt++ {
		if ctx.Err() != nil {
			logger.Warn("dispatch.abandoned", "attempt", attempt)
			return OutcomeRequeue
		}
		start := time.Now()
		res, err := d.attempt(ctx, attempt, req)
		if err == nil {
			logger.Info("dispatch.completed",
				"attempt", attempt,
				"note_id", res.NoteID.String(),
				"exports", res.Exports,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return OutcomeCompleted
		}

		if ctx.Err() != nil {
			// shutdown: hand the delivery back whatever the attempt reported
			logger.Warn("dispatch.abandoned", "attempt", attempt, "error", err)
			return OutcomeRequeue
		}
		switch {
		case errors.Is(err, common.ErrFatal):
			// the orchestrator already persisted the terminal status
			logger.Error("dispatch.failed", "attempt", attempt, "error", err)
			return OutcomeFailed
		case common.IsTransient(err) && attempt < d.maxAttempts:
			wait := d.backoff * time.Duration(attempt)
			logger.Warn("dispatch.retry", "attempt", attempt, "max", d.maxAttempts, "wait", wait.String(), "error", err)
			if serr := d.sleep(ctx, wait); serr != nil {
				logger.Warn("dispatch.abandoned", "attempt", attempt, "error", serr)
				return OutcomeRequeue
			}
		case common.IsTransient(err):
			d.mark(ctx, req.MediaID.String(), constants.StatusFailed, fmt.Errorf("retries exhausted after %d attempts: %w", attempt, err))
			logger.Error("dispatch.exhausted", "attempts", attempt, "error", err)
			return OutcomeFailed
		default:
			d.mark(ctx, req.MediaID.String(), constants.StatusError, err)
			logger.Error("dispatch.error", "attempt", attempt, "error", err)
			return OutcomeError
		}
	}
}

func (d *Dispatcher) attempt(ctx context.Context, n int, req pipeline.Request) (res pipeline.Result, err error) {
	ctx, cancel := context.WithTimeout(common.WithAttempt(ctx, n), d.timeout)
	defer cancel()
	defer func() {
		if p := recover(); p != nil {
			d.logger.Error("dispatch.panic", "media_id", req.MediaID.String(), "panic", p, "stack", string(debug.Stack()))
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return d.proc.Process(ctx, req)
}

func (d *Dispatcher) mark(ctx context.Context, id string, status constants.MediaStatus, cause error) {
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	msg := cause.Error()
	if _, err := d.media.Update(wctx, id, entity.MediaUpdate{Status: &status, ErrorMessage: &msg}); err != nil {
		d.logger.Error("dispatch.status.persist.failed", "media_id", id, "status", status, "error", err)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
