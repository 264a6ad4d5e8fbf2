// SPDX-License-Identifier: MIT

// Package render drives the external encoder to burn styled subtitles into
// a video. Each burn runs in its own scoped working directory, which is
// removed on every exit path.
package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"github.com/feldrik/lyricburn/internal/ass"
	"github.com/feldrik/lyricburn/internal/log"
	"github.com/feldrik/lyricburn/internal/media"
	"github.com/feldrik/lyricburn/internal/model"
	"github.com/feldrik/lyricburn/internal/telemetry"
)

// StderrTailBytes caps the retained encoder stderr.
const StderrTailBytes = 64 * 1024

// termGrace is how long a signalled encoder gets before the hard kill.
const termGrace = 5 * time.Second

// Config holds the process-global, read-only burn environment.
type Config struct {
	EncoderBin  string
	FontsDir    string
	ScratchRoot string
	Timeout     time.Duration
	Concurrency int
}

// Request describes one burn invocation. Segments must already be the
// validated, sorted set from the store.
type Request struct {
	VideoID    uuid.UUID
	SourcePath string
	Segments   []model.Segment
	Style      ass.ResolvedStyle
}

// Burner orchestrates burns. Invocations above the concurrency cap wait in
// FIFO order for an admission slot.
type Burner struct {
	cfg    Config
	prober *media.Prober
	sem    *semaphore.Weighted
}

// New creates a Burner.
func New(cfg Config, prober *media.Prober) *Burner {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 180 * time.Second
	}
	return &Burner{
		cfg:    cfg,
		prober: prober,
		sem:    semaphore.NewWeighted(int64(cfg.Concurrency)),
	}
}

// Burn renders the segments into the source video and returns the MP4
// bytes. Cancellation signals the encoder (SIGTERM, SIGKILL after 5s) and
// returns ErrCancelled; exceeding the wall-clock limit returns a
// RenderError with Timeout set.
func (b *Burner) Burn(ctx context.Context, req Request) ([]byte, error) {
	// The span covers queue wait and encoding alike; queue time shows up
	// as the gap before the encoder log line.
	ctx, span := telemetry.Tracer("lyricburn/render").Start(ctx, "render.burn",
		trace.WithAttributes(telemetry.BurnAttributes(req.Style.FontFamily, len(req.Segments))...))
	defer span.End()

	// FIFO admission queue: semaphore waiters are served in order.
	if err := b.sem.Acquire(ctx, 1); err != nil {
		err = classifyWait(err)
		span.SetAttributes(telemetry.ErrorAttributes(resultLabel(err))...)
		return nil, err
	}
	defer b.sem.Release(1)

	burnsInflight.Inc()
	defer burnsInflight.Dec()
	started := time.Now()

	out, err := b.run(ctx, req)

	elapsed := time.Since(started)
	span.SetAttributes(telemetry.BurnResultAttributes(resultLabel(err), elapsed.Milliseconds())...)
	if err != nil {
		span.SetAttributes(telemetry.ErrorAttributes(resultLabel(err))...)
		span.RecordError(err)
	}
	burnDuration.Observe(elapsed.Seconds())
	burnsTotal.WithLabelValues(resultLabel(err)).Inc()
	return out, err
}

func (b *Burner) run(ctx context.Context, req Request) ([]byte, error) {
	logger := log.WithComponentFromContext(ctx, "render").With().
		Str(log.FieldVideoID, req.VideoID.String()).Logger()

	if err := os.MkdirAll(b.cfg.ScratchRoot, 0o755); err != nil {
		return nil, fmt.Errorf("render: create scratch root: %w", err)
	}
	workdir, err := os.MkdirTemp(b.cfg.ScratchRoot, "burn-*")
	if err != nil {
		return nil, fmt.Errorf("render: create workdir: %w", err)
	}
	// Unconditional: the artifact is transient, the caller gets bytes.
	defer func() {
		if rmErr := os.RemoveAll(workdir); rmErr != nil {
			logger.Warn().Err(rmErr).Str(log.FieldWorkdir, workdir).Msg("failed to remove workdir")
		}
	}()

	runCtx, cancel := context.WithTimeout(ctx, b.cfg.Timeout)
	defer cancel()

	width, height, err := b.prober.Probe(runCtx, req.SourcePath)
	if err != nil {
		return nil, classify(ctx, runCtx, err, "")
	}
	trace.SpanFromContext(ctx).SetAttributes(
		telemetry.VideoAttributes(req.VideoID.String(), width, height)...)

	doc, err := ass.BuildDocument(req.Segments, req.Style, width, height)
	if err != nil {
		return nil, fmt.Errorf("render: build subtitles: %w", err)
	}
	assPath := filepath.Join(workdir, "subs.ass")
	if err := os.WriteFile(assPath, []byte(doc), 0o644); err != nil { // #nosec G306 -- encoder must read it
		return nil, fmt.Errorf("render: write subtitles: %w", err)
	}

	outPath := filepath.Join(workdir, "out.mp4")
	args := encoderArgs(req.SourcePath, assPath, b.cfg.FontsDir, outPath)

	tail := NewTailBuffer(StderrTailBytes)
	cmd := exec.CommandContext(runCtx, b.cfg.EncoderBin, args...) // #nosec G204 -- args constructed internally
	cmd.Stderr = tail
	// Graceful first, hard after the grace period.
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = termGrace

	logger.Info().
		Str(log.FieldEncoder, b.cfg.EncoderBin).
		Str(log.FieldResolution, fmt.Sprintf("%dx%d", width, height)).
		Int("segments", len(req.Segments)).
		Msg("starting encoder")

	if err := cmd.Run(); err != nil {
		cls := classify(ctx, runCtx, err, tail.String())
		var rerr *RenderError
		if errors.As(cls, &rerr) {
			logger.Error().
				Int("exit_code", rerr.ExitCode).
				Bool("timeout", rerr.Timeout).
				Str("stderr_tail", rerr.StderrTail).
				Msg("encoder failed")
		}
		return nil, cls
	}

	data, err := os.ReadFile(outPath) // #nosec G304 -- path constructed internally
	if err != nil {
		return nil, &RenderError{Reason: "encoder succeeded but output missing", StderrTail: tail.String()}
	}

	logger.Info().
		Int("output_bytes", len(data)).
		Msg("burn complete")
	return data, nil
}

// encoderArgs builds the encoder command line. Fonts resolve exclusively
// from fontsDir, never from system fonts; that is what keeps burns
// reproducible across hosts.
func encoderArgs(source, assPath, fontsDir, outPath string) []string {
	vf := fmt.Sprintf("subtitles=%s:fontsdir=%s", escapeFilterPath(assPath), escapeFilterPath(fontsDir))
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-nostats",
		"-y",
		"-i", source,
		"-vf", vf,
		"-c:v", "libx264",
		"-preset", "medium",
		"-crf", "18",
		"-pix_fmt", "yuv420p",
		"-c:a", "copy",
		outPath,
	}
}

// escapeFilterPath escapes a path for use inside an encoder filter
// argument, where backslash, colon, quote, comma and brackets are
// metacharacters.
func escapeFilterPath(p string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`:`, `\:`,
		`'`, `\'`,
		`,`, `\,`,
		`[`, `\[`,
		`]`, `\]`,
	)
	return r.Replace(p)
}

// classify maps a failure to the taxonomy. Caller cancellation wins over
// everything; the burn deadline reports as a timeout RenderError.
func classify(parent, run context.Context, err error, tail string) error {
	if parent.Err() != nil {
		return ErrCancelled
	}
	if errors.Is(run.Err(), context.DeadlineExceeded) {
		return &RenderError{Reason: "timeout", Timeout: true, StderrTail: tail}
	}
	code := 1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	}
	return &RenderError{Reason: "encoder exited with error", ExitCode: code, StderrTail: tail}
}

func classifyWait(err error) error {
	if errors.Is(err, context.Canceled) {
		return ErrCancelled
	}
	return &RenderError{Reason: "admission wait aborted", Timeout: errors.Is(err, context.DeadlineExceeded)}
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrCancelled):
		return "cancelled"
	default:
		var rerr *RenderError
		if errors.As(err, &rerr) && rerr.Timeout {
			return "timeout"
		}
		return "error"
	}
}
