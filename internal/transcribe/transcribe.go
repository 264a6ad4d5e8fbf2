// SPDX-License-Identifier: MIT

// Package transcribe produces timed lyric segments from an audio or video
// file by driving an external speech-to-text binary.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"

	"go.opentelemetry.io/otel/attribute"

	"github.com/feldrik/lyricburn/internal/log"
	"github.com/feldrik/lyricburn/internal/model"
	"github.com/feldrik/lyricburn/internal/telemetry"
)

// ErrTranscription reports a failed or unparseable transcription run.
var ErrTranscription = errors.New("transcription failed")

// maxStderr caps the diagnostic excerpt kept from the tool's stderr.
const maxStderr = 4 * 1024

// Engine produces raw segments for a media file. Output is not yet
// normalized; callers feed it through the store's transcription path.
type Engine interface {
	Transcribe(ctx context.Context, mediaPath string) ([]model.Segment, error)
}

// CommandEngine runs an external transcriber that prints a JSON document
// with a top-level "segments" array to stdout.
type CommandEngine struct {
	Bin  string
	Args []string
}

// NewCommandEngine creates a CommandEngine. Extra args are passed before
// the media path.
func NewCommandEngine(bin string, args ...string) *CommandEngine {
	return &CommandEngine{Bin: bin, Args: args}
}

type toolOutput struct {
	Segments []toolSegment `json:"segments"`
}

type toolSegment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcribe implements Engine.
func (e *CommandEngine) Transcribe(ctx context.Context, mediaPath string) ([]model.Segment, error) {
	ctx, span := telemetry.Tracer("lyricburn/transcribe").Start(ctx, "transcribe.run")
	defer span.End()

	logger := log.WithComponentFromContext(ctx, "transcribe")

	args := append(append([]string{}, e.Args...), mediaPath)
	cmd := exec.CommandContext(ctx, e.Bin, args...) // #nosec G204 -- binary comes from operator config

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Error().Err(err).Str("stderr", excerpt(stderr.Bytes())).Msg("transcriber exited with error")
		span.SetAttributes(telemetry.ErrorAttributes("transcription")...)
		return nil, fmt.Errorf("%w: %v", ErrTranscription, err)
	}

	var out toolOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		logger.Error().Err(err).Msg("transcriber emitted unparseable output")
		span.SetAttributes(telemetry.ErrorAttributes("transcription")...)
		return nil, fmt.Errorf("%w: decode output: %v", ErrTranscription, err)
	}

	segments := make([]model.Segment, 0, len(out.Segments))
	for _, s := range out.Segments {
		segments = append(segments, model.Segment{ID: s.ID, Start: s.Start, End: s.End, Text: s.Text})
	}
	span.SetAttributes(attribute.Int(telemetry.TranscribeSegmentsKey, len(segments)))
	logger.Info().Int("segments", len(segments)).Msg("transcription complete")
	return segments, nil
}

func excerpt(b []byte) string {
	if len(b) > maxStderr {
		b = b[len(b)-maxStderr:]
	}
	return string(b)
}
