// SPDX-License-Identifier: MIT

// Package media queries source video metadata through an external probe
// binary (ffprobe-compatible).
package media

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"regexp"
	"strconv"
	"time"

	"github.com/feldrik/lyricburn/internal/log"
)

// Default PlayRes when the probe yields nothing usable. 1080p is by far the
// most common upload resolution.
const (
	FallbackWidth  = 1920
	FallbackHeight = 1080
)

const probeTimeout = 10 * time.Second

// Prober resolves the native resolution of a video file. The result is used
// verbatim as the ASS PlayRes and as the preview scale basis; that identity
// is what keeps preview and burn geometrically equivalent.
type Prober struct {
	Bin string
}

// NewProber creates a Prober running the given binary ("ffprobe" if empty).
func NewProber(bin string) *Prober {
	if bin == "" {
		bin = "ffprobe"
	}
	return &Prober{Bin: bin}
}

// Probe returns the width and height of the first video stream. On probe
// failure it falls back to scanning the raw output for textual dimensions,
// then to 1920x1080. Only context cancellation is surfaced as an error.
func (p *Prober) Probe(ctx context.Context, path string) (int, int, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	logger := log.WithComponentFromContext(ctx, "probe")

	args := []string{
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-of", "json",
		path,
	}
	cmd := exec.CommandContext(ctx, p.Bin, args...) // #nosec G204 -- binary from trusted config
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}

	if w, h, ok := parseProbeJSON(stdout.Bytes()); ok {
		return w, h, nil
	}

	// Fallback 1: any textual width/height in whatever the probe printed.
	raw := stdout.String() + "\n" + stderr.String()
	if w, h, ok := parseProbeText(raw); ok {
		logger.Warn().
			Err(runErr).
			Str(log.FieldPath, path).
			Msg("probe JSON unusable, recovered dimensions from raw output")
		return w, h, nil
	}

	// Fallback 2: assume 1080p.
	logger.Warn().
		Err(runErr).
		Str(log.FieldPath, path).
		Int("fallback_width", FallbackWidth).
		Int("fallback_height", FallbackHeight).
		Msg("probe failed, using fallback resolution")
	return FallbackWidth, FallbackHeight, nil
}

func parseProbeJSON(out []byte) (int, int, bool) {
	var data struct {
		Streams []struct {
			Width  int `json:"width"`
			Height int `json:"height"`
		} `json:"streams"`
	}
	if err := json.Unmarshal(out, &data); err != nil {
		return 0, 0, false
	}
	for _, s := range data.Streams {
		if s.Width > 0 && s.Height > 0 {
			return s.Width, s.Height, true
		}
	}
	return 0, 0, false
}

var (
	widthRe  = regexp.MustCompile(`(?i)width["'=:\s]+(\d+)`)
	heightRe = regexp.MustCompile(`(?i)height["'=:\s]+(\d+)`)
)

func parseProbeText(raw string) (int, int, bool) {
	wm := widthRe.FindStringSubmatch(raw)
	hm := heightRe.FindStringSubmatch(raw)
	if wm == nil || hm == nil {
		return 0, 0, false
	}
	w, err1 := strconv.Atoi(wm[1])
	h, err2 := strconv.Atoi(hm[1])
	if err1 != nil || err2 != nil || w <= 0 || h <= 0 {
		return 0, 0, false
	}
	return w, h, true
}
