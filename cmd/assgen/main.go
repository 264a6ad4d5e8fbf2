// SPDX-License-Identifier: MIT

// Command assgen renders an ASS subtitle document from a segments JSON
// file and an optional style JSON file, without touching a database or an
// encoder. Useful for inspecting exactly what a burn would feed ffmpeg.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/feldrik/lyricburn/internal/ass"
	"github.com/feldrik/lyricburn/internal/model"
	"github.com/feldrik/lyricburn/internal/store"
)

// sysexits-style codes.
const (
	exitOK    = 0
	exitUsage = 64
	exitData  = 65
	exitIO    = 74
)

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func dataErr(err error) error  { return &exitError{code: exitData, err: err} }
func ioErr(err error) error    { return &exitError{code: exitIO, err: err} }
func usageErr(err error) error { return &exitError{code: exitUsage, err: err} }

type options struct {
	segmentsPath string
	stylePath    string
	playResX     int
	playResY     int
	outPath      string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if args == nil {
		args = []string{}
	}
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "assgen",
		Short:         "Generate an ASS subtitle document from lyric segments",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, posArgs []string) error {
			if len(posArgs) > 0 {
				return usageErr(fmt.Errorf("unexpected argument %q", posArgs[0]))
			}
			if opts.segmentsPath == "" {
				return usageErr(errors.New("--segments is required"))
			}
			if opts.playResX < 1 || opts.playResY < 1 {
				return usageErr(errors.New("--playres-x and --playres-y must be positive"))
			}
			return generate(opts, stdin, stdout)
		},
	}
	cmd.Flags().StringVarP(&opts.segmentsPath, "segments", "s", "", "segments JSON file, or - for stdin")
	cmd.Flags().StringVar(&opts.stylePath, "style", "", "style JSON file (defaults apply when omitted)")
	cmd.Flags().IntVarP(&opts.playResX, "playres-x", "x", 1920, "play resolution width")
	cmd.Flags().IntVarP(&opts.playResY, "playres-y", "y", 1080, "play resolution height")
	cmd.Flags().StringVarP(&opts.outPath, "out", "o", "", "output file (defaults to stdout)")

	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "assgen: %v\n", err)
		var xerr *exitError
		if errors.As(err, &xerr) {
			return xerr.code
		}
		return exitUsage
	}
	return exitOK
}

func generate(opts *options, stdin io.Reader, stdout io.Writer) error {
	segments, err := loadSegments(opts.segmentsPath, stdin)
	if err != nil {
		return err
	}

	style := ass.DefaultStyle()
	if opts.stylePath != "" {
		style, err = loadStyle(opts.stylePath)
		if err != nil {
			return err
		}
	}

	doc, err := ass.BuildDocument(segments, style, opts.playResX, opts.playResY)
	if err != nil {
		return dataErr(err)
	}

	if opts.outPath == "" {
		if _, err := io.WriteString(stdout, doc); err != nil {
			return ioErr(err)
		}
		return nil
	}
	if err := os.WriteFile(opts.outPath, []byte(doc), 0o644); err != nil { // #nosec G306 -- plain artifact
		return ioErr(err)
	}
	return nil
}

func loadSegments(path string, stdin io.Reader) ([]model.Segment, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path) // #nosec G304 -- user-supplied input path
	}
	if err != nil {
		return nil, ioErr(err)
	}

	var segments []model.Segment
	if err := json.Unmarshal(data, &segments); err != nil {
		return nil, dataErr(fmt.Errorf("parse segments: %w", err))
	}
	sort.SliceStable(segments, func(i, j int) bool { return segments[i].Start < segments[j].Start })
	if err := store.ValidateSegments(segments); err != nil {
		return nil, dataErr(err)
	}
	return segments, nil
}

func loadStyle(path string) (ass.ResolvedStyle, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-supplied input path
	if err != nil {
		return ass.ResolvedStyle{}, ioErr(err)
	}

	var style ass.Style
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&style); err != nil {
		return ass.ResolvedStyle{}, dataErr(fmt.Errorf("parse style: %w", err))
	}
	resolved, err := style.Resolve()
	if err != nil {
		return ass.ResolvedStyle{}, dataErr(err)
	}
	return resolved, nil
}
