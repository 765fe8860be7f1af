// Package pipeline runs a complete conversion from an activity log and a
// route document to an activity document.
package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/lucasjlepore/footpod"
	"github.com/lucasjlepore/footpod/convert"
	"github.com/lucasjlepore/footpod/fitlog"
	"github.com/lucasjlepore/footpod/route"
	"github.com/lucasjlepore/footpod/tcx"
)

// Run reads both inputs, converts them and writes the document. Nothing is
// written unless the whole conversion succeeds.
func Run(opts Options) (*Result, error) {
	if strings.TrimSpace(opts.ActivityPath) == "" {
		return nil, fmt.Errorf("activity path is required")
	}
	if strings.TrimSpace(opts.RoutePath) == "" {
		return nil, fmt.Errorf("route path is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	toStdout := opts.OutputPath == "" || opts.OutputPath == "-"
	if toStdout && opts.Stdout == nil {
		return nil, fmt.Errorf("stdout writer is required when no output path is set")
	}
	if !toStdout && !opts.Overwrite {
		if err := ensureAbsent(opts.OutputPath); err != nil {
			return nil, err
		}
	}

	format := ""
	if opts.SamplesPath != "" {
		var err error
		if format, err = samplesFormat(opts.SamplesFormat, opts.SamplesPath); err != nil {
			return nil, err
		}
		if !opts.Overwrite {
			if err := ensureAbsent(opts.SamplesPath); err != nil {
				return nil, err
			}
		}
	}

	fitData, err := os.ReadFile(opts.ActivityPath)
	if err != nil {
		return nil, fmt.Errorf("read activity: %w", err)
	}
	routeData, err := os.ReadFile(opts.RoutePath)
	if err != nil {
		return nil, fmt.Errorf("read route: %w", err)
	}

	out, err := ConvertBytes(BytesOptions{
		FitData:       fitData,
		RouteData:     routeData,
		SkipCRC:       opts.SkipCRC,
		SamplesFormat: format,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}

	res := &Result{
		OutputPath:  opts.OutputPath,
		OutputBytes: len(out.TCX),
		Laps:        len(out.Activity.Laps),
		Trackpoints: out.Activity.Trackpoints(),
		Warnings:    out.Warnings,
		Summary:     out.Summary,
	}

	if opts.SamplesPath != "" {
		if err := writeFile(opts.SamplesPath, out.Samples); err != nil {
			return nil, fmt.Errorf("write samples: %w", err)
		}
		res.SamplesPath = opts.SamplesPath
		logger.Info("samples written",
			"path", opts.SamplesPath,
			"format", format,
			"rows", humanize.Comma(int64(res.Trackpoints)),
			"size", humanize.Bytes(uint64(len(out.Samples))))
	}

	if toStdout {
		res.OutputPath = "-"
		_, err = opts.Stdout.Write(out.TCX)
	} else {
		err = writeFile(opts.OutputPath, out.TCX)
	}
	if err != nil {
		if res.SamplesPath != "" {
			_ = os.Remove(res.SamplesPath)
		}
		return nil, fmt.Errorf("write document: %w", err)
	}
	logger.Info("document written",
		"path", res.OutputPath,
		"laps", res.Laps,
		"trackpoints", humanize.Comma(int64(res.Trackpoints)),
		"size", humanize.Bytes(uint64(res.OutputBytes)))
	return res, nil
}

// ConvertBytes runs the conversion over in-memory inputs.
func ConvertBytes(opts BytesOptions) (*BytesResult, error) {
	if len(opts.FitData) == 0 {
		return nil, fmt.Errorf("activity data is required")
	}
	if len(opts.RouteData) == 0 {
		return nil, fmt.Errorf("route data is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	log, err := fitlog.Decode(opts.FitData, fitlog.Options{SkipCRC: opts.SkipCRC})
	if err != nil {
		return nil, fmt.Errorf("decode activity: %w", err)
	}
	for _, w := range log.Warnings {
		logger.Warn("activity log", "warning", w)
	}
	logger.Info("activity loaded",
		"messages", humanize.Comma(int64(len(log.Messages))),
		"definitions", log.DefinitionCount,
		"size", humanize.Bytes(uint64(len(opts.FitData))))

	r, err := route.Load(bytes.NewReader(opts.RouteData))
	if err != nil {
		return nil, fmt.Errorf("load route: %w", err)
	}
	bound := r.Bound()
	logger.Info("route loaded",
		"name", r.Name,
		"waypoints", humanize.Comma(int64(len(r.Waypoints))),
		"length", humanize.SIWithDigits(r.Length(), 1, "m"),
		"min", bound.Min,
		"max", bound.Max)

	in, err := route.NewInterpolator(r)
	if err != nil {
		return nil, fmt.Errorf("prepare route: %w", err)
	}
	b := convert.NewBuilder(in, logger)
	activity, err := convert.Run(b, log)
	if err != nil {
		return nil, fmt.Errorf("convert: %w", err)
	}
	behind, ahead := in.Cursor()
	logger.Debug("route placement done",
		"segment_start", behind,
		"segment_end", ahead,
		"waypoints", len(r.Waypoints))

	var doc bytes.Buffer
	if err := tcx.Encode(&doc, activity.Document()); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}

	out := &BytesResult{
		TCX:      doc.Bytes(),
		Activity: activity,
		Route:    r,
		Summary:  footpod.Summarize(activity, r.Length()),
		Warnings: append([]string(nil), log.Warnings...),
		Ignored:  b.Ignored(),

		LastSegment: [2]int{behind, ahead},
	}
	if opts.SamplesFormat != "" {
		format, err := samplesFormat(opts.SamplesFormat, "")
		if err != nil {
			return nil, err
		}
		if out.Samples, err = marshalSamples(format, buildSamples(activity)); err != nil {
			return nil, fmt.Errorf("export samples: %w", err)
		}
	}
	return out, nil
}

func ensureAbsent(path string) error {
	_, err := os.Stat(path)
	if err == nil {
		return fmt.Errorf("%s already exists (use --overwrite)", path)
	}
	if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
