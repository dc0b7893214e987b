// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export runs the record-set-to-CSV pipeline: load the records,
// encode them, save the text through the file binding, and note the run in
// the history ledger.
package export

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pdiddy/records2csv/internal/csvenc"
	"github.com/pdiddy/records2csv/internal/fsbind"
	"github.com/pdiddy/records2csv/internal/history"
	"github.com/pdiddy/records2csv/internal/records"
	"github.com/pdiddy/records2csv/pkg/types"
)

// PlaceholderInput is the Input label recorded when the built-in record set
// is exported.
const PlaceholderInput = "<placeholder>"

// Recorder stores completed exports. *history.Store implements it.
type Recorder interface {
	Add(ctx context.Context, e history.Entry) error
}

// Job describes one export.
type Job struct {
	// Input is a JSON or YAML file, records.StdinPath, or empty for the
	// placeholder record set.
	Input string
	// Output is the destination path; empty means types.DefaultOutput.
	Output string
	// Encoding is the content encoding; empty means utf8.
	Encoding string
	// MkdirParents creates missing parent directories of Output.
	MkdirParents bool
}

// JobFromConfig builds a Job for input from the export configuration.
func JobFromConfig(input string, cfg types.ExportConfig) Job {
	return Job{
		Input:        input,
		Output:       cfg.Output,
		Encoding:     cfg.Encoding,
		MkdirParents: cfg.MkdirParents,
	}
}

// Result describes a completed export.
type Result struct {
	Input   string
	Output  string
	Rows    int
	Columns []string
	Bytes   int
	Mode    fsbind.SaveMode
}

// Exporter runs export jobs.
type Exporter struct {
	fs       *fsbind.Binding
	recorder Recorder
	logger   *zap.Logger
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithRecorder makes the Exporter note every successful run in r.
func WithRecorder(r Recorder) Option {
	return func(e *Exporter) { e.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Exporter) {
		if l != nil {
			e.logger = l
		}
	}
}

// New returns an Exporter that writes through fs.
func New(fs *fsbind.Binding, opts ...Option) *Exporter {
	e := &Exporter{fs: fs, logger: zap.NewNop()}
	for _, o := range opts {
		o(e)
	}
	if e.fs == nil {
		e.fs = fsbind.New(nil, e.logger)
	}
	return e
}

// Run executes job.
func (e *Exporter) Run(ctx context.Context, job Job) (Result, error) {
	enc, err := fsbind.ParseEncoding(job.Encoding)
	if err != nil {
		return Result{}, err
	}
	output := job.Output
	if output == "" {
		output = types.DefaultOutput
	}
	input := job.Input
	if input == "" {
		input = PlaceholderInput
	}
	log := e.logger.With(zap.String("input", input), zap.String("output", output))

	recs, err := loadRecords(job.Input)
	if err != nil {
		return Result{}, err
	}
	log.Debug("records loaded", zap.Int("records", len(recs)))

	header, err := csvenc.Header(recs)
	if err != nil {
		return Result{}, fmt.Errorf("encoding %s: %w", input, err)
	}
	text, err := csvenc.Encode(recs)
	if err != nil {
		return Result{}, fmt.Errorf("encoding %s: %w", input, err)
	}

	saved, err := e.fs.WithMkdirParents(job.MkdirParents).Save(ctx, output, text, enc)
	if err != nil {
		log.Error("export failed", zap.Error(err))
		return Result{}, err
	}

	res := Result{
		Input:   input,
		Output:  saved.Path,
		Rows:    len(recs),
		Columns: header,
		Bytes:   saved.Bytes,
		Mode:    saved.Mode,
	}
	log.Info("export written",
		zap.String("path", saved.Path),
		zap.String("mode", string(saved.Mode)),
		zap.Int("rows", res.Rows),
		zap.Int("bytes", res.Bytes))

	if e.recorder != nil {
		err := e.recorder.Add(ctx, history.Entry{
			Input:    input,
			Output:   saved.Path,
			Rows:     res.Rows,
			Columns:  header,
			Bytes:    res.Bytes,
			Mode:     string(saved.Mode),
			Encoding: string(enc),
		})
		if err != nil {
			log.Warn("recording export history", zap.Error(err))
		}
	}

	return res, nil
}

func loadRecords(input string) ([]*types.Object, error) {
	if input == "" {
		return records.Placeholder(), nil
	}
	return records.Load(input)
}
