// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package watch re-runs an export whenever its input file changes.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/pdiddy/records2csv/internal/export"
)

// DefaultDebounce is the quiet period after the last change before an
// export is re-run. Editors often save in several writes.
const DefaultDebounce = 250 * time.Millisecond

// Runner executes one export job. *export.Exporter implements it.
type Runner interface {
	Run(ctx context.Context, job export.Job) (export.Result, error)
}

// Watcher re-exports a single input file on change.
type Watcher struct {
	runner   Runner
	job      export.Job
	logger   *zap.Logger
	debounce time.Duration

	mu   sync.Mutex
	runs int
	last error
}

// New returns a Watcher for job. job.Input must name a file.
func New(runner Runner, job export.Job, logger *zap.Logger) (*Watcher, error) {
	if job.Input == "" {
		return nil, errors.New("watch requires an input file")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		runner:   runner,
		job:      job,
		logger:   logger,
		debounce: DefaultDebounce,
	}, nil
}

// SetDebounce changes the quiet period used before re-exporting.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Runs returns the number of exports completed successfully.
func (w *Watcher) Runs() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.runs
}

// LastError returns the error from the most recent export, if any.
func (w *Watcher) LastError() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

// Run exports once, then watches the input's directory until ctx is done.
// The initial export must succeed; later failures are logged and watching
// continues.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.export(ctx); err != nil {
		return err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer fw.Close()

	target, err := filepath.Abs(w.job.Input)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", w.job.Input, err)
	}
	// Watch the directory so editors that replace the file by rename are seen.
	if err := fw.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(target), err)
	}
	w.logger.Info("watching input", zap.String("path", target))

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("watch stopped", zap.Int("runs", w.Runs()))
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			w.logger.Debug("input changed", zap.String("op", ev.Op.String()))
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", zap.Error(err))

		case <-timer.C:
			if err := w.export(ctx); err != nil {
				w.logger.Warn("re-export failed", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) export(ctx context.Context) error {
	_, err := w.runner.Run(ctx, w.job)
	w.mu.Lock()
	defer w.mu.Unlock()
	w.last = err
	if err == nil {
		w.runs++
	}
	return err
}
