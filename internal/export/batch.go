// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/records2csv/internal/records"
)

const defaultConcurrency = 4

// BatchOptions configures RunBatch.
type BatchOptions struct {
	// OutDir receives one CSV per input.
	OutDir string
	// Encoding applies to every output.
	Encoding string
	// Concurrency bounds the exports in flight (0 = 4).
	Concurrency int
	// Force re-exports inputs whose output is already up to date.
	Force bool
}

// BatchResult holds the outcome of a batch run.
type BatchResult struct {
	Exported int
	Skipped  int
	Failed   int
}

// Total returns the number of inputs processed.
func (r BatchResult) Total() int {
	return r.Exported + r.Skipped + r.Failed
}

// HasFailures reports whether any input failed to export.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// OutputPath returns the CSV path for input inside outDir.
func OutputPath(input, outDir string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(outDir, base+".csv")
}

// RunBatch exports every input into opts.OutDir, printing one status line
// per input to w followed by a summary. An input whose output path was
// already claimed by an earlier input counts as failed.
func (e *Exporter) RunBatch(ctx context.Context, inputs []string, opts BatchOptions, w io.Writer) BatchResult {
	limit := opts.Concurrency
	if limit <= 0 {
		limit = defaultConcurrency
	}

	var (
		mu     sync.Mutex
		result BatchResult
	)
	report := func(format string, args ...any) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, format, args...)
	}

	// Inputs sharing a base name (x.json, x.yaml) map to one CSV. The first
	// in input order keeps it; the rest fail instead of racing for the file.
	owners := make(map[string]string, len(inputs))
	jobs := make([]string, 0, len(inputs))
	for _, in := range inputs {
		out := filepath.Clean(OutputPath(in, opts.OutDir))
		if owner, taken := owners[out]; taken {
			report("failed:   %s (output %s already claimed by %s)\n", filepath.Base(in), out, owner)
			result.Failed++
			continue
		}
		owners[out] = in
		jobs = append(jobs, in)
	}

	var g errgroup.Group
	g.SetLimit(limit)

	for _, in := range jobs {
		in := in
		g.Go(func() error {
			name := filepath.Base(in)
			out := OutputPath(in, opts.OutDir)

			if err := ctx.Err(); err != nil {
				report("failed:   %s (%v)\n", name, err)
				mu.Lock()
				result.Failed++
				mu.Unlock()
				return nil
			}

			if !opts.Force && e.upToDate(in, out) {
				report("skipped:  %s (up to date)\n", name)
				mu.Lock()
				result.Skipped++
				mu.Unlock()
				return nil
			}

			res, err := e.Run(ctx, Job{
				Input:        in,
				Output:       out,
				Encoding:     opts.Encoding,
				MkdirParents: true,
			})
			if err != nil {
				report("failed:   %s (%v)\n", name, err)
				mu.Lock()
				result.Failed++
				mu.Unlock()
				return nil
			}

			report("exported: %s -> %s (%d rows)\n", name, res.Output, res.Rows)
			mu.Lock()
			result.Exported++
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	fmt.Fprintf(w, "\nBatch summary: %d exported, %d skipped, %d failed (total: %d)\n",
		result.Exported, result.Skipped, result.Failed, result.Total())
	e.logger.Info("batch finished",
		zap.Int("exported", result.Exported),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed))
	return result
}

// upToDate reports whether out exists and is not older than in.
func (e *Exporter) upToDate(in, out string) bool {
	inInfo, err := os.Stat(in)
	if err != nil {
		return false
	}
	outInfo, err := e.fs.Fs().Stat(out)
	if err != nil {
		return false
	}
	return !outInfo.ModTime().Before(inInfo.ModTime())
}

// ExpandInputs replaces each directory in paths with the JSON and YAML files
// it directly contains, sorted by name. Plain files pass through unchanged.
func ExpandInputs(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("reading input %s: %w", p, err)
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}

		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("reading input directory %s: %w", p, err)
		}
		var found []string
		for _, entry := range entries {
			if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
				continue
			}
			if records.IsSupported(entry.Name()) {
				found = append(found, filepath.Join(p, entry.Name()))
			}
		}
		sort.Strings(found)
		out = append(out, found...)
	}
	return out, nil
}
