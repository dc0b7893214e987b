// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/records2csv/internal/export"
	"github.com/pdiddy/records2csv/internal/fsbind"
	"github.com/pdiddy/records2csv/internal/history"
	"github.com/pdiddy/records2csv/pkg/types"
)

var exportCmd = &cobra.Command{
	Use:   "export [input]",
	Short: "Convert a JSON or YAML record array to a CSV file",
	Long: `Export reads an array of objects from input (a .json, .yaml or .yml file,
or "-" for JSON on stdin) and writes the CSV to --output. With no input the
built-in placeholder of two empty records is exported.

The file is created if absent and overwritten otherwise. Use --batch with one or
more files or directories to export each input to --out-dir/<name>.csv.`,
	Args: cobra.ArbitraryArgs,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	exporter, closeFn := newExporter(cmd, cfg)
	defer closeFn()

	batch, _ := cmd.Flags().GetBool("batch")
	if batch {
		return runBatch(cmd.Context(), exporter, cfg, args, cmd.OutOrStdout())
	}

	if len(args) > 1 {
		return fmt.Errorf("export takes at most one input; use --batch for several")
	}
	input := ""
	if len(args) == 1 {
		input = args[0]
	}

	res, err := exporter.Run(cmd.Context(), export.JobFromConfig(input, cfg.Export))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%d rows, %d columns, %d bytes)\n",
		res.Mode, res.Output, res.Rows, len(res.Columns), res.Bytes)
	return nil
}

func runBatch(ctx context.Context, exporter *export.Exporter, cfg types.Config, args []string, w io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("--batch needs at least one input file or directory")
	}
	if cfg.Batch.OutDir == "" {
		return fmt.Errorf("--batch needs --out-dir")
	}
	inputs, err := export.ExpandInputs(args)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		fmt.Fprintln(w, "No JSON or YAML inputs found.")
		return nil
	}

	result := exporter.RunBatch(ctx, inputs, export.BatchOptions{
		OutDir:      cfg.Batch.OutDir,
		Encoding:    cfg.Export.Encoding,
		Concurrency: cfg.Batch.Concurrency,
		Force:       cfg.Batch.Force,
	}, w)
	if result.HasFailures() {
		return fmt.Errorf("%d input(s) failed to export", result.Failed)
	}
	return nil
}

// newExporter wires the file binding, logger, and (unless disabled) the
// history ledger. The returned func closes the ledger.
func newExporter(cmd *cobra.Command, cfg types.Config) (*export.Exporter, func()) {
	opts := []export.Option{export.WithLogger(logger)}
	closeFn := func() {}

	noHistory, _ := cmd.Flags().GetBool("no-history")
	if cfg.History.Enabled && !noHistory {
		store, err := history.Open(cfg.History)
		if err != nil {
			logger.Warn("history disabled", zap.Error(err))
		} else {
			opts = append(opts, export.WithRecorder(store))
			closeFn = func() { store.Close() }
		}
	}

	return export.New(fsbind.New(nil, logger), opts...), closeFn
}

// bindExportFlags adds the flags shared by export and watch.
func bindExportFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", types.DefaultOutput, "output CSV path (~ expands to the home directory)")
	cmd.Flags().String("encoding", types.DefaultEncoding, "content encoding: utf8, base64, or ascii")
	cmd.Flags().Bool("mkdir", false, "create missing parent directories of the output")
	cmd.Flags().Bool("no-history", false, "do not record this export in the history ledger")
}

func init() {
	bindExportFlags(exportCmd)
	exportCmd.Flags().Bool("batch", false, "export every input (files or directories) into --out-dir")
	exportCmd.Flags().String("out-dir", "", "output directory for --batch")
	exportCmd.Flags().Bool("force", false, "with --batch, re-export inputs whose CSV is up to date")
	exportCmd.Flags().Int("concurrency", 4, "with --batch, number of exports in flight")

	exportCmd.PreRun = func(cmd *cobra.Command, args []string) {
		bindFlags(cmd, map[string]string{
			"export.output":     "output",
			"export.encoding":   "encoding",
			"export.mkdir":      "mkdir",
			"batch.out_dir":     "out-dir",
			"batch.force":       "force",
			"batch.concurrency": "concurrency",
		})
	}

	rootCmd.AddCommand(exportCmd)
}

// bindFlags binds config keys to the named flags of cmd. Binding happens in
// PreRun so commands sharing a key do not override each other.
func bindFlags(cmd *cobra.Command, keys map[string]string) {
	for key, flag := range keys {
		if f := cmd.Flags().Lookup(flag); f != nil {
			_ = viper.BindPFlag(key, f)
		}
	}
}
