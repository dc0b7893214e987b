// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/records2csv/internal/export"
	"github.com/pdiddy/records2csv/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch <input>",
	Short: "Re-export an input file to CSV every time it changes",
	Long: `Watch exports input once, then keeps the CSV at --output in sync with it,
re-exporting after each change. Stop with Ctrl-C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	exporter, closeFn := newExporter(cmd, cfg)
	defer closeFn()

	w, err := watch.New(exporter, export.JobFromConfig(args[0], cfg.Export), logger)
	if err != nil {
		return err
	}
	if d, _ := cmd.Flags().GetDuration("debounce"); d > 0 {
		w.SetDebounce(d)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return w.Run(ctx)
}

func init() {
	bindExportFlags(watchCmd)
	watchCmd.Flags().Duration("debounce", watch.DefaultDebounce, "quiet period after a change before re-exporting")

	watchCmd.PreRun = func(cmd *cobra.Command, args []string) {
		bindFlags(cmd, map[string]string{
			"export.output":   "output",
			"export.encoding": "encoding",
			"export.mkdir":    "mkdir",
		})
	}

	rootCmd.AddCommand(watchCmd)
}
