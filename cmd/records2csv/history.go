// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/records2csv/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List or dump the ledger of completed exports",
	Long: `History shows past exports, newest first, from the SQLite ledger kept in
history.dir. Use --export to write the whole ledger to a .yaml or .json file.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := history.Open(cfg.History)
	if err != nil {
		return err
	}
	defer store.Close()

	if path, _ := cmd.Flags().GetString("export"); path != "" {
		if err := store.Dump(cmd.Context(), path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported history to %s\n", path)
		return nil
	}

	limit, _ := cmd.Flags().GetInt("limit")
	output, _ := cmd.Flags().GetString("output-filter")
	entries, err := store.List(cmd.Context(), history.ListOptions{Output: output, Limit: limit})
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatHistory(cmd.OutOrStdout(), entries, jsonOutput)
}

func formatHistory(w io.Writer, entries []history.Entry, jsonOutput bool) error {
	if jsonOutput {
		if entries == nil {
			entries = []history.Entry{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(w, "No exports recorded.")
		return nil
	}

	fmt.Fprintf(w, "%-20s  %-11s  %5s  %7s  %-24s  %s\n",
		"When", "Mode", "Rows", "Bytes", "Input", "Output")
	fmt.Fprintln(w, strings.Repeat("-", 100))

	for _, e := range entries {
		input := e.Input
		if len(input) > 24 {
			input = "..." + input[len(input)-21:]
		}
		fmt.Fprintf(w, "%-20s  %-11s  %5d  %7d  %-24s  %s\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"), e.Mode, e.Rows, e.Bytes, input, e.Output)
	}

	fmt.Fprintf(w, "\n%d exports\n", len(entries))
	return nil
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum entries to show (-1 = all)")
	historyCmd.Flags().String("output-filter", "", "only show exports written to this path")
	historyCmd.Flags().Bool("json", false, "output entries as JSON")
	historyCmd.Flags().String("export", "", "write the full ledger to this .yaml or .json file")

	rootCmd.AddCommand(historyCmd)
}
