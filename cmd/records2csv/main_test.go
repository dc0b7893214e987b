// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/records2csv/internal/history"
)

// resetFlags restores every flag to its default so state set by one
// execution does not leak into the next.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "records2csv dev\n", out)
}

func TestExportCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.json")
	output := filepath.Join(dir, "nested", "out.csv")
	require.NoError(t, os.WriteFile(input, []byte(`[{"a":1,"b":null},{"a":2,"b":"x"}]`), 0o644))

	out, err := execute(t, "export", input, "-o", output, "--mkdir", "--no-history", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "created "+output)
	assert.Contains(t, out, "(2 rows, 2 columns")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "a,b\r\n1,\r\n2,\"x\"", string(data))

	out, err = execute(t, "export", input, "-o", output, "--no-history", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "overwritten "+output)
}

func TestExportCommand_Errors(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "out.csv")

	_, err := execute(t, "export", "a.json", "b.json", "-o", output, "--no-history")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at most one input")

	_, err = execute(t, "export", filepath.Join(dir, "missing.json"), "-o", output, "--no-history")
	require.Error(t, err)

	_, err = execute(t, "export", "-o", output, "--encoding", "utf16", "--no-history")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown encoding")
}

func TestExportAndHistoryCommands(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("RECORDS2CSV_HISTORY_DIR", filepath.Join(dir, "state"))
	output := filepath.Join(dir, "placeholder.csv")

	_, err := execute(t, "export", "-o", output, "--log-level", "error")
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "\r\n\r\n", string(data))

	out, err := execute(t, "history", "--json", "--output-filter", output)
	require.NoError(t, err)
	var entries []history.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, output, entries[0].Output)
	assert.Equal(t, "created", entries[0].Mode)

	dump := filepath.Join(dir, "ledger.yaml")
	out, err = execute(t, "history", "--export", dump)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported history to "+dump)
	_, err = os.Stat(dump)
	assert.NoError(t, err)
}

func TestBatchCommand(t *testing.T) {
	dir := t.TempDir()
	inDir := filepath.Join(dir, "in")
	outDir := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(inDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(inDir, "a.json"), []byte(`[{"k":1}]`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(inDir, "b.yaml"), []byte("- k: two\n"), 0o644))

	out, err := execute(t, "export", "--batch", inDir, "--out-dir", outDir, "--no-history", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "Batch summary: 2 exported, 0 skipped, 0 failed (total: 2)")

	data, err := os.ReadFile(filepath.Join(outDir, "b.csv"))
	require.NoError(t, err)
	assert.Equal(t, "k\r\n\"two\"", string(data))

	_, err = execute(t, "export", "--batch", "--out-dir", outDir, "--no-history")
	require.Error(t, err)
}

func TestFormatHistory(t *testing.T) {
	ts := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)
	entries := []history.Entry{{
		ID: "1", Input: "/a/very/long/path/to/some/input/file.json", Output: "/o.csv",
		Rows: 3, Bytes: 42, Mode: "created", Encoding: "utf8", CreatedAt: ts,
	}}

	var table bytes.Buffer
	require.NoError(t, formatHistory(&table, entries, false))
	assert.Contains(t, table.String(), "created")
	assert.Contains(t, table.String(), "...")
	assert.Contains(t, table.String(), "1 exports")

	var empty bytes.Buffer
	require.NoError(t, formatHistory(&empty, nil, false))
	assert.Equal(t, "No exports recorded.\n", empty.String())

	var js bytes.Buffer
	require.NoError(t, formatHistory(&js, nil, true))
	assert.Equal(t, "[]\n", js.String())
}

func TestNewLogger(t *testing.T) {
	l, err := newLogger("debug")
	require.NoError(t, err)
	assert.NotNil(t, l)

	_, err = newLogger("loud")
	require.Error(t, err)
}
