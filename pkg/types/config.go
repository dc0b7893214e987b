// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// DefaultOutput is the path written when no output is configured.
const DefaultOutput = "~/Documents/test.csv"

// DefaultEncoding is the content encoding used when none is configured.
const DefaultEncoding = "utf8"

// ExportConfig holds settings for a single export.
type ExportConfig struct {
	// Output is the destination file path. A leading "~" expands to the
	// user's home directory.
	Output string `json:"output" mapstructure:"output" yaml:"output"`

	// Encoding is the content encoding: utf8, base64, or ascii.
	Encoding string `json:"encoding" mapstructure:"encoding" yaml:"encoding"`

	// MkdirParents creates missing parent directories of Output.
	MkdirParents bool `json:"mkdir" mapstructure:"mkdir" yaml:"mkdir"`
}

// BatchConfig holds settings for exporting many inputs in one run.
type BatchConfig struct {
	// OutDir receives one CSV file per input.
	OutDir string `json:"out_dir" mapstructure:"out_dir" yaml:"out_dir"`

	// Concurrency bounds the number of exports in flight (default 4).
	Concurrency int `json:"concurrency" mapstructure:"concurrency" yaml:"concurrency"`

	// Force re-exports inputs whose CSV output is already up to date.
	Force bool `json:"force" mapstructure:"force" yaml:"force"`
}

// HistoryConfig holds settings for the export ledger.
type HistoryConfig struct {
	// Dir is the directory holding the ledger database.
	Dir string `json:"dir" mapstructure:"dir" yaml:"dir"`

	// Enabled turns recording of completed exports on or off.
	Enabled bool `json:"enabled" mapstructure:"enabled" yaml:"enabled"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level" mapstructure:"level" yaml:"level"`
}

// Config groups all configuration sections.
type Config struct {
	Export  ExportConfig  `json:"export" mapstructure:"export" yaml:"export"`
	Batch   BatchConfig   `json:"batch" mapstructure:"batch" yaml:"batch"`
	History HistoryConfig `json:"history" mapstructure:"history" yaml:"history"`
	Log     LogConfig     `json:"log" mapstructure:"log" yaml:"log"`
}
