// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the records2csv CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/records2csv/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// logger is built in PersistentPreRunE and synced in PersistentPostRun.
var logger = zap.NewNop()

// envKeyReplacer maps config keys like history.dir to RECORDS2CSV_HISTORY_DIR.
var envKeyReplacer = strings.NewReplacer(".", "_", "-", "_")

// rootCmd is the base command for the records2csv CLI.
var rootCmd = &cobra.Command{
	Use:   "records2csv",
	Short: "Convert arrays of JSON-like records into CSV files",
	Long: `records2csv turns an array of JSON (or YAML) objects into CSV text and
writes it to a file. The header comes from the first record's keys; each field
is the JSON rendering of its value with nulls left empty. Fields are separated
by commas and rows by CRLF.

Run "export" with no input to write the built-in two-record placeholder.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := newLogger(viper.GetString("log.level"))
		if err != nil {
			return err
		}
		logger = l
		if f := viper.ConfigFileUsed(); f != "" {
			logger.Debug("using config file", zap.String("path", f))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./records2csv.yaml or ~/.config/records2csv/records2csv.yaml)")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("verbose", false, "shorthand for --log-level=debug")

	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	setDefaults()
}

// setDefaults registers the configuration defaults.
func setDefaults() {
	viper.SetDefault("export.output", types.DefaultOutput)
	viper.SetDefault("export.encoding", types.DefaultEncoding)
	viper.SetDefault("export.mkdir", false)
	viper.SetDefault("batch.concurrency", 4)
	viper.SetDefault("history.enabled", true)
	viper.SetDefault("log.level", "warn")

	if dir, err := defaultStateDir(); err == nil {
		viper.SetDefault("history.dir", dir)
	} else {
		viper.SetDefault("history.dir", ".records2csv")
	}
}

func defaultStateDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "state", "records2csv"), nil
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("records2csv")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "records2csv"))
		}
	}

	viper.SetEnvPrefix("RECORDS2CSV")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintln(os.Stderr, "warning: reading config:", err)
		}
	}

	if verbose, _ := rootCmd.PersistentFlags().GetBool("verbose"); verbose {
		viper.Set("log.level", "debug")
	}
}

// loadConfig decodes the merged viper state into a Config.
func loadConfig() (types.Config, error) {
	var cfg types.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding configuration: %w", err)
	}
	return cfg, nil
}

// newLogger builds a production zap logger writing to stderr at level.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(lvl)
	config.Encoding = "console"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	l, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return l, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
