package cmd

import (
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var version = "dev"

var (
	debug           bool
	logFile         string
	primaryLanguage string
	symbolGraphDirs []string
)

var rootCmd = &cobra.Command{
	Use:     "symdoc [command]",
	Short:   "Documentation compiler for multi-language API symbol graphs",
	Version: version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := setupLogging(logFile); err != nil {
			log.Fatalf("failed to set up logging: %v", err)
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to this file instead of stderr")
	rootCmd.PersistentFlags().StringVar(&primaryLanguage, "primary-language", "", "source language whose documentation wins (overrides bundle.primary_language)")
	rootCmd.PersistentFlags().StringSliceVar(&symbolGraphDirs, "symbol-graphs", nil, "additional directories to search for symbol graph files")

	rootCmd.AddCommand(curateCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(logsCmd)
}

// setupLogging installs the default slog handler. An empty path logs to
// stderr.
func setupLogging(path string) error {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	out := os.Stderr
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return err
		}
		out = f
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})))
	return nil
}
