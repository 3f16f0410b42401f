package cmd

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index [catalog]",
	Short: "Store the link hierarchy and anchor sections in the SQLite index",
	Args:  cobra.MaximumNArgs(1),
	Run:   runIndex,
}

var indexPath string

func init() {
	indexCmd.Flags().StringVar(&indexPath, "db", "", "index database path (overrides index.path)")
}

func runIndex(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig(catalogArg(args))
	if err != nil {
		log.Fatalf("%v", err)
	}
	if indexPath != "" {
		cfg.Index.Path = indexPath
	}

	ctx := context.Background()
	b, err := loadBundle(ctx, cfg, true)
	if err != nil {
		slog.Error("failed to load bundle", "error", err)
		os.Exit(1)
	}
	reportProblems(b.diags)

	if err := storeIndex(ctx, cfg.Index.Path, b); err != nil {
		slog.Error("failed to store link hierarchy", "error", err)
		os.Exit(1)
	}
	fmt.Printf("indexed %d pages of %s into %s\n", b.model.Len(), cfg.Bundle.Identifier, cfg.Index.Path)
}
