package cmd

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jcdickinson/symdoc/internal/config"
	"github.com/jcdickinson/symdoc/internal/curation"
	"github.com/jcdickinson/symdoc/internal/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp [catalog]",
	Short: "Serve a documentation bundle to agents over MCP (stdio)",
	Args:  cobra.MaximumNArgs(1),
	Run:   runMCP,
}

func runMCP(cmd *cobra.Command, args []string) {
	// Stdout carries the protocol; keep logs out of the terminal.
	if logFile == "" {
		if err := setupLogging(config.LogPath()); err != nil {
			log.Fatalf("failed to set up logging: %v", err)
		}
	}

	cfg, err := loadConfig(catalogArg(args))
	if err != nil {
		log.Fatalf("%v", err)
	}
	b, err := loadBundle(context.Background(), cfg, false)
	if err != nil {
		slog.Error("failed to load bundle", "error", err)
		os.Exit(1)
	}
	for _, p := range b.diags.Problems() {
		slog.Warn("documentation problem", "problem", p.String())
	}

	server := mcp.NewServer(b.model, curation.Options{
		GroupByKind: cfg.Curation.GroupByKind,
	}, version)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := server.Run(ctx); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("mcp server stopped")
}
