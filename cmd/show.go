package cmd

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/jcdickinson/symdoc/internal/markdown"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <link> [catalog]",
	Short: "Print a documentation page with its anchor sections",
	Example: `  symdoc show MyKit/MyClass MyKit.docc
  symdoc show doc://com.example.mykit/documentation/MyKit/MyClass MyKit.docc
  symdoc show GettingStarted MyKit.docc`,
	Args: cobra.RangeArgs(1, 2),
	Run:  runShow,
}

func runShow(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig(catalogArg(args[1:]))
	if err != nil {
		log.Fatalf("%v", err)
	}
	b, err := loadBundle(context.Background(), cfg, false)
	if err != nil {
		slog.Error("failed to load bundle", "error", err)
		os.Exit(1)
	}

	n, ok := b.model.Resolve(args[0])
	if !ok {
		log.Fatalf("no page found for %q", args[0])
	}
	page, err := markdown.Page(b.model, n)
	if err != nil {
		slog.Error("failed to render page", "error", err)
		os.Exit(1)
	}
	fmt.Print(page)
}
