package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jcdickinson/symdoc/internal/curation"
	"github.com/jcdickinson/symdoc/internal/index"
	"github.com/spf13/cobra"
)

var curateCmd = &cobra.Command{
	Use:   "curate [catalog]",
	Short: "Generate editable topic outlines that mirror the automatic curation",
	Long: `Writes one documentation extension file per page that has children. Each file
lists the page's children in @TopicGroup directives grouped by kind; move
links between groups or retitle them to curate the page by hand.`,
	Example: `  symdoc curate MyKit.docc
  symdoc curate MyKit.docc --from MyKit/MyClass --depth 1
  symdoc curate --symbol-graphs .build/symbol-graphs --output Generated.docc`,
	Args: cobra.MaximumNArgs(1),
	Run:  runCurate,
}

var (
	curateFrom    string
	curateDepth   int
	curateOutput  string
	curateArchive string
	curateFlat    bool
)

func init() {
	curateCmd.Flags().StringVar(&curateFrom, "from", "", "start from this page instead of every module")
	curateCmd.Flags().IntVar(&curateDepth, "depth", -1, "how many levels below the starting page to visit (-1 for unbounded)")
	curateCmd.Flags().StringVarP(&curateOutput, "output", "o", "", "directory to write outline files to (defaults to the catalog)")
	curateCmd.Flags().StringVar(&curateArchive, "archive", "", "also write the outlines to this .tar.zst archive")
	curateCmd.Flags().BoolVar(&curateFlat, "flat", false, "list every child in one group instead of grouping by kind")
}

func runCurate(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(catalogArg(args))
	if err != nil {
		log.Fatalf("%v", err)
	}
	if cmd.Flags().Changed("from") {
		cfg.Curation.StartingPoint = curateFrom
	}
	if cmd.Flags().Changed("depth") {
		cfg.Curation.DepthLimit = curateDepth
	}
	if curateOutput != "" {
		cfg.Curation.OutputDir = curateOutput
	}
	if curateFlat {
		cfg.Curation.GroupByKind = false
	}

	b, err := loadBundle(ctx, cfg, true)
	if err != nil {
		slog.Error("failed to load bundle", "error", err)
		os.Exit(1)
	}
	reportProblems(b.diags)

	gen := curation.NewGenerator(b.model, curation.Options{
		GroupByKind: cfg.Curation.GroupByKind,
	})
	entries, err := gen.Generate(ctx, cfg.Curation.StartingPoint, cfg.Curation.Depth())
	var notFound *curation.NotFoundError
	if errors.As(err, &notFound) {
		log.Fatalf("no page found for %q", notFound.Link)
	}
	if err != nil {
		slog.Error("failed to generate curation", "error", err)
		os.Exit(1)
	}

	w := &curation.Writer{Dir: cfg.Curation.OutputDir}
	written, err := w.Write(entries)
	if err != nil {
		slog.Error("failed to write outlines", "error", err)
		os.Exit(1)
	}

	if curateArchive != "" {
		if err := writeArchive(curateArchive, entries); err != nil {
			slog.Error("failed to write archive", "error", err)
			os.Exit(1)
		}
	}

	if cfg.Features.LinkHierarchySerialization {
		if err := storeIndex(ctx, cfg.Index.Path, b); err != nil {
			slog.Error("failed to store link hierarchy", "error", err)
			os.Exit(1)
		}
	}

	fmt.Printf("wrote %d outline files to %s\n", len(written), cfg.Curation.OutputDir)
}

func writeArchive(path string, entries map[string]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating archive: %w", err)
	}
	if err := curation.WriteArchive(f, entries); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func storeIndex(ctx context.Context, path string, b *bundle) error {
	database, err := index.New(path)
	if err != nil {
		return fmt.Errorf("opening index: %w", err)
	}
	defer database.Close()

	stats, err := database.Store(ctx, b.model)
	if err != nil {
		return err
	}
	slog.Info("stored link hierarchy", "path", path, "nodes", stats.Nodes, "articles", stats.Articles, "anchors", stats.Anchors, "mentions", stats.Mentions)
	return nil
}
