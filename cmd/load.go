package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/jcdickinson/symdoc/internal/catalog"
	"github.com/jcdickinson/symdoc/internal/config"
	"github.com/jcdickinson/symdoc/internal/diag"
	"github.com/jcdickinson/symdoc/internal/lang"
	"github.com/jcdickinson/symdoc/internal/model"
	"github.com/jcdickinson/symdoc/internal/unified"
	"github.com/schollz/progressbar/v3"
)

type bundle struct {
	cfg   *config.Config
	model *model.Model
	diags *diag.Collector
}

func catalogArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}

// loadConfig reads the bundle config and applies the persistent flags.
func loadConfig(catalogDir string) (*config.Config, error) {
	cfg, err := config.Load(catalogDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if primaryLanguage != "" {
		cfg.Bundle.PrimaryLanguage = lang.Parse(primaryLanguage)
	}
	cfg.SymbolGraphs.Dirs = append(cfg.SymbolGraphs.Dirs, symbolGraphDirs...)
	return cfg, nil
}

// loadBundle discovers, reads and merges every input of the bundle and
// builds the documentation model. A progress bar is shown while reading
// symbol graphs when progress is set.
func loadBundle(ctx context.Context, cfg *config.Config, progress bool) (*bundle, error) {
	cat, err := catalog.Discover(cfg.CatalogDir, cfg.SymbolGraphs.Patterns, cfg.SymbolGraphs.Dirs)
	if err != nil {
		return nil, fmt.Errorf("discovering inputs: %w", err)
	}
	if len(cat.SymbolGraphs) == 0 && len(cat.Articles) == 0 {
		return nil, fmt.Errorf("no symbol graphs or markdown files found")
	}

	onRead := func(int) {}
	if progress && len(cat.SymbolGraphs) > 0 {
		bar := progressbar.NewOptions(len(cat.SymbolGraphs),
			progressbar.OptionSetDescription("Reading symbol graphs"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionThrottle(65*time.Millisecond),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprintln(os.Stderr)
			}),
		)
		defer bar.Finish()
		onRead = func(int) { bar.Add(1) }
	}

	graphs, err := cat.LoadGraphs(ctx, runtime.GOMAXPROCS(0), onRead)
	if err != nil {
		return nil, fmt.Errorf("loading symbol graphs: %w", err)
	}
	merged, err := unified.MergeGraphs(ctx, graphs, runtime.GOMAXPROCS(0))
	if err != nil {
		return nil, fmt.Errorf("merging symbol graphs: %w", err)
	}
	docs, err := cat.LoadDocuments()
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}

	diags := &diag.Collector{}
	m, err := model.Build(ctx, merged, docs, model.Options{
		BundleID:        cfg.Bundle.Identifier,
		BundleName:      cfg.Bundle.DisplayName,
		PrimaryLanguage: cfg.Bundle.PrimaryLanguage,
		Features:        cfg.Features,
		Diagnostics:     diags,
	})
	if err != nil {
		return nil, fmt.Errorf("building documentation model: %w", err)
	}
	return &bundle{cfg: cfg, model: m, diags: diags}, nil
}

// reportProblems prints collected diagnostics to stderr.
func reportProblems(c *diag.Collector) {
	for _, p := range c.Problems() {
		fmt.Fprintln(os.Stderr, p.String())
	}
	if c.HasErrors() {
		slog.Warn("skipped directives with errors", "problems", c.Len())
	}
}
