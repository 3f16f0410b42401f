// Package catalog finds the inputs of a documentation build: symbol graph
// files and hand-written markdown inside a documentation catalog.
package catalog

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/gobwas/glob"
	"github.com/jcdickinson/symdoc/internal/markup"
	"github.com/jcdickinson/symdoc/internal/model"
	"github.com/jcdickinson/symdoc/internal/symbolgraph"
	"golang.org/x/sync/errgroup"
)

// DefaultPatterns match symbol graph files anywhere below a searched directory.
var DefaultPatterns = []string{"**/*" + symbolgraph.FileSuffix, "**/*" + symbolgraph.FileSuffix + symbolgraph.CompressedSuffix}

type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

// Catalog lists the input files of one build. Paths are sorted.
type Catalog struct {
	Dir          string
	SymbolGraphs []string
	Articles     []string
}

// Discover walks the catalog directory and every extra directory. Files
// matching a pattern are symbol graphs; markdown files inside the catalog
// directory are articles or extensions. Hidden files and directories are
// skipped. An empty dir searches the extra directories only.
func Discover(dir string, patterns, extraDirs []string) (*Catalog, error) {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	compiled := make([]compiledPattern, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("compiling pattern %q: %w", pattern, err)
		}
		compiled = append(compiled, compiledPattern{pattern: pattern, glob: g})
	}

	c := &Catalog{Dir: dir}
	seen := make(map[string]bool)
	roots := extraDirs
	if dir != "" {
		roots = append([]string{dir}, extraDirs...)
	}
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if path != root && strings.HasPrefix(d.Name(), ".") {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			abs, err := filepath.Abs(path)
			if err != nil {
				return err
			}
			if seen[abs] {
				return nil
			}

			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)
			switch {
			case matchesAnyPattern(rel, compiled) && symbolgraph.IsSymbolGraphFile(path):
				seen[abs] = true
				c.SymbolGraphs = append(c.SymbolGraphs, path)
			case root == dir && strings.EqualFold(filepath.Ext(path), ".md"):
				seen[abs] = true
				c.Articles = append(c.Articles, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", root, err)
		}
	}

	sort.Strings(c.SymbolGraphs)
	sort.Strings(c.Articles)
	slog.Debug("discovered catalog", "dir", dir, "symbol_graphs", len(c.SymbolGraphs), "articles", len(c.Articles))
	return c, nil
}

// matchesAnyPattern also tries "**/" patterns without the prefix, so
// "**/*.symbols.jsonl" matches a file at the root.
func matchesAnyPattern(path string, patterns []compiledPattern) bool {
	for _, cp := range patterns {
		if cp.glob.Match(path) {
			return true
		}
	}
	if strings.Contains(path, "/") {
		return false
	}
	for _, cp := range patterns {
		simplified, ok := strings.CutPrefix(cp.pattern, "**/")
		if !ok {
			continue
		}
		if g, err := glob.Compile(simplified, '/'); err == nil && g.Match(path) {
			return true
		}
	}
	return false
}

// LoadGraphs reads every symbol graph with up to limit concurrent readers
// (limit <= 0 means unlimited). onRead, when set, is called after each file
// with the number read so far; it may be called concurrently.
func (c *Catalog) LoadGraphs(ctx context.Context, limit int, onRead func(done int)) ([]*symbolgraph.Graph, error) {
	graphs := make([]*symbolgraph.Graph, len(c.SymbolGraphs))
	var done atomic.Int64

	eg, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		eg.SetLimit(limit)
	}
	for i, path := range c.SymbolGraphs {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			g, err := symbolgraph.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			graphs[i] = g
			n := done.Add(1)
			if onRead != nil {
				onRead(int(n))
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return graphs, nil
}

type frontMatter struct {
	Title string `yaml:"title"`
}

// LoadDocuments reads every markdown file. YAML front matter is removed from
// the body; its title, when present, becomes the document title.
func (c *Catalog) LoadDocuments() ([]model.Document, error) {
	docs := make([]model.Document, 0, len(c.Articles))
	for _, path := range c.Articles {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		var fm frontMatter
		body, _, err := markup.SplitFrontMatter(string(data), &fm)
		if err != nil {
			return nil, fmt.Errorf("reading front matter of %s: %w", path, err)
		}
		rel := path
		if c.Dir != "" {
			if r, err := filepath.Rel(c.Dir, path); err == nil {
				rel = filepath.ToSlash(r)
			}
		}
		docs = append(docs, model.Document{
			Path:  rel,
			Name:  strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
			Title: fm.Title,
			Body:  body,
		})
	}
	return docs, nil
}
