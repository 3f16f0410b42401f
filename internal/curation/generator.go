// Package curation generates editable outline files that spell out the
// automatic topic curation of a documentation model.
package curation

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jcdickinson/symdoc/internal/model"
	"github.com/jcdickinson/symdoc/internal/node"
	"golang.org/x/sync/errgroup"
)

type Options struct {
	// GroupByKind splits children into kind groups instead of one group.
	GroupByKind bool
}

// Generator reads a built model; the model must not change while a
// generation runs.
type Generator struct {
	model *model.Model
	opts  Options
}

func NewGenerator(m *model.Model, opts Options) *Generator {
	return &Generator{model: m, opts: opts}
}

// Generate walks the hierarchy breadth first from start, or from every
// module when start is empty, and returns outline content keyed by target
// path. Pages further than depthLimit hops from their starting point are
// not visited; a nil depthLimit is unbounded. Only pages with children get
// an outline. An unknown start fails with a *NotFoundError and an empty
// map.
func (g *Generator) Generate(ctx context.Context, start string, depthLimit *int) (map[string]string, error) {
	var roots []*node.Node
	if start != "" {
		n, ok := g.model.Resolve(start)
		if !ok {
			return map[string]string{}, &NotFoundError{Link: start}
		}
		roots = append(roots, n)
	} else {
		roots = g.model.Modules()
	}

	var (
		mu      sync.Mutex
		entries = make(map[string]string)
	)
	eg, ctx := errgroup.WithContext(ctx)
	for _, root := range roots {
		eg.Go(func() error {
			found, err := g.walk(ctx, root, depthLimit)
			if err != nil {
				return err
			}
			mu.Lock()
			for path, content := range found {
				entries[path] = content
			}
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return map[string]string{}, err
	}

	slog.Debug("generated curation", "start", start, "roots", len(roots), "files", len(entries))
	return entries, nil
}

type queued struct {
	n     *node.Node
	depth int
}

func (g *Generator) walk(ctx context.Context, root *node.Node, depthLimit *int) (map[string]string, error) {
	entries := make(map[string]string)
	visited := map[string]bool{root.Reference.Path: true}
	queue := []queued{{root, 0}}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cur := queue[0]
		queue = queue[1:]

		children := g.model.Children(cur.n.Reference)
		if len(children) == 0 {
			continue
		}
		entries[TargetPath(cur.n)] = g.outline(cur.n, children)

		if depthLimit != nil && cur.depth >= *depthLimit {
			continue
		}
		for _, child := range children {
			if !visited[child.Reference.Path] {
				visited[child.Reference.Path] = true
				queue = append(queue, queued{child, cur.depth + 1})
			}
		}
	}
	return entries, nil
}

// outline renders the outline for a container.
func (g *Generator) outline(n *node.Node, children []*node.Node) string {
	groups := []group{{title: DefaultGroupTitle, children: children}}
	if g.opts.GroupByKind {
		groups = groupByKind(children)
	}
	return renderOutline(n, groups)
}
