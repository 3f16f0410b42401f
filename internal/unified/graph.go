package unified

import (
	"context"
	"hash/fnv"
	"log/slog"
	"sort"
	"sync"

	"github.com/jcdickinson/symdoc/internal/symbolgraph"
	"golang.org/x/sync/errgroup"
)

const shardCount = 32

// Graph maps precise identifiers to unified symbols. Identifiers are
// partitioned over independently locked shards, so merges of different
// identifiers proceed in parallel while merges of one identifier are
// serialized by its shard.
type Graph struct {
	shards [shardCount]shard
}

type shard struct {
	mu      sync.Mutex
	symbols map[string]*Symbol
}

func NewGraph() *Graph {
	g := &Graph{}
	for i := range g.shards {
		g.shards[i].symbols = make(map[string]*Symbol)
	}
	return g
}

func (g *Graph) shardFor(id string) *shard {
	h := fnv.New32a()
	h.Write([]byte(id))
	return &g.shards[h.Sum32()%shardCount]
}

// Add merges one declaration, creating the unified symbol on first sight.
func (g *Graph) Add(sym *symbolgraph.Symbol) {
	s := g.shardFor(sym.Identifier.Precise)
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.symbols[sym.Identifier.Precise]; ok {
		u.MergeSymbol(sym)
		return
	}
	s.symbols[sym.Identifier.Precise] = FromSingleSymbol(sym)
}

// AddGraph merges every declaration of a decoded symbol graph file.
func (g *Graph) AddGraph(sg *symbolgraph.Graph) {
	for i := range sg.Symbols {
		g.Add(&sg.Symbols[i])
	}
}

func (g *Graph) Symbol(id string) (*Symbol, bool) {
	s := g.shardFor(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.symbols[id]
	return u, ok
}

// Symbols returns every unified symbol ordered by identifier.
func (g *Graph) Symbols() []*Symbol {
	var out []*Symbol
	for i := range g.shards {
		s := &g.shards[i]
		s.mu.Lock()
		for _, u := range s.symbols {
			out = append(out, u)
		}
		s.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (g *Graph) Len() int {
	n := 0
	for i := range g.shards {
		s := &g.shards[i]
		s.mu.Lock()
		n += len(s.symbols)
		s.mu.Unlock()
	}
	return n
}

// MergeGraphs merges decoded symbol graphs with one worker per graph, up to
// limit workers at a time (limit <= 0 means unlimited).
func MergeGraphs(ctx context.Context, graphs []*symbolgraph.Graph, limit int) (*Graph, error) {
	g := NewGraph()
	eg, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		eg.SetLimit(limit)
	}
	for _, sg := range graphs {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			g.AddGraph(sg)
			slog.Debug("merged symbol graph", "path", sg.Path, "symbols", len(sg.Symbols), "main", sg.IsMainGraph)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return g, nil
}
