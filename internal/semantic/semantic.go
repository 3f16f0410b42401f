// Package semantic converts parsed block directives into typed objects.
//
// Each directive kind claims a name and converts matching blocks. Malformed
// author input never aborts a conversion: the kind returns nil together with
// problems describing what was wrong. Kinds are looked up through a Registry
// so new kinds can be added without touching the existing ones.
package semantic

import (
	"fmt"
	"sync"

	"github.com/jcdickinson/symdoc/internal/diag"
	"github.com/jcdickinson/symdoc/internal/markup"
)

// Semantic is the result of converting a directive.
type Semantic interface {
	// Directive returns the block the object was converted from.
	Directive() *markup.BlockDirective
}

// Context is passed to every conversion.
type Context struct {
	BundleID string
	Source   string
	// Registry converts nested directives.
	Registry *Registry
}

// Kind is one directive kind.
type Kind interface {
	DirectiveName() string
	CanConvert(d *markup.BlockDirective) bool
	Convert(d *markup.BlockDirective, ctx Context) (Semantic, []diag.Problem)
}

// DefaultCanConvert matches blocks whose name equals the kind's name.
// Kinds call it from CanConvert unless they need fuzzier matching.
func DefaultCanConvert(k Kind, d *markup.BlockDirective) bool {
	return d.Name == k.DirectiveName()
}

// ConvertFunc is the conversion step of a Func kind.
type ConvertFunc func(d *markup.BlockDirective, ctx Context) (Semantic, []diag.Problem)

// Func builds a Kind from plain values. A nil Match uses DefaultCanConvert.
type Func struct {
	Name  string
	Match func(d *markup.BlockDirective) bool
	Fn    ConvertFunc
}

func (f Func) DirectiveName() string { return f.Name }

func (f Func) CanConvert(d *markup.BlockDirective) bool {
	if f.Match != nil {
		return f.Match(d)
	}
	return DefaultCanConvert(f, d)
}

func (f Func) Convert(d *markup.BlockDirective, ctx Context) (Semantic, []diag.Problem) {
	if f.Fn == nil {
		panic(fmt.Sprintf("semantic: directive %q has no conversion", f.Name))
	}
	return f.Fn(d, ctx)
}

// Registry maps directive names to kinds. Safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	kinds  []Kind
	byName map[string]Kind
}

func NewRegistry(kinds ...Kind) *Registry {
	r := &Registry{byName: make(map[string]Kind)}
	for _, k := range kinds {
		r.Register(k)
	}
	return r
}

// DefaultRegistry returns a registry with the built-in kinds.
func DefaultRegistry() *Registry {
	return NewRegistry(
		TopicGroupKind{},
		MetadataKind{},
		DocumentationExtensionKind{},
		DisplayNameKind{},
	)
}

// Register adds a kind. A nil kind, an empty name, a duplicate name or a
// Func without a conversion is a programming error and panics.
func (r *Registry) Register(k Kind) {
	if k == nil {
		panic("semantic: registering nil directive kind")
	}
	name := k.DirectiveName()
	if name == "" {
		panic(fmt.Sprintf("semantic: directive kind %T has an empty name", k))
	}
	if f, ok := k.(Func); ok && f.Fn == nil {
		panic(fmt.Sprintf("semantic: directive %q has no conversion", name))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.byName[name]; dup {
		panic(fmt.Sprintf("semantic: directive %q registered twice", name))
	}
	r.byName[name] = k
	r.kinds = append(r.kinds, k)
}

// Lookup finds the kind for d: the kind registered under its name when that
// kind accepts it, otherwise the first kind whose CanConvert accepts it.
func (r *Registry) Lookup(d *markup.BlockDirective) (Kind, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if k, ok := r.byName[d.Name]; ok && k.CanConvert(d) {
		return k, true
	}
	for _, k := range r.kinds {
		if k.CanConvert(d) {
			return k, true
		}
	}
	return nil, false
}

// Convert converts one directive, reporting problems to c. It returns nil
// when the directive is unknown or malformed.
func (r *Registry) Convert(d *markup.BlockDirective, ctx Context, c *diag.Collector) Semantic {
	sem, problems := r.convert(d, ctx)
	c.Add(problems...)
	return sem
}

func (r *Registry) convert(d *markup.BlockDirective, ctx Context) (Semantic, []diag.Problem) {
	ctx.Registry = r

	var pre []diag.Problem
	if d.ArgumentsErr != nil {
		return nil, []diag.Problem{problemAt(d, ctx, diag.Error, "semantic.InvalidArguments",
			fmt.Sprintf("Cannot parse arguments of '@%s': %v", d.Name, d.ArgumentsErr))}
	}
	if d.Unterminated {
		pre = append(pre, problemAt(d, ctx, diag.Warning, "semantic.UnterminatedDirective",
			fmt.Sprintf("'@%s' is missing its closing brace", d.Name)))
	}

	k, ok := r.Lookup(d)
	if !ok {
		return nil, append(pre, problemAt(d, ctx, diag.Warning, "semantic.UnknownDirective",
			fmt.Sprintf("Unknown directive '@%s'", d.Name)))
	}
	sem, problems := k.Convert(d, ctx)
	return sem, append(pre, problems...)
}

// ConvertAll converts every directive that is a direct child of doc.
func (r *Registry) ConvertAll(doc *markup.Document, ctx Context, c *diag.Collector) []Semantic {
	var out []Semantic
	for _, d := range markup.Directives(doc.Root) {
		if sem := r.Convert(d, ctx, c); sem != nil {
			out = append(out, sem)
		}
	}
	return out
}

func problemAt(d *markup.BlockDirective, ctx Context, sev diag.Severity, id, summary string) diag.Problem {
	return diag.Problem{Severity: sev, Identifier: id, Summary: summary, Source: ctx.Source, Line: d.Line}
}
