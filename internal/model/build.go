package model

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/dominikbraun/graph"
	"github.com/jcdickinson/symdoc/internal/config"
	"github.com/jcdickinson/symdoc/internal/diag"
	"github.com/jcdickinson/symdoc/internal/lang"
	"github.com/jcdickinson/symdoc/internal/markup"
	"github.com/jcdickinson/symdoc/internal/node"
	"github.com/jcdickinson/symdoc/internal/reference"
	"github.com/jcdickinson/symdoc/internal/semantic"
	"github.com/jcdickinson/symdoc/internal/symbolgraph"
	"github.com/jcdickinson/symdoc/internal/unified"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

type Options struct {
	BundleID        string
	BundleName      string
	PrimaryLanguage lang.Language
	Features        config.FeatureFlags

	// Registry interprets directives in markdown files; nil uses the
	// built-in kinds.
	Registry *semantic.Registry
	// Diagnostics receives problems found in author input; nil discards them.
	Diagnostics *diag.Collector
}

func (o Options) withDefaults() Options {
	if o.BundleID == "" {
		o.BundleID = "org.symdoc.documentation"
	}
	if o.BundleName == "" {
		o.BundleName = "Documentation"
	}
	if o.PrimaryLanguage == "" {
		o.PrimaryLanguage = lang.Swift
	}
	if o.Registry == nil {
		o.Registry = semantic.DefaultRegistry()
	}
	if o.Diagnostics == nil {
		o.Diagnostics = &diag.Collector{}
	}
	return o
}

// Document is a markdown file from the catalog: an article, or a
// documentation extension when its title is a double-backtick symbol link.
type Document struct {
	Path  string // for diagnostics
	Name  string // file name without extension
	Title string // front matter title, optional
	Body  string
}

type symbolEntry struct {
	sym  *unified.Symbol
	rep  *symbolgraph.Symbol
	key  string
	base reference.Reference // before disambiguation
	ref  reference.Reference
}

type overloadGroup struct {
	ref     reference.Reference
	members []*symbolEntry
}

// docInfo is what the directives of one markdown file say about a page.
type docInfo struct {
	doc      Document
	parsed   *markup.Document
	body     string
	behavior semantic.MergeBehavior
	display  string
	topics   []*semantic.TopicGroup
}

type builder struct {
	opts Options
	m    *Model

	entries     []*symbolEntry // by identifier
	byID        map[string]*symbolEntry
	byKey       map[string][]*symbolEntry
	overloads   []*overloadGroup
	moduleNames []string
	paths       map[string]bool
	extensions  map[string]*docInfo // by target path
	articles    map[string]*docInfo // by article path

	parses singleflight.Group
	mu     sync.Mutex
	parsed map[string]*markup.Document
}

// Build resolves merged symbols and catalog documents into a Model.
// Author mistakes are reported to opts.Diagnostics; an undeclared container
// identifier or a containment cycle fails the build.
func Build(ctx context.Context, g *unified.Graph, docs []Document, opts Options) (*Model, error) {
	opts = opts.withDefaults()
	b := &builder{
		opts:       opts,
		m:          newModel(opts),
		byID:       make(map[string]*symbolEntry),
		byKey:      make(map[string][]*symbolEntry),
		paths:      make(map[string]bool),
		extensions: make(map[string]*docInfo),
		articles:   make(map[string]*docInfo),
		parsed:     make(map[string]*markup.Document),
	}

	b.collectSymbols(g)
	b.assignReferences()
	b.collectModules()
	b.classifyDocuments(docs)

	if err := b.createNodes(ctx); err != nil {
		return nil, err
	}
	if err := b.link(); err != nil {
		return nil, err
	}
	b.resolveTopics()
	if opts.Features.MentionedIn {
		b.collectMentions()
	}
	if opts.Features.ParametersAndReturnsValidation {
		b.validateDocComments()
	}

	slog.Debug("built documentation model", "nodes", len(b.m.nodes), "modules", len(b.m.modules))
	return b.m, nil
}

func componentKey(module string, components []string) string {
	return module + "\x00" + strings.Join(components, "\x00")
}

func (b *builder) collectSymbols(g *unified.Graph) {
	for _, u := range g.Symbols() {
		rep := u.Representative(b.opts.PrimaryLanguage)
		e := &symbolEntry{
			sym:  u,
			rep:  rep,
			key:  componentKey(rep.Module, rep.PathComponents),
			base: reference.ForSymbol(b.opts.BundleID, rep.Module, rep.PathComponents, rep.Language()),
		}
		e.ref = e.base
		b.entries = append(b.entries, e)
		b.byID[u.ID] = e
		b.byKey[e.key] = append(b.byKey[e.key], e)
	}
}

// disambiguationSuffix is "-" and 5 base-36 digits of the identifier's hash.
func disambiguationSuffix(id string) string {
	h := fnv.New32a()
	h.Write([]byte(id))
	s := strconv.FormatUint(uint64(h.Sum32()%60466176), 36) // 36^5
	return "-" + strings.Repeat("0", 5-len(s)) + s
}

var functionLikeKinds = map[string]bool{
	"func":      true,
	"method":    true,
	"init":      true,
	"subscript": true,
	"op":        true,
}

// assignReferences gives symbols that share a path a hashed suffix and,
// with overloaded symbol presentation, groups colliding functions.
func (b *builder) assignReferences() {
	byPath := make(map[string][]*symbolEntry)
	var paths []string
	for _, e := range b.entries {
		if _, ok := byPath[e.base.Path]; !ok {
			paths = append(paths, e.base.Path)
		}
		byPath[e.base.Path] = append(byPath[e.base.Path], e)
	}
	sort.Strings(paths)

	for _, path := range paths {
		group := byPath[path]
		if len(group) == 1 {
			continue
		}
		functions := true
		for _, e := range group {
			e.ref = e.base.WithPathSuffix(disambiguationSuffix(e.sym.ID))
			functions = functions && functionLikeKinds[e.rep.Kind.Base()]
		}
		if functions && b.opts.Features.OverloadedSymbolPresentation {
			b.overloads = append(b.overloads, &overloadGroup{ref: group[0].base, members: group})
		}
	}

	for _, e := range b.entries {
		b.paths[e.ref.Path] = true
	}
	for _, og := range b.overloads {
		b.paths[og.ref.Path] = true
	}
}

func (b *builder) moduleRef(module string) reference.Reference {
	return reference.ForSymbol(b.opts.BundleID, module, nil, b.opts.PrimaryLanguage)
}

func (b *builder) collectModules() {
	seen := make(map[string]bool)
	for _, e := range b.entries {
		if !seen[e.rep.Module] {
			seen[e.rep.Module] = true
			b.moduleNames = append(b.moduleNames, e.rep.Module)
		}
	}
	sort.Strings(b.moduleNames)
	for _, name := range b.moduleNames {
		b.paths[b.moduleRef(name).Path] = true
	}
}

func (b *builder) resolve(link string) (string, bool) {
	return resolvePath(link, b.opts.BundleID, b.moduleNames, func(p string) bool { return b.paths[p] })
}

func (b *builder) warn(source string, line int, id, summary string) {
	b.opts.Diagnostics.Add(diag.Problem{Severity: diag.Warning, Identifier: id, Summary: summary, Source: source, Line: line})
}

// classifyDocuments splits catalog files into extensions, keyed by the
// page they extend, and articles.
func (b *builder) classifyDocuments(docs []Document) {
	sorted := make([]Document, len(docs))
	copy(sorted, docs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	var articles []*docInfo
	for _, doc := range sorted {
		info := b.interpret(doc)

		link, isExtension := info.parsed.TitleLink()
		if !isExtension {
			articles = append(articles, info)
			continue
		}
		target, ok := b.resolve(link)
		if !ok {
			b.warn(doc.Path, 1, "model.UnresolvedExtension",
				fmt.Sprintf("Documentation extension target ``%s`` does not exist", link))
			continue
		}
		if prev, dup := b.extensions[target]; dup {
			b.warn(doc.Path, 1, "model.DuplicateExtension",
				fmt.Sprintf("``%s`` is already extended by %s", link, prev.doc.Path))
			continue
		}
		info.body = markup.StripTitle(doc.Body)
		b.extensions[target] = info
	}

	for _, info := range articles {
		ref := reference.ForArticle(b.opts.BundleID, b.opts.BundleName, info.doc.Name, b.opts.PrimaryLanguage)
		if b.paths[ref.Path] {
			b.warn(info.doc.Path, 0, "model.DuplicateReference",
				fmt.Sprintf("Article %q has the same address as another page", info.doc.Name))
			continue
		}
		b.paths[ref.Path] = true
		b.articles[ref.Path] = info
	}
}

// interpret parses a document and reads its top-level directives.
func (b *builder) interpret(doc Document) *docInfo {
	info := &docInfo{doc: doc, parsed: markup.Parse(doc.Body), body: doc.Body, behavior: semantic.MergeAppend}
	ctx := semantic.Context{BundleID: b.opts.BundleID, Source: doc.Path}
	for _, sem := range b.opts.Registry.ConvertAll(info.parsed, ctx, b.opts.Diagnostics) {
		switch v := sem.(type) {
		case *semantic.Metadata:
			if v.DocumentationExtension != nil {
				info.behavior = v.DocumentationExtension.MergeBehavior
			}
			if v.DisplayName != nil {
				info.display = v.DisplayName.Name
			}
		case *semantic.TopicGroup:
			info.topics = append(info.topics, v)
		}
	}
	return info
}

// parse parses markdown once per distinct text, also across concurrent
// callers.
func (b *builder) parse(text string) *markup.Document {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	b.mu.Lock()
	doc, ok := b.parsed[text]
	b.mu.Unlock()
	if ok {
		return doc
	}
	v, _, _ := b.parses.Do(text, func() (any, error) {
		doc := markup.Parse(text)
		b.mu.Lock()
		b.parsed[text] = doc
		b.mu.Unlock()
		return doc, nil
	})
	return v.(*markup.Document)
}

// content combines a page's own documentation with its extension file.
func content(own string, ext *docInfo) string {
	if ext == nil {
		return own
	}
	if ext.behavior == semantic.MergeOverride || strings.TrimSpace(own) == "" {
		return ext.body
	}
	return own + "\n\n" + ext.body
}

func title(own string, info *docInfo) string {
	if info != nil && info.display != "" {
		return info.display
	}
	return own
}

func (b *builder) add(n *node.Node) {
	b.m.nodes[n.Reference.Path] = n
}

// createNodes parses page contents in parallel and creates every node.
func (b *builder) createNodes(ctx context.Context) error {
	docs := make([]*markup.Document, len(b.entries))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i, e := range b.entries {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			own := e.sym.DocComment(b.opts.PrimaryLanguage).Text()
			docs[i] = b.parse(content(own, b.extensions[e.ref.Path]))
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return fmt.Errorf("parsing documentation comments: %w", err)
	}

	for i, e := range b.entries {
		ext := b.extensions[e.ref.Path]
		b.add(node.NewSymbol(e.ref, e.sym, title(e.rep.Title(), ext), e.rep.Kind, docs[i]))
	}

	for _, name := range b.moduleNames {
		ref := b.moduleRef(name)
		ext := b.extensions[ref.Path]
		n := node.NewSynthesized(ref, title(name, ext), node.KindModule, b.parse(content("", ext)))
		b.add(n)
		b.m.modules = append(b.m.modules, n)
	}

	for _, og := range b.overloads {
		ext := b.extensions[og.ref.Path]
		first := og.members[0]
		b.add(node.NewSynthesized(og.ref, title(first.rep.Title(), ext), node.KindOverloadGroup, b.parse(content("", ext))))
	}

	for path, info := range b.articles {
		t := info.doc.Title
		if t == "" {
			t, _ = info.parsed.Title()
		}
		if t == "" {
			t = info.doc.Name
		}
		ref := reference.New(b.opts.BundleID, path, b.opts.PrimaryLanguage)
		b.add(node.NewArticle(ref, title(t, info), info.parsed))
	}
	return nil
}

type edge struct{ parent, child string }

// parentOf is the declared container when there is one, else the nearest
// declared path prefix in the same module, else the module.
func (b *builder) parentOf(e *symbolEntry) (string, error) {
	if id := e.rep.MemberOf; id != "" {
		target, ok := b.byID[id]
		if !ok {
			return "", &ResolutionError{Identifier: id, ReferencedBy: e.sym.ID}
		}
		return target.ref.Path, nil
	}
	comps := e.rep.PathComponents
	for n := len(comps) - 1; n >= 1; n-- {
		if cands := b.byKey[componentKey(e.rep.Module, comps[:n])]; len(cands) > 0 {
			return cands[0].ref.Path, nil
		}
	}
	return b.moduleRef(e.rep.Module).Path, nil
}

func (b *builder) edges() ([]edge, error) {
	var edges []edge
	grouped := make(map[string]string) // member path -> group path
	for _, og := range b.overloads {
		parent, err := b.parentOf(og.members[0])
		if err != nil {
			return nil, err
		}
		edges = append(edges, edge{parent, og.ref.Path})
		for _, member := range og.members {
			grouped[member.ref.Path] = og.ref.Path
		}
	}

	for _, e := range b.entries {
		if group, ok := grouped[e.ref.Path]; ok {
			edges = append(edges, edge{group, e.ref.Path})
			continue
		}
		parent, err := b.parentOf(e)
		if err != nil {
			return nil, err
		}
		edges = append(edges, edge{parent, e.ref.Path})
	}

	// Articles of a catalog named after a module belong to that module.
	if home := b.moduleRef(b.opts.BundleName).Path; b.paths[home] {
		for path := range b.articles {
			edges = append(edges, edge{home, path})
		}
	}

	sort.Slice(edges, func(i, j int) bool {
		di, dj := strings.Count(edges[i].child, "/"), strings.Count(edges[j].child, "/")
		if di != dj {
			return di < dj
		}
		return edges[i].child < edges[j].child
	})
	return edges, nil
}

// link builds the containment hierarchy. Every node has at most one parent,
// so an edge closes a cycle exactly when the child is already an ancestor of
// the parent.
func (b *builder) link() error {
	edges, err := b.edges()
	if err != nil {
		return err
	}

	h := graph.New(graph.StringHash, graph.Directed(), graph.Acyclic())
	for path := range b.m.nodes {
		if err := h.AddVertex(path); err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
			return fmt.Errorf("adding %s to hierarchy: %w", path, err)
		}
	}

	parents := make(map[string]string)
	for _, e := range edges {
		for p, ok := e.parent, true; ok; p, ok = parents[p] {
			if p == e.child {
				return fmt.Errorf("%w: %s cannot contain %s", ErrHierarchyCycle, e.parent, e.child)
			}
		}
		if err := h.AddEdge(e.parent, e.child); err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
			return fmt.Errorf("adding %s under %s: %w", e.child, e.parent, err)
		}
		parents[e.child] = e.parent
	}

	adjacency, err := h.AdjacencyMap()
	if err != nil {
		return fmt.Errorf("reading hierarchy: %w", err)
	}
	for parentPath, successors := range adjacency {
		parent := b.m.nodes[parentPath]
		children := make([]*node.Node, 0, len(successors))
		for childPath := range successors {
			children = append(children, b.m.nodes[childPath])
			b.m.parent[childPath] = parent
		}
		if len(children) == 0 {
			continue
		}
		sort.Slice(children, func(i, j int) bool {
			if children[i].Title != children[j].Title {
				return children[i].Title < children[j].Title
			}
			return children[i].Reference.Path < children[j].Reference.Path
		})
		b.m.children[parentPath] = children
	}
	return nil
}

// resolveTopics resolves the links of authored topic groups.
func (b *builder) resolveTopics() {
	apply := func(path string, info *docInfo) {
		for _, group := range info.topics {
			topic := Topic{Title: group.Title}
			for _, link := range group.Links {
				target, ok := b.resolve(link)
				if !ok {
					b.warn(info.doc.Path, group.Origin.Line, "model.UnresolvedTopic",
						fmt.Sprintf("Topic ``%s`` in %q does not resolve to a page", link, group.Title))
					continue
				}
				topic.Children = append(topic.Children, b.m.nodes[target])
			}
			b.m.topics[path] = append(b.m.topics[path], topic)
		}
	}
	for path, info := range b.extensions {
		apply(path, info)
	}
	for path, info := range b.articles {
		apply(path, info)
	}
}
