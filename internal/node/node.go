// Package node holds documentation units: one addressable page per symbol,
// module or article, with its parsed content and anchor sections.
package node

import (
	"sync"

	"github.com/gomarkdown/markdown/ast"
	"github.com/jcdickinson/symdoc/internal/markup"
	"github.com/jcdickinson/symdoc/internal/reference"
	"github.com/jcdickinson/symdoc/internal/symbolgraph"
	"github.com/jcdickinson/symdoc/internal/unified"
)

// Kinds of units that are not declared by a symbol graph.
var (
	KindModule        = symbolgraph.Kind{Identifier: "module", DisplayName: "Module"}
	KindArticle       = symbolgraph.Kind{Identifier: "article", DisplayName: "Article"}
	KindOverloadGroup = symbolgraph.Kind{Identifier: "overloadGroup", DisplayName: "Overload Group"}
)

// AnchorSection is an addressable sub-heading of a unit.
type AnchorSection struct {
	Title     string
	Reference reference.Reference
}

// Node is one documentation unit. Its content is fixed at construction.
type Node struct {
	Reference reference.Reference
	Kind      symbolgraph.Kind
	Title     string

	// Symbol is the unified symbol behind a symbol unit, nil otherwise.
	Symbol *unified.Symbol

	content *markup.Document

	anchorsOnce sync.Once
	anchors     []AnchorSection
}

// NewSymbol creates a unit for a unified symbol. content is the parsed
// canonical documentation comment, nil when the symbol is undocumented.
func NewSymbol(ref reference.Reference, sym *unified.Symbol, title string, kind symbolgraph.Kind, content *markup.Document) *Node {
	return &Node{Reference: ref, Kind: kind, Title: title, Symbol: sym, content: content}
}

// NewArticle creates a unit for a hand-written article.
func NewArticle(ref reference.Reference, title string, content *markup.Document) *Node {
	return &Node{Reference: ref, Kind: KindArticle, Title: title, content: content}
}

// NewSynthesized creates a unit that has no declaration of its own, such as
// a module or an overload group.
func NewSynthesized(ref reference.Reference, title string, kind symbolgraph.Kind, content *markup.Document) *Node {
	return &Node{Reference: ref, Kind: kind, Title: title, content: content}
}

// Content returns the parsed body, nil when there is none.
func (n *Node) Content() *markup.Document { return n.content }

func (n *Node) IsArticle() bool { return n.Kind == KindArticle }

// AnchorSections returns the unit's level 2 to 6 headings in document
// order, each addressed by the unit's reference with the heading title as
// fragment. Same-titled headings yield identical references. The result is
// computed once and shared; callers must not modify it.
func (n *Node) AnchorSections() []AnchorSection {
	n.anchorsOnce.Do(func() {
		if n.content != nil {
			n.anchors = anchorSections(n.Reference, n.content.Root)
		}
	})
	return n.anchors
}

func anchorSections(base reference.Reference, root ast.Node) []AnchorSection {
	var out []AnchorSection
	ast.WalkFunc(root, func(child ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		h, ok := child.(*ast.Heading)
		if !ok {
			return ast.GoToNext
		}
		if h.Level >= 2 && h.Level <= 6 {
			title := markup.PlainText(h)
			out = append(out, AnchorSection{Title: title, Reference: base.WithFragment(title)})
		}
		return ast.SkipChildren
	})
	return out
}
