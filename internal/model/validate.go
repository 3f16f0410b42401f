package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/gomarkdown/markdown/ast"
	"github.com/jcdickinson/symdoc/internal/markup"
	"github.com/jcdickinson/symdoc/internal/reference"
	"github.com/jcdickinson/symdoc/internal/symbolgraph"
)

// collectMentions records, for every symbol page, the articles that link
// to it.
func (b *builder) collectMentions() {
	for path, info := range b.articles {
		article := b.m.nodes[path]
		seen := make(map[string]bool)
		ast.WalkFunc(info.parsed.Root, func(n ast.Node, entering bool) ast.WalkStatus {
			code, ok := n.(*ast.Code)
			if !entering || !ok {
				return ast.GoToNext
			}
			target, ok := b.resolve(string(code.Literal))
			if !ok || seen[target] || b.m.nodes[target].Symbol == nil {
				return ast.GoToNext
			}
			seen[target] = true
			b.m.mentions[target] = append(b.m.mentions[target], article.Reference)
			return ast.GoToNext
		})
	}
	for _, refs := range b.m.mentions {
		sort.Slice(refs, func(i, j int) bool { return reference.Less(refs[i], refs[j]) })
	}
}

// callout is a "- Parameter x:", "- Parameters:" or "- Returns:" list item.
type callout struct {
	params  []string
	returns bool
}

func readCallouts(root ast.Node) callout {
	var c callout
	for _, child := range root.GetChildren() {
		list, ok := child.(*ast.List)
		if !ok {
			continue
		}
		for _, item := range list.GetChildren() {
			parts := item.GetChildren()
			if len(parts) == 0 {
				continue
			}
			text := markup.PlainText(parts[0])
			switch {
			case strings.HasPrefix(text, "Returns:"):
				c.returns = true
			case strings.HasPrefix(text, "Parameters:"):
				for _, nested := range parts[1:] {
					if _, ok := nested.(*ast.List); !ok {
						continue
					}
					for _, p := range nested.GetChildren() {
						if name, _, ok := strings.Cut(markup.PlainText(p), ":"); ok {
							c.params = append(c.params, strings.TrimSpace(name))
						}
					}
				}
			case strings.HasPrefix(text, "Parameter "):
				if name, _, ok := strings.Cut(strings.TrimPrefix(text, "Parameter "), ":"); ok {
					c.params = append(c.params, strings.TrimSpace(name))
				}
			}
		}
	}
	return c
}

// validateDocComments checks parameter and return value callouts against
// the documented declaration.
func (b *builder) validateDocComments() {
	for _, e := range b.entries {
		decl := e.sym.CanonicalDocComment(b.opts.PrimaryLanguage)
		if decl == nil {
			continue
		}
		doc := b.m.nodes[e.ref.Path].Content()
		if doc == nil {
			continue
		}
		c := readCallouts(doc.Root)
		source, line := decl.Source, decl.DocComment.StartLine()
		kind := e.rep.Kind.Base()

		if !functionLikeKinds[kind] {
			if len(c.params) > 0 {
				b.warn(source, line, "model.UnexpectedParameterDocumentation",
					fmt.Sprintf("%q documents parameters but is not a function", e.rep.Title()))
			}
			if c.returns {
				b.warn(source, line, "model.UnexpectedReturnsDocumentation",
					fmt.Sprintf("%q documents a return value but is not a function", e.rep.Title()))
			}
			continue
		}
		if c.returns && kind == "init" {
			b.warn(source, line, "model.UnexpectedReturnsDocumentation",
				fmt.Sprintf("Initializer %q documents a return value", e.rep.Title()))
		}

		seen := make(map[string]bool)
		for _, p := range c.params {
			if seen[p] {
				b.warn(source, line, "model.DuplicateParameterDocumentation",
					fmt.Sprintf("Parameter %q of %q is documented more than once", p, e.rep.Title()))
			}
			seen[p] = true
		}

		declared, ok := declaredParameters(decl)
		if !ok {
			continue
		}
		known := make(map[string]bool, len(declared))
		for _, p := range declared {
			known[p] = true
		}
		for _, p := range c.params {
			if !known[p] {
				b.warn(source, line, "model.UnknownParameter",
					fmt.Sprintf("%q has no parameter named %q", e.rep.Title(), p))
			}
		}
	}
}

// declaredParameters reads the optional "parameters" list of names from
// the declaration's extra metadata.
func declaredParameters(decl *symbolgraph.Symbol) ([]string, bool) {
	raw, ok := decl.Extra["parameters"]
	if !ok {
		return nil, false
	}
	var names []string
	if err := json.Unmarshal(raw, &names); err != nil {
		return nil, false
	}
	return names, true
}
