// Package markdown renders documentation pages as standalone markdown for
// terminals and agents.
package markdown

import (
	"strings"

	"github.com/gomarkdown/markdown/ast"
	"github.com/jcdickinson/symdoc/internal/markup"
)

// LinkResolver maps a symbol link to a link title and destination.
type LinkResolver func(link string) (title, dest string, ok bool)

// RewriteSymbolLinks turns resolvable double-backtick symbol links into ordinary
// markdown links. It walks the parsed document to find the links, then
// performs targeted string replacements to preserve original formatting.
// Unresolvable links are left as code spans.
func RewriteSymbolLinks(src string, resolve LinkResolver) string {
	doc := markup.Parse(src)

	seen := make(map[string]bool)
	type replacement struct {
		old, new string
	}
	var replacements []replacement

	ast.WalkFunc(doc.Root, func(node ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		code, ok := node.(*ast.Code)
		if !ok {
			return ast.GoToNext
		}
		link := string(code.Literal)
		if seen[link] {
			return ast.GoToNext
		}
		seen[link] = true
		if title, dest, ok := resolve(link); ok {
			replacements = append(replacements, replacement{"``" + link + "``", "[`" + title + "`](" + dest + ")"})
		}
		return ast.GoToNext
	})

	if len(replacements) == 0 {
		return doc.Source
	}

	pairs := make([]string, 0, 2*len(replacements))
	for _, r := range replacements {
		pairs = append(pairs, r.old, r.new)
	}
	return strings.NewReplacer(pairs...).Replace(doc.Source)
}
