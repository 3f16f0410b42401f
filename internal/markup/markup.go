package markup

import (
	"strings"

	"github.com/gomarkdown/markdown/ast"
	gmparser "github.com/gomarkdown/markdown/parser"
)

// Document is a parsed markdown source with block directives.
type Document struct {
	Root   ast.Node
	Source string
}

// Parse parses markdown, turning `@Name(args) { ... }` blocks into
// BlockDirective nodes.
func Parse(source string) *Document {
	source = strings.ReplaceAll(source, "\r\n", "\n")
	hook := &directiveHook{source: []byte(source)}

	p := gmparser.NewWithExtensions(gmparser.CommonExtensions | gmparser.Autolink)
	p.Opts = gmparser.Options{ParserHook: hook.parse}

	return &Document{Root: p.Parse([]byte(source)), Source: source}
}

// StripTitle removes the first level 1 heading from source, in ATX or setext
// form, and the blank lines after it. Fenced code is not searched.
func StripTitle(source string) string {
	lines := strings.Split(strings.ReplaceAll(source, "\r\n", "\n"), "\n")
	fence := ""
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " ")
		indent := len(line) - len(trimmed)
		if fence != "" {
			if indent <= 3 && strings.HasPrefix(trimmed, fence) {
				fence = ""
			}
			continue
		}
		if indent > 3 {
			continue
		}
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			fence = trimmed[:3]
			continue
		}
		switch {
		case trimmed == "#" || strings.HasPrefix(trimmed, "# ") || strings.HasPrefix(trimmed, "#\t"):
			return rest(lines[i+1:])
		case strings.TrimSpace(line) != "" && i+1 < len(lines) && isSetextH1(lines[i+1]):
			return rest(lines[i+2:])
		}
	}
	return source
}

func isSetextH1(line string) bool {
	trimmed := strings.TrimSpace(line)
	if len(line)-len(strings.TrimLeft(line, " ")) > 3 || trimmed == "" {
		return false
	}
	return strings.Trim(trimmed, "=") == ""
}

func rest(lines []string) string {
	return strings.TrimLeft(strings.Join(lines, "\n"), "\n")
}

// Heading is a heading that is a direct child of the document.
type Heading struct {
	Level int
	Title string
	Node  *ast.Heading
}

// Headings returns the top-level headings of root in document order.
func Headings(root ast.Node) []Heading {
	var out []Heading
	for _, child := range root.GetChildren() {
		if h, ok := child.(*ast.Heading); ok {
			out = append(out, Heading{Level: h.Level, Title: PlainText(h), Node: h})
		}
	}
	return out
}

// Title returns the text of the first level 1 heading.
func (d *Document) Title() (string, bool) {
	for _, h := range Headings(d.Root) {
		if h.Level == 1 {
			return h.Title, true
		}
	}
	return "", false
}

// TitleLink returns the link of a first heading written as a double-backtick
// link, which marks a documentation extension file.
func (d *Document) TitleLink() (string, bool) {
	for _, h := range Headings(d.Root) {
		if h.Level == 1 {
			return SymbolLink(h.Node)
		}
	}
	return "", false
}

// SymbolLink returns the destination when n holds nothing but a
// double-backtick symbol link.
func SymbolLink(n ast.Node) (string, bool) {
	var code *ast.Code
	for _, child := range n.GetChildren() {
		switch c := child.(type) {
		case *ast.Code:
			if code != nil {
				return "", false
			}
			code = c
		case *ast.Text:
			if strings.TrimSpace(string(c.Literal)) != "" {
				return "", false
			}
		default:
			return "", false
		}
	}
	if code == nil {
		return "", false
	}
	link := strings.TrimSpace(string(code.Literal))
	return link, link != ""
}

// ListLinks returns the symbol links of every list item in the lists that
// are direct children of n. Items that are not links are skipped.
func ListLinks(n ast.Node) []string {
	var links []string
	for _, child := range n.GetChildren() {
		list, ok := child.(*ast.List)
		if !ok {
			continue
		}
		for _, item := range list.GetChildren() {
			for _, para := range item.GetChildren() {
				if link, ok := SymbolLink(para); ok {
					links = append(links, link)
				}
			}
		}
	}
	return links
}

// PlainText returns the concatenated literal text under node.
func PlainText(node ast.Node) string {
	var b strings.Builder
	ast.WalkFunc(node, func(n ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		if _, ok := n.(*BlockDirective); ok && n != node {
			return ast.SkipChildren
		}
		if leaf := n.AsLeaf(); leaf != nil && leaf.Literal != nil {
			b.Write(leaf.Literal)
		}
		return ast.GoToNext
	})
	return strings.TrimSpace(b.String())
}
