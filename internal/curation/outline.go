package curation

import (
	"sort"
	"strings"

	"github.com/jcdickinson/symdoc/internal/markup"
	"github.com/jcdickinson/symdoc/internal/node"
	"github.com/jcdickinson/symdoc/internal/reference"
)

// DefaultGroupTitle titles the single group used when grouping by kind is
// disabled.
const DefaultGroupTitle = "Members"

// kindGroups lists topic group titles in output order, keyed by kind
// identifier without its language prefix.
var kindGroups = []struct {
	title string
	kinds []string
}{
	{"Articles", []string{"article"}},
	{"Modules", []string{"module"}},
	{"Classes", []string{"class"}},
	{"Structures", []string{"struct"}},
	{"Enumerations", []string{"enum"}},
	{"Protocols", []string{"protocol"}},
	{"Type Aliases", []string{"typealias"}},
	{"Associated Types", []string{"associatedtype"}},
	{"Extensions", []string{"extension"}},
	{"Initializers", []string{"init"}},
	{"Deinitializers", []string{"deinit"}},
	{"Instance Properties", []string{"property"}},
	{"Instance Methods", []string{"method"}},
	{"Subscripts", []string{"subscript"}},
	{"Type Properties", []string{"type.property"}},
	{"Type Methods", []string{"type.method"}},
	{"Type Subscripts", []string{"type.subscript"}},
	{"Enumeration Cases", []string{"enum.case"}},
	{"Global Variables", []string{"var"}},
	{"Functions", []string{"func"}},
	{"Operators", []string{"func.op", "op"}},
	{"Macros", []string{"macro"}},
	{"Overloads", []string{"overloadGroup"}},
}

var groupRank = func() map[string]int {
	rank := make(map[string]int)
	for i, g := range kindGroups {
		for _, k := range g.kinds {
			rank[k] = i
		}
	}
	return rank
}()

// kindKey strips the language prefix: "swift.type.method" -> "type.method".
func kindKey(identifier string) string {
	if _, rest, ok := strings.Cut(identifier, "."); ok {
		return rest
	}
	return identifier
}

// group is one titled topic group in an outline.
type group struct {
	title    string
	children []*node.Node
}

// groupByKind splits children into kind groups, known kinds first in the
// fixed order, then unknown kinds by title. Children keep their order
// within a group.
func groupByKind(children []*node.Node) []group {
	known := make(map[int]*group)
	unknown := make(map[string]*group)

	for _, child := range children {
		if rank, ok := groupRank[kindKey(child.Kind.Identifier)]; ok {
			g, ok := known[rank]
			if !ok {
				g = &group{title: kindGroups[rank].title}
				known[rank] = g
			}
			g.children = append(g.children, child)
			continue
		}
		title := unknownGroupTitle(child)
		g, ok := unknown[title]
		if !ok {
			g = &group{title: title}
			unknown[title] = g
		}
		g.children = append(g.children, child)
	}

	var out []group
	for rank := range kindGroups {
		if g, ok := known[rank]; ok {
			out = append(out, *g)
		}
	}
	titles := make([]string, 0, len(unknown))
	for title := range unknown {
		titles = append(titles, title)
	}
	sort.Strings(titles)
	for _, title := range titles {
		out = append(out, *unknown[title])
	}
	return out
}

func unknownGroupTitle(n *node.Node) string {
	name := n.Kind.DisplayName
	if name == "" {
		name = kindKey(n.Kind.Identifier)
	}
	return markup.CapitalizeFirstWord(name) + "s"
}

// TargetPath is the outline file for a page: "<Module>.md" for a module,
// "<Module>/<c1>/.../<cN>.md" below it. Slashes inside a component, as in
// operator names, are escaped.
func TargetPath(n *node.Node) string {
	parts := n.Reference.Components()
	for i, p := range parts {
		parts[i] = reference.EscapeComponent(p)
	}
	return strings.Join(parts, "/") + ".md"
}

func symbolLink(n *node.Node) string {
	return "``" + n.Reference.LinkPath() + "``"
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

// renderOutline writes the extension file that curates n's children.
func renderOutline(n *node.Node, groups []group) string {
	var b strings.Builder
	b.WriteString("# " + symbolLink(n) + "\n\n")
	b.WriteString("<!-- Generated by symdoc. The topics below mirror the automatic curation; edit them to reorganize this page. -->\n\n")
	b.WriteString("@Metadata { @DocumentationExtension(mergeBehavior: append) }\n\n")
	b.WriteString("## Topics\n")
	for _, g := range groups {
		b.WriteString("\n@TopicGroup(title: " + quote(g.title) + ") {\n")
		for _, child := range g.children {
			b.WriteString("- " + symbolLink(child) + "\n")
		}
		b.WriteString("}\n")
	}
	return b.String()
}
