package semantic

import (
	"fmt"
	"strings"

	"github.com/jcdickinson/symdoc/internal/diag"
	"github.com/jcdickinson/symdoc/internal/markup"
)

// TopicGroup is a @TopicGroup directive holding a list of symbol links.
type TopicGroup struct {
	Origin *markup.BlockDirective
	Title  string
	Links  []string
}

func (g *TopicGroup) Directive() *markup.BlockDirective { return g.Origin }

type TopicGroupKind struct{}

func (TopicGroupKind) DirectiveName() string { return "TopicGroup" }

func (k TopicGroupKind) CanConvert(d *markup.BlockDirective) bool { return DefaultCanConvert(k, d) }

func (TopicGroupKind) Convert(d *markup.BlockDirective, ctx Context) (Semantic, []diag.Problem) {
	title, ok := d.Argument("title")
	if !ok || strings.TrimSpace(title) == "" {
		return nil, []diag.Problem{problemAt(d, ctx, diag.Error, "semantic.MissingArgument",
			"'@TopicGroup' requires a non-empty 'title' argument")}
	}

	var problems []diag.Problem
	problems = append(problems, unexpectedArguments(d, ctx, "title")...)
	problems = append(problems, nestedDirectives(d, ctx)...)

	links := markup.ListLinks(d)
	if len(links) == 0 {
		problems = append(problems, problemAt(d, ctx, diag.Warning, "semantic.EmptyTopicGroup",
			fmt.Sprintf("Topic group %q has no links", title)))
	}
	return &TopicGroup{Origin: d, Title: title, Links: links}, problems
}

// MergeBehavior says how an extension file combines with in-source docs.
type MergeBehavior string

const (
	MergeAppend   MergeBehavior = "append"
	MergeOverride MergeBehavior = "override"
)

// DocumentationExtension is `@DocumentationExtension(mergeBehavior: ...)`.
type DocumentationExtension struct {
	Origin        *markup.BlockDirective
	MergeBehavior MergeBehavior
}

func (e *DocumentationExtension) Directive() *markup.BlockDirective { return e.Origin }

type DocumentationExtensionKind struct{}

func (DocumentationExtensionKind) DirectiveName() string { return "DocumentationExtension" }

func (k DocumentationExtensionKind) CanConvert(d *markup.BlockDirective) bool {
	return DefaultCanConvert(k, d)
}

func (DocumentationExtensionKind) Convert(d *markup.BlockDirective, ctx Context) (Semantic, []diag.Problem) {
	value, ok := d.Argument("mergeBehavior")
	if !ok {
		return nil, []diag.Problem{problemAt(d, ctx, diag.Error, "semantic.MissingArgument",
			"'@DocumentationExtension' requires a 'mergeBehavior' argument")}
	}
	switch mb := MergeBehavior(value); mb {
	case MergeAppend, MergeOverride:
		return &DocumentationExtension{Origin: d, MergeBehavior: mb},
			unexpectedArguments(d, ctx, "mergeBehavior")
	default:
		return nil, []diag.Problem{problemAt(d, ctx, diag.Error, "semantic.InvalidArgument",
			fmt.Sprintf("Unknown merge behavior %q, expected 'append' or 'override'", value))}
	}
}

// DisplayName is `@DisplayName("Title")`; it overrides a page title.
type DisplayName struct {
	Origin *markup.BlockDirective
	Name   string
	Style  string
}

func (n *DisplayName) Directive() *markup.BlockDirective { return n.Origin }

type DisplayNameKind struct{}

func (DisplayNameKind) DirectiveName() string { return "DisplayName" }

func (k DisplayNameKind) CanConvert(d *markup.BlockDirective) bool { return DefaultCanConvert(k, d) }

func (DisplayNameKind) Convert(d *markup.BlockDirective, ctx Context) (Semantic, []diag.Problem) {
	name, ok := d.Argument("")
	if !ok || strings.TrimSpace(name) == "" {
		return nil, []diag.Problem{problemAt(d, ctx, diag.Error, "semantic.MissingArgument",
			"'@DisplayName' requires the display name as its first argument")}
	}
	style, hasStyle := d.Argument("style")
	if !hasStyle {
		style = "conceptual"
	}
	var problems []diag.Problem
	if style != "conceptual" && style != "symbol" {
		problems = append(problems, problemAt(d, ctx, diag.Warning, "semantic.InvalidArgument",
			fmt.Sprintf("Unknown display name style %q, using 'conceptual'", style)))
		style = "conceptual"
	}
	problems = append(problems, unexpectedArguments(d, ctx, "", "style")...)
	return &DisplayName{Origin: d, Name: name, Style: style}, problems
}

// Metadata is `@Metadata { ... }`, a container for page-level settings.
type Metadata struct {
	Origin                 *markup.BlockDirective
	DocumentationExtension *DocumentationExtension
	DisplayName            *DisplayName
}

func (m *Metadata) Directive() *markup.BlockDirective { return m.Origin }

type MetadataKind struct{}

func (MetadataKind) DirectiveName() string { return "Metadata" }

func (k MetadataKind) CanConvert(d *markup.BlockDirective) bool { return DefaultCanConvert(k, d) }

func (MetadataKind) Convert(d *markup.BlockDirective, ctx Context) (Semantic, []diag.Problem) {
	m := &Metadata{Origin: d}
	problems := unexpectedArguments(d, ctx)
	if ctx.Registry == nil {
		ctx.Registry = DefaultRegistry()
	}

	for _, child := range markup.Directives(d) {
		sem, childProblems := ctx.Registry.convert(child, ctx)
		problems = append(problems, childProblems...)
		switch v := sem.(type) {
		case nil:
		case *DocumentationExtension:
			if m.DocumentationExtension != nil {
				problems = append(problems, duplicateChild(child, ctx))
				continue
			}
			m.DocumentationExtension = v
		case *DisplayName:
			if m.DisplayName != nil {
				problems = append(problems, duplicateChild(child, ctx))
				continue
			}
			m.DisplayName = v
		default:
			problems = append(problems, problemAt(child, ctx, diag.Warning, "semantic.UnexpectedDirective",
				fmt.Sprintf("'@%s' is not allowed inside '@Metadata'", child.Name)))
		}
	}
	return m, problems
}

func duplicateChild(d *markup.BlockDirective, ctx Context) diag.Problem {
	return problemAt(d, ctx, diag.Warning, "semantic.DuplicateDirective",
		fmt.Sprintf("Duplicate '@%s' inside '@Metadata' is ignored", d.Name))
}

// unexpectedArguments reports arguments whose label is not in allowed.
func unexpectedArguments(d *markup.BlockDirective, ctx Context, allowed ...string) []diag.Problem {
	var problems []diag.Problem
	for _, a := range d.Arguments {
		known := false
		for _, name := range allowed {
			if a.Name == name {
				known = true
				break
			}
		}
		if !known {
			label := a.Name
			if label == "" {
				label = a.Value
			}
			problems = append(problems, problemAt(d, ctx, diag.Warning, "semantic.UnknownArgument",
				fmt.Sprintf("Unknown argument %q for '@%s'", label, d.Name)))
		}
	}
	return problems
}

// nestedDirectives reports directives inside a body that only holds links.
func nestedDirectives(d *markup.BlockDirective, ctx Context) []diag.Problem {
	var problems []diag.Problem
	for _, child := range markup.Directives(d) {
		problems = append(problems, problemAt(child, ctx, diag.Warning, "semantic.UnexpectedDirective",
			fmt.Sprintf("'@%s' is not allowed inside '@%s'", child.Name, d.Name)))
	}
	return problems
}
