package markdown

import (
	"fmt"
	"strings"

	"github.com/jcdickinson/symdoc/internal/markup"
	"github.com/jcdickinson/symdoc/internal/model"
	"github.com/jcdickinson/symdoc/internal/node"
)

type anchorMeta struct {
	Title     string `yaml:"title"`
	Reference string `yaml:"reference"`
}

type pageMeta struct {
	Reference   string       `yaml:"reference"`
	Kind        string       `yaml:"kind"`
	Language    string       `yaml:"language,omitempty"`
	Parent      string       `yaml:"parent,omitempty"`
	MentionedIn []string     `yaml:"mentioned_in,omitempty"`
	Sections    []anchorMeta `yaml:"sections,omitempty"`
}

// Page renders n with identity and anchor sections as front matter, its
// content with symbol links resolved, and its topics: authored groups first,
// then the children no group curates.
func Page(m *model.Model, n *node.Node) (string, error) {
	meta := pageMeta{
		Reference: n.Reference.String(),
		Kind:      n.Kind.DisplayName,
		Language:  n.Reference.SourceLanguage.Name(),
	}
	if p, ok := m.Parent(n.Reference); ok {
		meta.Parent = p.Reference.String()
	}
	for _, ref := range m.MentionedIn(n.Reference) {
		meta.MentionedIn = append(meta.MentionedIn, ref.String())
	}
	for _, a := range n.AnchorSections() {
		meta.Sections = append(meta.Sections, anchorMeta{Title: a.Title, Reference: a.Reference.String()})
	}

	resolve := func(link string) (string, string, bool) {
		target, ok := m.Resolve(link)
		if !ok {
			return "", "", false
		}
		return target.Title, target.Reference.String(), true
	}

	var b strings.Builder
	content := n.Content()
	if content == nil || strings.TrimSpace(content.Source) == "" {
		fmt.Fprintf(&b, "# %s\n", n.Title)
	} else {
		if _, ok := content.Title(); !ok {
			fmt.Fprintf(&b, "# %s\n\n", n.Title)
		}
		b.WriteString(strings.TrimRight(RewriteSymbolLinks(content.Source, resolve), "\n"))
		b.WriteString("\n")
	}

	topics := m.Topics(n.Reference)
	curated := make(map[string]bool)
	for _, t := range topics {
		for _, c := range t.Children {
			curated[c.Reference.Path] = true
		}
	}
	var rest []*node.Node
	for _, c := range m.Children(n.Reference) {
		if !curated[c.Reference.Path] {
			rest = append(rest, c)
		}
	}
	if len(rest) > 0 {
		topics = append(topics, model.Topic{Title: "Members", Children: rest})
	}

	if len(topics) > 0 {
		b.WriteString("\n## Topics\n")
		for _, t := range topics {
			fmt.Fprintf(&b, "\n### %s\n\n", t.Title)
			for _, c := range t.Children {
				fmt.Fprintf(&b, "- [`%s`](%s)\n", c.Title, c.Reference.String())
			}
		}
	}

	return markup.AddFrontMatter(b.String(), meta)
}
