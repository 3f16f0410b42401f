// Package model is the resolved documentation model: one node per
// documented unit and the containment hierarchy between them. A Model is
// immutable once built and safe for concurrent reads.
package model

import (
	"sort"
	"strings"

	"github.com/jcdickinson/symdoc/internal/config"
	"github.com/jcdickinson/symdoc/internal/lang"
	"github.com/jcdickinson/symdoc/internal/node"
	"github.com/jcdickinson/symdoc/internal/reference"
)

// Topic is an authored topic group from a documentation extension file.
type Topic struct {
	Title    string
	Children []*node.Node
}

type Model struct {
	BundleID        string
	BundleName      string
	PrimaryLanguage lang.Language
	Features        config.FeatureFlags

	nodes    map[string]*node.Node // by path
	children map[string][]*node.Node
	parent   map[string]*node.Node
	modules  []*node.Node
	topics   map[string][]Topic
	mentions map[string][]reference.Reference
}

func newModel(opts Options) *Model {
	return &Model{
		BundleID:        opts.BundleID,
		BundleName:      opts.BundleName,
		PrimaryLanguage: opts.PrimaryLanguage,
		Features:        opts.Features,
		nodes:           make(map[string]*node.Node),
		children:        make(map[string][]*node.Node),
		parent:          make(map[string]*node.Node),
		topics:          make(map[string][]Topic),
		mentions:        make(map[string][]reference.Reference),
	}
}

// Node returns the unit addressed by ref. The fragment and source language
// are ignored.
func (m *Model) Node(ref reference.Reference) (*node.Node, bool) {
	if ref.BundleID != m.BundleID {
		return nil, false
	}
	n, ok := m.nodes[ref.Path]
	return n, ok
}

// Nodes returns every unit ordered by path.
func (m *Model) Nodes() []*node.Node {
	out := make([]*node.Node, 0, len(m.nodes))
	for _, n := range m.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Reference.Path < out[j].Reference.Path })
	return out
}

func (m *Model) Len() int { return len(m.nodes) }

// Modules returns the module units ordered by name.
func (m *Model) Modules() []*node.Node {
	out := make([]*node.Node, len(m.modules))
	copy(out, m.modules)
	return out
}

// Children returns the direct children of ref ordered by title, then path.
func (m *Model) Children(ref reference.Reference) []*node.Node {
	return m.children[ref.Path]
}

// Parent returns the container of ref; modules and top-level articles have
// none.
func (m *Model) Parent(ref reference.Reference) (*node.Node, bool) {
	p, ok := m.parent[ref.Path]
	return p, ok
}

// Topics returns the authored topic groups of ref.
func (m *Model) Topics(ref reference.Reference) []Topic {
	return m.topics[ref.Path]
}

// MentionedIn returns the articles that link to ref, ordered by path.
func (m *Model) MentionedIn(ref reference.Reference) []reference.Reference {
	return m.mentions[ref.Path]
}

// Resolve finds the unit for a link written as a doc:// URI, an absolute
// /documentation path, a path below /documentation ("MyKit/MyClass") or a
// path relative to a module ("MyClass/doSomething()").
func (m *Model) Resolve(link string) (*node.Node, bool) {
	path, ok := resolvePath(link, m.BundleID, m.moduleNames(), func(p string) bool {
		_, ok := m.nodes[p]
		return ok
	})
	if !ok {
		return nil, false
	}
	return m.nodes[path], true
}

func (m *Model) moduleNames() []string {
	names := make([]string, len(m.modules))
	for i, mod := range m.modules {
		names[i] = mod.Reference.LastComponent()
	}
	return names
}

// resolvePath returns the first candidate path for link accepted by exists.
func resolvePath(link, bundleID string, modules []string, exists func(string) bool) (string, bool) {
	link = strings.TrimSpace(link)
	if link == "" {
		return "", false
	}

	if strings.HasPrefix(link, reference.Scheme+"://") {
		ref, err := reference.Parse(link, "")
		if err != nil || ref.BundleID != bundleID {
			return "", false
		}
		return ref.Path, exists(ref.Path)
	}

	if strings.HasPrefix(link, reference.DocumentationRoot+"/") {
		link, _, _ = strings.Cut(link, "#")
		return link, exists(link)
	}

	rel, _, _ := strings.Cut(strings.Trim(link, "/"), "#")
	bases := []string{reference.DocumentationRoot}
	for _, mod := range modules {
		bases = append(bases, reference.DocumentationRoot+"/"+reference.EscapeComponent(mod))
	}
	for _, base := range bases {
		// Links written from a reference are already escaped; hand-written
		// ones are plain text.
		if c := base + "/" + rel; exists(c) {
			return c, true
		}
		if c := joinLink(base, rel); exists(c) {
			return c, true
		}
	}
	return "", false
}

// joinLink appends the "/"-separated components of rel to base, escaping
// each component.
func joinLink(base, rel string) string {
	parts := strings.Split(rel, "/")
	for i, p := range parts {
		parts[i] = reference.EscapeComponent(p)
	}
	return base + "/" + strings.Join(parts, "/")
}
