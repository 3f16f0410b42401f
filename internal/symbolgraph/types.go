package symbolgraph

import (
	"encoding/json"
	"strings"

	"github.com/jcdickinson/symdoc/internal/lang"
)

// Identifier names one logical API entity. Precise is shared by every
// language variant of the entity.
type Identifier struct {
	Precise           string `json:"precise"`
	InterfaceLanguage string `json:"interfaceLanguage"`
}

type Names struct {
	Title     string `json:"title"`
	Navigator string `json:"navigator,omitempty"`
}

// Kind is the declaration kind, e.g. {"identifier":"swift.struct","displayName":"Structure"}.
type Kind struct {
	Identifier  string `json:"identifier"`
	DisplayName string `json:"displayName"`
}

// Base returns the identifier without its language prefix ("swift.struct" -> "struct").
func (k Kind) Base() string {
	if i := strings.LastIndex(k.Identifier, "."); i >= 0 {
		return k.Identifier[i+1:]
	}
	return k.Identifier
}

type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

type SourceRange struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

type Line struct {
	Text  string       `json:"text"`
	Range *SourceRange `json:"range,omitempty"`
}

// LineList is a documentation comment with per-line source ranges.
type LineList struct {
	Lines []Line `json:"lines"`
}

// Text joins the comment lines with newlines.
func (l *LineList) Text() string {
	if l == nil {
		return ""
	}
	texts := make([]string, len(l.Lines))
	for i, line := range l.Lines {
		texts[i] = line.Text
	}
	return strings.Join(texts, "\n")
}

// IsEmpty reports whether the comment is missing or only whitespace.
func (l *LineList) IsEmpty() bool {
	return strings.TrimSpace(l.Text()) == ""
}

// StartLine is the 1-based line of the first comment line, 0 when unknown.
func (l *LineList) StartLine() int {
	if l == nil || len(l.Lines) == 0 || l.Lines[0].Range == nil {
		return 0
	}
	return l.Lines[0].Range.Start.Line + 1
}

// Symbol is one language-specific declaration of an API entity as emitted
// for one module.
type Symbol struct {
	Identifier     Identifier                 `json:"identifier"`
	Module         string                     `json:"module"`
	PathComponents []string                   `json:"pathComponents"`
	Names          Names                      `json:"names"`
	Kind           Kind                       `json:"kind"`
	AccessLevel    string                     `json:"accessLevel"`
	DocComment     *LineList                  `json:"docComment,omitempty"`
	MemberOf       string                     `json:"memberOf,omitempty"` // precise id of the containing entity
	Extra          map[string]json.RawMessage `json:"extra,omitempty"`

	// Set by the reader, not part of the file format.
	IsFromMainGraph bool   `json:"-"`
	Source          string `json:"-"`
	Line            int    `json:"-"`
}

func (s *Symbol) Language() lang.Language {
	return lang.Parse(s.Identifier.InterfaceLanguage)
}

// Title returns the display title, falling back to the last path component.
func (s *Symbol) Title() string {
	if s.Names.Title != "" {
		return s.Names.Title
	}
	if n := len(s.PathComponents); n > 0 {
		return s.PathComponents[n-1]
	}
	return s.Identifier.Precise
}

// Graph is one decoded symbol graph file.
type Graph struct {
	Path        string
	Module      string // module that produced the file
	Extended    string // extended module for extension graphs, empty otherwise
	IsMainGraph bool
	Symbols     []Symbol
}
