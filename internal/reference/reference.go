package reference

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/jcdickinson/symdoc/internal/lang"
)

// Scheme is the URI scheme used in the string form of a Reference.
const Scheme = "doc"

// DocumentationRoot is the path prefix every documented unit lives under.
const DocumentationRoot = "/documentation"

// Reference is the stable address of a documented unit. It is a comparable
// value and is used directly as a map key; two references are the same unit
// only when every field matches.
type Reference struct {
	BundleID       string
	Path           string
	Fragment       string
	SourceLanguage lang.Language
}

// New builds a reference to path inside a bundle. A missing leading slash is
// added so equivalent paths compare equal.
func New(bundleID, path string, language lang.Language) Reference {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return Reference{BundleID: bundleID, Path: path, SourceLanguage: language}
}

// ForSymbol builds the reference of a symbol declared in module with the
// given path components (container first, member last).
func ForSymbol(bundleID, module string, pathComponents []string, language lang.Language) Reference {
	parts := make([]string, 0, len(pathComponents)+1)
	parts = append(parts, EscapeComponent(module))
	for _, c := range pathComponents {
		parts = append(parts, EscapeComponent(c))
	}
	return New(bundleID, DocumentationRoot+"/"+strings.Join(parts, "/"), language)
}

// ForArticle builds the reference of a hand-written article. Articles live
// directly below the bundle's display name.
func ForArticle(bundleID, bundleName, name string, language lang.Language) Reference {
	return New(bundleID, DocumentationRoot+"/"+EscapeComponent(bundleName)+"/"+EscapeComponent(name), language)
}

// WithFragment returns a copy of r addressing the named sub-section.
func (r Reference) WithFragment(fragment string) Reference {
	r.Fragment = fragment
	return r
}

// WithoutFragment returns the base reference of a fragment-qualified one.
func (r Reference) WithoutFragment() Reference {
	r.Fragment = ""
	return r
}

// WithPathSuffix returns a copy of r with suffix appended to its last path
// component. Used for disambiguating colliding symbol paths.
func (r Reference) WithPathSuffix(suffix string) Reference {
	r.Path += suffix
	return r
}

// Components returns the unescaped path components below DocumentationRoot.
func (r Reference) Components() []string {
	rel := strings.TrimPrefix(r.Path, DocumentationRoot)
	rel = strings.Trim(rel, "/")
	if rel == "" {
		return nil
	}
	parts := strings.Split(rel, "/")
	for i, p := range parts {
		parts[i] = UnescapeComponent(p)
	}
	return parts
}

// LinkPath is the path below DocumentationRoot as written in a symbol link,
// e.g. "MyKit/MyClass/doSomething()".
func (r Reference) LinkPath() string {
	return strings.Trim(strings.TrimPrefix(r.Path, DocumentationRoot), "/")
}

// LastComponent returns the final unescaped path component.
func (r Reference) LastComponent() string {
	parts := r.Components()
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}

// String renders r as doc://bundle/path#fragment. The source language is not
// part of the string form.
func (r Reference) String() string {
	var b strings.Builder
	b.WriteString(Scheme)
	b.WriteString("://")
	b.WriteString(r.BundleID)
	b.WriteString(r.Path)
	if r.Fragment != "" {
		b.WriteString("#")
		b.WriteString(url.PathEscape(r.Fragment))
	}
	return b.String()
}

// Parse reads the string form produced by String. The language is not encoded
// in the string and must be supplied.
func Parse(s string, language lang.Language) (Reference, error) {
	rest, ok := strings.CutPrefix(s, Scheme+"://")
	if !ok {
		return Reference{}, fmt.Errorf("invalid reference %q: missing %s:// scheme", s, Scheme)
	}

	var fragment string
	if idx := strings.Index(rest, "#"); idx >= 0 {
		f, err := url.PathUnescape(rest[idx+1:])
		if err != nil {
			return Reference{}, fmt.Errorf("invalid fragment in %q: %w", s, err)
		}
		fragment = f
		rest = rest[:idx]
	}

	bundleID, path, _ := strings.Cut(rest, "/")
	if bundleID == "" {
		return Reference{}, fmt.Errorf("invalid reference %q: missing bundle identifier", s)
	}
	return New(bundleID, path, language).WithFragment(fragment), nil
}

// Less orders references by bundle, path, fragment, then language.
func Less(a, b Reference) bool {
	if a.BundleID != b.BundleID {
		return a.BundleID < b.BundleID
	}
	if a.Path != b.Path {
		return a.Path < b.Path
	}
	if a.Fragment != b.Fragment {
		return a.Fragment < b.Fragment
	}
	return a.SourceLanguage < b.SourceLanguage
}

// EscapeComponent makes a path component safe to join with "/". Operator
// names such as "/(_:_:)" keep their slash in escaped form.
func EscapeComponent(c string) string {
	c = strings.ReplaceAll(c, "%", "%25")
	return strings.ReplaceAll(c, "/", "%2F")
}

// UnescapeComponent reverses EscapeComponent.
func UnescapeComponent(c string) string {
	c = strings.ReplaceAll(c, "%2F", "/")
	return strings.ReplaceAll(c, "%25", "%")
}
