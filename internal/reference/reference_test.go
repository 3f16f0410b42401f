package reference

import (
	"reflect"
	"testing"

	"github.com/jcdickinson/symdoc/internal/lang"
)

func TestForSymbol(t *testing.T) {
	t.Parallel()

	ref := ForSymbol("org.example.mykit", "MyKit", []string{"MyClass", "doSomething()"}, lang.Swift)
	if ref.Path != "/documentation/MyKit/MyClass/doSomething()" {
		t.Errorf("Path = %q", ref.Path)
	}
	if got := ref.LinkPath(); got != "MyKit/MyClass/doSomething()" {
		t.Errorf("LinkPath = %q", got)
	}
	want := []string{"MyKit", "MyClass", "doSomething()"}
	if got := ref.Components(); !reflect.DeepEqual(got, want) {
		t.Errorf("Components = %v, want %v", got, want)
	}
}

func TestForSymbol_OperatorComponent(t *testing.T) {
	t.Parallel()

	ref := ForSymbol("b", "MyKit", []string{"Vector", "/(_:_:)"}, lang.Swift)
	if ref.Path != "/documentation/MyKit/Vector/%2F(_:_:)" {
		t.Errorf("Path = %q", ref.Path)
	}
	if got := ref.LastComponent(); got != "/(_:_:)" {
		t.Errorf("LastComponent = %q", got)
	}
}

func TestEquality(t *testing.T) {
	t.Parallel()

	a := New("org.swift.docc", "/blah", lang.Swift)
	b := New("org.swift.docc", "blah", lang.Swift)
	if a != b {
		t.Errorf("expected %v == %v", a, b)
	}
	if a == New("org.swift.docc", "/blah", lang.ObjectiveC) {
		t.Error("different languages should not be equal")
	}
	if a == New("org.other", "/blah", lang.Swift) {
		t.Error("different bundles should not be equal")
	}

	seen := map[Reference]bool{a: true}
	if !seen[b] {
		t.Error("equal references should share a map key")
	}
}

func TestWithFragment(t *testing.T) {
	t.Parallel()

	base := New("org.swift.docc", "/blah", lang.Swift)
	frag := base.WithFragment("Heading2")

	if base.Fragment != "" {
		t.Error("WithFragment mutated the base reference")
	}
	if frag.Fragment != "Heading2" {
		t.Errorf("Fragment = %q", frag.Fragment)
	}
	if frag == base {
		t.Error("fragment-qualified reference should differ from base")
	}
	if frag.WithoutFragment() != base {
		t.Error("WithoutFragment should restore the base reference")
	}
}

func TestStringParse_RoundTrip(t *testing.T) {
	t.Parallel()

	refs := []Reference{
		New("org.swift.docc", "/documentation/MyKit", lang.Swift),
		New("org.swift.docc", "/documentation/MyKit/MyClass", lang.Swift).WithFragment("Overview"),
		New("org.swift.docc", "/documentation/MyKit/MyClass", lang.Swift).WithFragment("Getting Started"),
	}
	for _, ref := range refs {
		s := ref.String()
		got, err := Parse(s, lang.Swift)
		if err != nil {
			t.Fatalf("Parse(%q): %v", s, err)
		}
		if got != ref {
			t.Errorf("round trip of %q = %+v, want %+v", s, got, ref)
		}
	}
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"", "https://example.com/documentation/x", "doc:///documentation/x"} {
		if _, err := Parse(s, lang.Swift); err == nil {
			t.Errorf("expected error for %q", s)
		}
	}
}

func TestLess(t *testing.T) {
	t.Parallel()

	a := New("b", "/documentation/A", lang.Swift)
	b := New("b", "/documentation/B", lang.Swift)
	if !Less(a, b) || Less(b, a) {
		t.Error("expected A < B")
	}
	if !Less(a, a.WithFragment("x")) {
		t.Error("base should sort before its fragments")
	}
}
