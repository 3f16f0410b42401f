package unified

import (
	"testing"

	"github.com/jcdickinson/symdoc/internal/lang"
	"github.com/jcdickinson/symdoc/internal/symbolgraph"
)

func lineList(docs string) *symbolgraph.LineList {
	if docs == "" {
		return nil
	}
	return &symbolgraph.LineList{Lines: []symbolgraph.Line{{
		Text:  docs,
		Range: &symbolgraph.SourceRange{},
	}}}
}

func makeSymbol(language, docs string, mainGraph bool) *symbolgraph.Symbol {
	return &symbolgraph.Symbol{
		Identifier:      symbolgraph.Identifier{Precise: "abcd", InterfaceLanguage: language},
		Module:          "MyKit",
		PathComponents:  []string{"abcd"},
		Names:           symbolgraph.Names{Title: "abcd-in-" + language},
		Kind:            symbolgraph.Kind{Identifier: language + ".struct", DisplayName: "Structure"},
		AccessLevel:     "public",
		DocComment:      lineList(docs),
		IsFromMainGraph: mainGraph,
	}
}

func merged(symbols ...*symbolgraph.Symbol) *Symbol {
	u := FromSingleSymbol(symbols[0])
	for _, s := range symbols[1:] {
		u.MergeSymbol(s)
	}
	return u
}

func docText(u *Symbol, primary lang.Language) string {
	return u.DocComment(primary).Text()
}

func TestCanonicalDocComment_Selection(t *testing.T) {
	t.Parallel()

	const swiftDocs, objcDocs = "Some Swift Docs", "Some ObjC Docs"

	tests := []struct {
		name    string
		symbols []*symbolgraph.Symbol
		want    string
	}{
		{"swift undocumented", []*symbolgraph.Symbol{makeSymbol("swift", "", true)}, ""},
		{"objc undocumented", []*symbolgraph.Symbol{makeSymbol("objc", "", true)}, ""},
		{"only objc documented", []*symbolgraph.Symbol{makeSymbol("swift", "", true), makeSymbol("objc", objcDocs, true)}, objcDocs},
		{"only swift documented", []*symbolgraph.Symbol{makeSymbol("swift", swiftDocs, true), makeSymbol("objc", "", true)}, swiftDocs},
		{"both documented", []*symbolgraph.Symbol{makeSymbol("swift", swiftDocs, true), makeSymbol("objc", objcDocs, true)}, swiftDocs},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := docText(merged(tt.symbols...), lang.Swift); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCanonicalDocComment_OrderIndependent(t *testing.T) {
	t.Parallel()

	decls := []*symbolgraph.Symbol{
		makeSymbol("swift", "", true),
		makeSymbol("objc", "ObjC docs", true),
		makeSymbol("data", "Data docs", true),
		makeSymbol("swift", "", false),
	}

	var want string
	permute(decls, func(order []*symbolgraph.Symbol) {
		got := docText(merged(order...), lang.Swift)
		if want == "" {
			want = got
		}
		if got != want {
			t.Errorf("merge order changed selection: got %q, want %q", got, want)
		}
	})
	if want != "Data docs" {
		t.Errorf("expected the first documented declaration in declaration order, got %q", want)
	}
}

func TestCanonicalDocComment_PrimaryLanguage(t *testing.T) {
	t.Parallel()

	u := merged(makeSymbol("swift", "Swift", true), makeSymbol("objc", "ObjC", true))
	if got := docText(u, lang.ObjectiveC); got != "ObjC" {
		t.Errorf("ObjC primary: got %q", got)
	}
	if got := docText(u, lang.Swift); got != "Swift" {
		t.Errorf("Swift primary: got %q", got)
	}
}

func TestCanonicalDocComment_MainGraphPreferred(t *testing.T) {
	t.Parallel()

	// The extension graph declaration is in the primary language and
	// documented, but a main graph declaration exists so only those count.
	u := merged(makeSymbol("swift", "Extension docs", false), makeSymbol("objc", "", true))
	if got := u.CanonicalDocComment(lang.Swift); got != nil {
		t.Errorf("expected no documentation, got %q", got.DocComment.Text())
	}

	// With no main graph declarations at all, every declaration counts.
	u = merged(makeSymbol("swift", "Extension docs", false))
	if got := docText(u, lang.Swift); got != "Extension docs" {
		t.Errorf("got %q", got)
	}
}

func TestCanonicalDocComment_RederivedAfterMerge(t *testing.T) {
	t.Parallel()

	u := FromSingleSymbol(makeSymbol("swift", "", true))
	if u.CanonicalDocComment(lang.Swift) != nil {
		t.Fatal("expected no documentation yet")
	}
	u.MergeSymbol(makeSymbol("objc", "Late docs", true))
	if got := docText(u, lang.Swift); got != "Late docs" {
		t.Errorf("cache not refreshed after merge: got %q", got)
	}
}

func TestCanonicalDocComment_WhitespaceIsUndocumented(t *testing.T) {
	t.Parallel()

	u := merged(makeSymbol("swift", "   ", true), makeSymbol("objc", "Real docs", true))
	if got := docText(u, lang.Swift); got != "Real docs" {
		t.Errorf("got %q", got)
	}
}

func TestMergeSymbol_Buckets(t *testing.T) {
	t.Parallel()

	u := FromSingleSymbol(makeSymbol("swift", "a", true))
	u.MergeSymbol(makeSymbol("objc", "b", true))
	u.MergeSymbol(makeSymbol("swift", "c", true))
	u.MergeSymbol(makeSymbol("swift", "c", true))

	if u.Len() != 4 {
		t.Errorf("Len = %d, duplicates should be kept", u.Len())
	}
	swift := u.Declarations(lang.Swift)
	if len(swift) != 3 || swift[0].DocComment.Text() != "a" || swift[1].DocComment.Text() != "c" {
		t.Errorf("swift bucket not in insertion order: %d declarations", len(swift))
	}
	langs := u.Languages()
	if len(langs) != 2 || langs[0] != lang.ObjectiveC || langs[1] != lang.Swift {
		t.Errorf("Languages = %v", langs)
	}
	if got := u.Declarations(lang.Language("kotlin")); len(got) != 0 {
		t.Errorf("unknown language bucket should be empty, got %d", len(got))
	}
}

func TestMergeSymbol_UnknownLanguageGetsBucket(t *testing.T) {
	t.Parallel()

	u := FromSingleSymbol(makeSymbol("swift", "", true))
	u.MergeSymbol(makeSymbol("kotlin", "Kotlin docs", true))
	if len(u.Declarations(lang.Language("kotlin"))) != 1 {
		t.Error("expected a kotlin bucket")
	}
}

func TestRepresentative(t *testing.T) {
	t.Parallel()

	u := merged(makeSymbol("objc", "", true), makeSymbol("swift", "", true))
	if got := u.Representative(lang.Swift).Language(); got != lang.Swift {
		t.Errorf("Representative language = %q", got)
	}
	if got := u.Representative(lang.Metal).Language(); got != lang.ObjectiveC {
		t.Errorf("fallback representative language = %q", got)
	}
}

func TestFromSingleSymbol_EmptyIdentifierPanics(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	sym := makeSymbol("swift", "", true)
	sym.Identifier.Precise = ""
	FromSingleSymbol(sym)
}

func TestMergeSymbol_MismatchedIdentifierPanics(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	u := FromSingleSymbol(makeSymbol("swift", "", true))
	other := makeSymbol("swift", "", true)
	other.Identifier.Precise = "efgh"
	u.MergeSymbol(other)
}

// permute calls fn with every ordering of items.
func permute(items []*symbolgraph.Symbol, fn func([]*symbolgraph.Symbol)) {
	var rec func(int)
	rec = func(k int) {
		if k == len(items) {
			order := make([]*symbolgraph.Symbol, len(items))
			copy(order, items)
			fn(order)
			return
		}
		for i := k; i < len(items); i++ {
			items[k], items[i] = items[i], items[k]
			rec(k + 1)
			items[k], items[i] = items[i], items[k]
		}
	}
	rec(0)
}
