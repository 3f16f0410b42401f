package unified

import (
	"fmt"
	"sort"
	"sync"

	"github.com/jcdickinson/symdoc/internal/lang"
	"github.com/jcdickinson/symdoc/internal/symbolgraph"
)

// Symbol is one logical API entity assembled from every declaration that
// shares its precise identifier, bucketed by source language. Declarations
// are only ever added.
type Symbol struct {
	ID string

	mu           sync.Mutex
	languages    []lang.Language // bucket creation order
	declarations map[lang.Language][]*symbolgraph.Symbol

	// canonical is reset by every merge and filled lazily per primary language.
	canonical map[lang.Language]*symbolgraph.Symbol
}

// FromSingleSymbol creates a unified symbol holding exactly sym.
func FromSingleSymbol(sym *symbolgraph.Symbol) *Symbol {
	if sym.Identifier.Precise == "" {
		panic("unified: declaration without a precise identifier")
	}
	u := &Symbol{
		ID:           sym.Identifier.Precise,
		declarations: make(map[lang.Language][]*symbolgraph.Symbol),
	}
	u.append(sym)
	return u
}

// MergeSymbol files sym under its language. Merging the same declaration
// twice stores it twice; callers de-duplicate upstream.
func (u *Symbol) MergeSymbol(sym *symbolgraph.Symbol) {
	if sym.Identifier.Precise != u.ID {
		panic(fmt.Sprintf("unified: merging %q into symbol %q", sym.Identifier.Precise, u.ID))
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.append(sym)
}

func (u *Symbol) append(sym *symbolgraph.Symbol) {
	l := sym.Language()
	if _, ok := u.declarations[l]; !ok {
		u.languages = append(u.languages, l)
	}
	u.declarations[l] = append(u.declarations[l], sym)
	u.canonical = nil
}

// Languages returns the languages this symbol has declarations in, sorted.
func (u *Symbol) Languages() []lang.Language {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]lang.Language, len(u.languages))
	copy(out, u.languages)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Declarations returns the declarations filed under l in insertion order.
func (u *Symbol) Declarations(l lang.Language) []*symbolgraph.Symbol {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]*symbolgraph.Symbol, len(u.declarations[l]))
	copy(out, u.declarations[l])
	return out
}

// Len returns the total number of merged declarations.
func (u *Symbol) Len() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	n := 0
	for _, decls := range u.declarations {
		n += len(decls)
	}
	return n
}

// Representative returns the declaration that supplies the symbol's module,
// path, title and kind: a main graph declaration in the primary language
// when there is one.
func (u *Symbol) Representative(primary lang.Language) *symbolgraph.Symbol {
	u.mu.Lock()
	defer u.mu.Unlock()
	ordered := u.considered()
	for _, d := range ordered {
		if d.Language() == primary {
			return d
		}
	}
	return ordered[0]
}

// CanonicalDocComment returns the declaration whose documentation comment
// represents the symbol, or nil when no considered declaration is
// documented. Only main graph declarations are considered when any exist;
// among those a documented declaration in the primary language wins,
// otherwise the first documented one in declaration order. The result does
// not depend on merge order.
func (u *Symbol) CanonicalDocComment(primary lang.Language) *symbolgraph.Symbol {
	u.mu.Lock()
	defer u.mu.Unlock()

	if sel, ok := u.canonical[primary]; ok {
		return sel
	}
	sel := selectDocumented(u.considered(), primary)
	if u.canonical == nil {
		u.canonical = make(map[lang.Language]*symbolgraph.Symbol)
	}
	u.canonical[primary] = sel
	return sel
}

// DocComment is the canonical documentation comment, nil when undocumented.
func (u *Symbol) DocComment(primary lang.Language) *symbolgraph.LineList {
	if sel := u.CanonicalDocComment(primary); sel != nil {
		return sel.DocComment
	}
	return nil
}

func selectDocumented(ordered []*symbolgraph.Symbol, primary lang.Language) *symbolgraph.Symbol {
	for _, d := range ordered {
		if d.Language() == primary && !d.DocComment.IsEmpty() {
			return d
		}
	}
	for _, d := range ordered {
		if !d.DocComment.IsEmpty() {
			return d
		}
	}
	return nil
}

// considered returns the declarations eligible for selection in declaration
// order. Callers hold u.mu.
func (u *Symbol) considered() []*symbolgraph.Symbol {
	var all, main []*symbolgraph.Symbol
	for _, l := range u.languages {
		for _, d := range u.declarations[l] {
			all = append(all, d)
			if d.IsFromMainGraph {
				main = append(main, d)
			}
		}
	}
	out := all
	if len(main) > 0 {
		out = main
	}
	sort.SliceStable(out, func(i, j int) bool { return declarationLess(out[i], out[j]) })
	return out
}

// declarationLess is the declaration order: by language, module, source
// file, then comment text. Input files arrive in arbitrary order (directory
// scans, parallel readers), so arrival order is never used.
func declarationLess(a, b *symbolgraph.Symbol) bool {
	if la, lb := a.Language(), b.Language(); la != lb {
		return la < lb
	}
	if a.Module != b.Module {
		return a.Module < b.Module
	}
	if a.Source != b.Source {
		return a.Source < b.Source
	}
	return a.DocComment.Text() < b.DocComment.Text()
}
