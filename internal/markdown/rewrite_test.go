package markdown

import (
	"strings"
	"testing"
)

func resolver(links map[string]string) LinkResolver {
	return func(link string) (string, string, bool) {
		dest, ok := links[link]
		if !ok {
			return "", "", false
		}
		return link[strings.LastIndex(link, "/")+1:], dest, true
	}
}

func TestRewriteSymbolLinks(t *testing.T) {
	t.Parallel()
	src := "Use ``MyKit/Alpha`` with ``MyKit/Beta``."
	got := RewriteSymbolLinks(src, resolver(map[string]string{
		"MyKit/Alpha": "doc://com.example/documentation/MyKit/Alpha",
		"MyKit/Beta":  "doc://com.example/documentation/MyKit/Beta",
	}))
	want := "Use [`Alpha`](doc://com.example/documentation/MyKit/Alpha) with [`Beta`](doc://com.example/documentation/MyKit/Beta)."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRewriteSymbolLinks_Unresolved(t *testing.T) {
	t.Parallel()
	src := "Call ``missing()`` and `plain`."
	if got := RewriteSymbolLinks(src, resolver(nil)); got != src {
		t.Errorf("expected unchanged, got %q", got)
	}
}

func TestRewriteSymbolLinks_Repeated(t *testing.T) {
	t.Parallel()
	src := "``A`` then ``A`` again.\n\n- ``A``\n"
	got := RewriteSymbolLinks(src, resolver(map[string]string{"A": "doc://x/documentation/A"}))
	if n := strings.Count(got, "[`A`](doc://x/documentation/A)"); n != 3 {
		t.Errorf("rewrote %d of 3 links: %q", n, got)
	}
}

func TestRewriteSymbolLinks_NormalizesLineEndings(t *testing.T) {
	t.Parallel()
	got := RewriteSymbolLinks("line one\r\nline two\r\n", resolver(nil))
	if got != "line one\nline two\n" {
		t.Errorf("got %q", got)
	}
}
