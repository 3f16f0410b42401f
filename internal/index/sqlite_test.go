package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jcdickinson/symdoc/internal/config"
	"github.com/jcdickinson/symdoc/internal/model"
	"github.com/jcdickinson/symdoc/internal/symbolgraph"
	"github.com/jcdickinson/symdoc/internal/unified"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	dir := t.TempDir()
	db, err := New(filepath.Join(dir, "index.db"))
	if err != nil {
		t.Fatalf("creating test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sym(id, kind string, comps ...string) symbolgraph.Symbol {
	return symbolgraph.Symbol{
		Identifier:      symbolgraph.Identifier{Precise: id, InterfaceLanguage: "swift"},
		Module:          "MyKit",
		PathComponents:  comps,
		Names:           symbolgraph.Names{Title: comps[len(comps)-1]},
		Kind:            symbolgraph.Kind{Identifier: "swift." + kind, DisplayName: kind},
		IsFromMainGraph: true,
	}
}

func testModel(t *testing.T, bundleName string) *model.Model {
	t.Helper()
	g := unified.NewGraph()
	syms := []symbolgraph.Symbol{
		sym("s:Alpha", "struct", "Alpha"),
		sym("s:Alpha.run", "method", "Alpha", "run()"),
		sym("s:Beta", "class", "Beta"),
	}
	for i := range syms {
		g.Add(&syms[i])
	}
	docs := []model.Document{{
		Path: "GettingStarted.md",
		Name: "GettingStarted",
		Body: "# Getting Started\n\nUse ``Alpha`` first.\n\n## Install\n\n## Configure\n\n### Options\n",
	}}
	m, err := model.Build(context.Background(), g, docs, model.Options{
		BundleID:   "com.example.mykit",
		BundleName: bundleName,
		Features:   config.DefaultFeatureFlags(),
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return m
}

func TestStore(t *testing.T) {
	db := testDB(t)
	m := testModel(t, "MyKit")

	stats, err := db.Store(context.Background(), m)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Nodes != m.Len() || stats.Articles != 1 || stats.Anchors != 3 || stats.Mentions != 1 {
		t.Errorf("stats = %+v, model has %d nodes", stats, m.Len())
	}

	b, err := db.GetBundle("com.example.mykit")
	if err != nil || b == nil || b.Name != "MyKit" {
		t.Fatalf("bundle = %+v, err = %v", b, err)
	}

	t.Run("node", func(t *testing.T) {
		n, err := db.GetNode("com.example.mykit", "/documentation/MyKit/Alpha/run()")
		if err != nil {
			t.Fatal(err)
		}
		if n == nil {
			t.Fatal("node not found")
		}
		if n.Title != "run()" || n.Kind != "swift.method" || n.ParentPath != "/documentation/MyKit/Alpha" || n.PreciseID != "s:Alpha.run" || n.Language != "swift" {
			t.Errorf("node = %+v", n)
		}

		module, err := db.GetNode("com.example.mykit", "/documentation/MyKit")
		if err != nil || module == nil {
			t.Fatalf("module = %+v, err = %v", module, err)
		}
		if module.ParentPath != "" || module.PreciseID != "" || module.Kind != "module" {
			t.Errorf("module = %+v", module)
		}

		missing, err := db.GetNode("com.example.mykit", "/documentation/MyKit/Nope")
		if err != nil || missing != nil {
			t.Errorf("missing = %+v, err = %v", missing, err)
		}
	})

	t.Run("children", func(t *testing.T) {
		children, err := db.Children("com.example.mykit", "/documentation/MyKit")
		if err != nil {
			t.Fatal(err)
		}
		var titles []string
		for _, c := range children {
			titles = append(titles, c.Title)
		}
		want := []string{"Alpha", "Beta", "Getting Started"}
		if len(titles) != len(want) {
			t.Fatalf("children = %v", titles)
		}
		for i := range want {
			if titles[i] != want[i] {
				t.Errorf("children = %v, want %v", titles, want)
				break
			}
		}
	})

	t.Run("anchors", func(t *testing.T) {
		anchors, err := db.Anchors("com.example.mykit", "/documentation/MyKit/GettingStarted")
		if err != nil {
			t.Fatal(err)
		}
		want := []string{"Install", "Configure", "Options"}
		if len(anchors) != len(want) {
			t.Fatalf("anchors = %+v", anchors)
		}
		for i, a := range anchors {
			if a.Title != want[i] || a.Fragment != want[i] {
				t.Errorf("anchor %d = %+v", i, a)
			}
		}
	})

	t.Run("mentions", func(t *testing.T) {
		paths, err := db.MentionedIn("com.example.mykit", "/documentation/MyKit/Alpha")
		if err != nil {
			t.Fatal(err)
		}
		if len(paths) != 1 || paths[0] != "/documentation/MyKit/GettingStarted" {
			t.Errorf("mentions = %v", paths)
		}
	})

	t.Run("lookup", func(t *testing.T) {
		for _, link := range []string{
			"MyKit/GettingStarted",
			"/documentation/MyKit/GettingStarted#Install",
			"doc://com.example.mykit/documentation/MyKit/GettingStarted#Configure",
		} {
			page, err := db.Lookup("com.example.mykit", link)
			if err != nil {
				t.Fatalf("%s: %v", link, err)
			}
			if page == nil || page.Title != "Getting Started" || len(page.Anchors) != 3 || page.ParentPath != "/documentation/MyKit" {
				t.Errorf("%s: page = %+v", link, page)
			}
		}

		alpha, err := db.Lookup("com.example.mykit", "MyKit/Alpha")
		if err != nil || alpha == nil {
			t.Fatalf("alpha = %+v, err = %v", alpha, err)
		}
		if len(alpha.Children) != 1 || alpha.Children[0].Title != "run()" {
			t.Errorf("children = %+v", alpha.Children)
		}
		if len(alpha.MentionedIn) != 1 || alpha.MentionedIn[0] != "/documentation/MyKit/GettingStarted" {
			t.Errorf("mentioned in = %v", alpha.MentionedIn)
		}

		missing, err := db.Lookup("com.example.mykit", "MyKit/Nope")
		if err != nil || missing != nil {
			t.Errorf("missing = %+v, err = %v", missing, err)
		}
		if _, err := db.Lookup("com.example.mykit", "doc://"); err == nil {
			t.Error("expected an error for a URI without a bundle")
		}
	})

	t.Run("find", func(t *testing.T) {
		found, err := db.FindByTitle("com.example.mykit", "ph", 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(found) != 1 || found[0].Title != "Alpha" {
			t.Errorf("found = %+v", found)
		}
		none, err := db.FindByTitle("com.example.mykit", "%", 10)
		if err != nil || len(none) != 0 {
			t.Errorf("wildcards are literal: %+v, err = %v", none, err)
		}
	})
}

func TestStore_Replaces(t *testing.T) {
	db := testDB(t)

	if _, err := db.Store(context.Background(), testModel(t, "MyKit")); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Store(context.Background(), testModel(t, "Renamed")); err != nil {
		t.Fatal(err)
	}

	bundles, err := db.ListBundles()
	if err != nil {
		t.Fatal(err)
	}
	if len(bundles) != 1 || bundles[0].Name != "Renamed" {
		t.Errorf("bundles = %+v", bundles)
	}
	// Articles now live below the new bundle name, which has no module, so
	// the old article page is gone.
	old, err := db.GetNode("com.example.mykit", "/documentation/MyKit/GettingStarted")
	if err != nil || old != nil {
		t.Errorf("stale node = %+v, err = %v", old, err)
	}
}

func TestStore_Cancelled(t *testing.T) {
	db := testDB(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := db.Store(ctx, testModel(t, "MyKit")); err == nil {
		t.Fatal("expected an error")
	}
	if b, err := db.GetBundle("com.example.mykit"); err != nil || b != nil {
		t.Errorf("bundle = %+v, err = %v", b, err)
	}
}

func TestNew_ReplacesNonSQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	if err := os.WriteFile(path, []byte("not a database"), 0o644); err != nil {
		t.Fatal(err)
	}
	db, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if bundles, err := db.ListBundles(); err != nil || len(bundles) != 0 {
		t.Errorf("bundles = %+v, err = %v", bundles, err)
	}
}
