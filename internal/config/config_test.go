package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jcdickinson/symdoc/internal/lang"
)

func TestCacheBase_XDGSet(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/custom/cache")
	got := cacheBase()
	want := filepath.Join("/custom/cache", "symdoc")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCacheBase_HomeDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")
	got := cacheBase()
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home dir")
	}
	want := filepath.Join(home, ".cache", "symdoc")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCacheBase_TmpFallback(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")
	t.Setenv("HOME", "")
	got := cacheBase()
	// Should use os.TempDir() when HOME is unset
	if !strings.Contains(got, "symdoc") {
		t.Errorf("expected symdoc in path, got %q", got)
	}
}

func TestPaths_UnderCacheBase(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/custom/cache")
	if got := IndexPath(); got != filepath.Join("/custom/cache", "symdoc", "index.db") {
		t.Errorf("IndexPath() = %q", got)
	}
	if got := LogPath(); got != filepath.Join("/custom/cache", "symdoc", "symdoc.log") {
		t.Errorf("LogPath() = %q", got)
	}
}

// isolate points every config search path at empty directories.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Chdir(t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)
	catalog := filepath.Join(t.TempDir(), "MyKit.docc")

	cfg, err := Load(catalog)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Bundle.Identifier != "org.symdoc.documentation" {
		t.Errorf("identifier = %q", cfg.Bundle.Identifier)
	}
	if cfg.Bundle.DisplayName != "MyKit" {
		t.Errorf("display name = %q", cfg.Bundle.DisplayName)
	}
	if cfg.Bundle.PrimaryLanguage != lang.Swift {
		t.Errorf("primary language = %q", cfg.Bundle.PrimaryLanguage)
	}
	if cfg.Curation.OutputDir != catalog || cfg.Curation.Depth() != nil || !cfg.Curation.GroupByKind {
		t.Errorf("curation = %+v", cfg.Curation)
	}
	if len(cfg.SymbolGraphs.Patterns) != 2 {
		t.Errorf("patterns = %v", cfg.SymbolGraphs.Patterns)
	}
	if cfg.Features != DefaultFeatureFlags() {
		t.Errorf("features = %+v", cfg.Features)
	}
	if filepath.Base(cfg.Index.Path) != "index.db" {
		t.Errorf("index path = %q", cfg.Index.Path)
	}
	if cfg.CatalogDir != catalog {
		t.Errorf("catalog dir = %q", cfg.CatalogDir)
	}
}

func TestLoad_NoCatalog(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Curation.OutputDir != "Generated.docc" || cfg.Bundle.DisplayName != "Documentation" {
		t.Errorf("output=%q name=%q", cfg.Curation.OutputDir, cfg.Bundle.DisplayName)
	}
}

func TestLoad_InfoFile(t *testing.T) {
	isolate(t)
	catalog := t.TempDir()
	info := `
[bundle]
identifier = "com.example.mykit"
primary_language = "objective-c"

[curation]
depth_limit = 2
group_by_kind = false

[features]
overloaded_symbol_presentation = true
mentioned_in = false
`
	if err := os.WriteFile(filepath.Join(catalog, "Info.toml"), []byte(info), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(catalog)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Bundle.Identifier != "com.example.mykit" {
		t.Errorf("identifier = %q", cfg.Bundle.Identifier)
	}
	if cfg.Bundle.PrimaryLanguage != lang.ObjectiveC {
		t.Errorf("primary language = %q", cfg.Bundle.PrimaryLanguage)
	}
	if d := cfg.Curation.Depth(); d == nil || *d != 2 {
		t.Errorf("depth = %v", d)
	}
	if cfg.Curation.GroupByKind {
		t.Error("group_by_kind should be false")
	}
	want := DefaultFeatureFlags()
	want.OverloadedSymbolPresentation = true
	want.MentionedIn = false
	if cfg.Features != want {
		t.Errorf("features = %+v, want %+v", cfg.Features, want)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("SYMDOC_FEATURES_LINK_HIERARCHY_SERIALIZATION", "true")
	t.Setenv("SYMDOC_CURATION_DEPTH_LIMIT", "0")
	t.Setenv("SYMDOC_BUNDLE_PRIMARY_LANGUAGE", "ObjC")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Features.LinkHierarchySerialization {
		t.Error("env override for feature flag not applied")
	}
	if d := cfg.Curation.Depth(); d == nil || *d != 0 {
		t.Errorf("depth = %v", d)
	}
	if cfg.Bundle.PrimaryLanguage != lang.ObjectiveC {
		t.Errorf("primary language = %q", cfg.Bundle.PrimaryLanguage)
	}
}

func TestLoad_InvalidInfoFile(t *testing.T) {
	isolate(t)
	catalog := t.TempDir()
	if err := os.WriteFile(filepath.Join(catalog, "Info.toml"), []byte("[bundle\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(catalog); err == nil {
		t.Error("expected an error for malformed Info.toml")
	}
}
