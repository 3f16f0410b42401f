package mcp

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/jcdickinson/symdoc/internal/config"
	"github.com/jcdickinson/symdoc/internal/curation"
	"github.com/jcdickinson/symdoc/internal/model"
	"github.com/jcdickinson/symdoc/internal/symbolgraph"
	"github.com/jcdickinson/symdoc/internal/unified"
	"github.com/mark3labs/mcp-go/mcp"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	g := unified.NewGraph()
	syms := []symbolgraph.Symbol{
		{
			Identifier:      symbolgraph.Identifier{Precise: "s:Alpha", InterfaceLanguage: "swift"},
			Module:          "MyKit",
			PathComponents:  []string{"Alpha"},
			Kind:            symbolgraph.Kind{Identifier: "swift.struct", DisplayName: "Structure"},
			DocComment:      &symbolgraph.LineList{Lines: []symbolgraph.Line{{Text: "A value."}, {Text: ""}, {Text: "## Usage"}, {Text: ""}, {Text: "## Errors"}}},
			IsFromMainGraph: true,
		},
		{
			Identifier:      symbolgraph.Identifier{Precise: "s:Alpha.run", InterfaceLanguage: "swift"},
			Module:          "MyKit",
			PathComponents:  []string{"Alpha", "run()"},
			Kind:            symbolgraph.Kind{Identifier: "swift.method", DisplayName: "Instance Method"},
			IsFromMainGraph: true,
		},
	}
	for i := range syms {
		g.Add(&syms[i])
	}
	m, err := model.Build(context.Background(), g, nil, model.Options{
		BundleID:   "com.example.mykit",
		BundleName: "MyKit",
		Features:   config.DefaultFeatureFlags(),
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return NewServer(m, curation.Options{GroupByKind: true}, "test")
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	for _, c := range res.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	t.Fatalf("no text content in %+v", res)
	return ""
}

func TestHandleGetPage(t *testing.T) {
	t.Parallel()
	s := testServer(t)

	res, err := s.handleGetPage(context.Background(), call(map[string]any{"link": "MyKit/Alpha"}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	text := resultText(t, res)
	for _, want := range []string{"reference: doc://com.example.mykit/documentation/MyKit/Alpha", "# Alpha", "A value.", "[`run()`]"} {
		if !strings.Contains(text, want) {
			t.Errorf("page lacks %q:\n%s", want, text)
		}
	}

	t.Run("missing link", func(t *testing.T) {
		res, err := s.handleGetPage(context.Background(), call(map[string]any{}))
		if err != nil || !res.IsError {
			t.Errorf("res = %+v, err = %v", res, err)
		}
	})

	t.Run("unknown page", func(t *testing.T) {
		res, err := s.handleGetPage(context.Background(), call(map[string]any{"link": "MyKit/Nope"}))
		if err != nil || !res.IsError {
			t.Errorf("res = %+v, err = %v", res, err)
		}
	})
}

func TestHandleAnchorSections(t *testing.T) {
	t.Parallel()
	s := testServer(t)

	res, err := s.handleAnchorSections(context.Background(), call(map[string]any{"link": "doc://com.example.mykit/documentation/MyKit/Alpha"}))
	if err != nil || res.IsError {
		t.Fatalf("res = %+v, err = %v", res, err)
	}
	var anchors []anchorResult
	if err := json.Unmarshal([]byte(resultText(t, res)), &anchors); err != nil {
		t.Fatal(err)
	}
	if len(anchors) != 2 || anchors[0].Title != "Usage" || anchors[1].Reference != "doc://com.example.mykit/documentation/MyKit/Alpha#Errors" {
		t.Errorf("anchors = %+v", anchors)
	}

	res, err = s.handleAnchorSections(context.Background(), call(map[string]any{"link": "MyKit/Alpha/run()"}))
	if err != nil || res.IsError {
		t.Fatalf("res = %+v, err = %v", res, err)
	}
	if got := resultText(t, res); got != "[]" {
		t.Errorf("no anchors = %q", got)
	}
}

func TestHandleGenerateCuration(t *testing.T) {
	t.Parallel()
	s := testServer(t)

	res, err := s.handleGenerateCuration(context.Background(), call(map[string]any{}))
	if err != nil || res.IsError {
		t.Fatalf("res = %+v, err = %v", res, err)
	}
	var files []outlineFile
	if err := json.Unmarshal([]byte(resultText(t, res)), &files); err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 || files[0].Path != "MyKit.md" || files[1].Path != "MyKit/Alpha.md" {
		t.Fatalf("files = %+v", files)
	}
	if !strings.Contains(files[1].Content, "@TopicGroup(title: \"Instance Methods\") {\n- ``MyKit/Alpha/run()``\n}") {
		t.Errorf("Alpha outline:\n%s", files[1].Content)
	}

	res, err = s.handleGenerateCuration(context.Background(), call(map[string]any{"from": "MyKit", "depth": float64(0)}))
	if err != nil || res.IsError {
		t.Fatalf("res = %+v, err = %v", res, err)
	}
	files = nil
	if err := json.Unmarshal([]byte(resultText(t, res)), &files); err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0].Path != "MyKit.md" {
		t.Errorf("depth 0 files = %+v", files)
	}

	res, err = s.handleGenerateCuration(context.Background(), call(map[string]any{"from": "Nope"}))
	if err != nil || !res.IsError || !strings.Contains(resultText(t, res), "not found") {
		t.Errorf("unknown start: res = %+v, err = %v", res, err)
	}
}

func TestHandleGenerateCuration_DepthOutOfRange(t *testing.T) {
	t.Parallel()
	s := testServer(t)

	res, err := s.handleGenerateCuration(context.Background(), call(map[string]any{"depth": float64(1e300)}))
	if err != nil || !res.IsError || !strings.Contains(resultText(t, res), "out of range") {
		t.Errorf("res = %+v, err = %v", res, err)
	}

	res, err = s.handleGenerateCuration(context.Background(), call(map[string]any{"depth": float64(math.MaxInt32)}))
	if err != nil || res.IsError {
		t.Errorf("largest depth: res = %+v, err = %v", res, err)
	}
}

func TestRun_StopsWhenCancelled(t *testing.T) {
	s := testServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}
