package mcp

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/jcdickinson/symdoc/internal/curation"
	"github.com/jcdickinson/symdoc/internal/markdown"
	"github.com/jcdickinson/symdoc/internal/model"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

//go:embed instructions.md
var instructions string

type Server struct {
	mcpServer *server.MCPServer
	model     *model.Model
	generator *curation.Generator
}

func NewServer(m *model.Model, opts curation.Options, version string) *Server {
	s := &Server{model: m, generator: curation.NewGenerator(m, opts)}

	mcpServer := server.NewMCPServer(
		"symdoc",
		version,
		server.WithInstructions(instructions),
		server.WithToolCapabilities(true),
	)

	s.registerTools(mcpServer)

	s.mcpServer = mcpServer
	return s
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(
		mcp.NewTool("get_page",
			mcp.WithDescription("Read a documentation page as markdown with its identity, anchor sections and topics in front matter."),
			mcp.WithString("link",
				mcp.Description("Symbol link (e.g. \"MyKit/MyClass\"), documentation path or doc:// reference"),
				mcp.Required(),
			),
		),
		s.handleGetPage,
	)

	mcpServer.AddTool(
		mcp.NewTool("anchor_sections",
			mcp.WithDescription("List the addressable sub-headings (levels 2 to 6) of a page in document order."),
			mcp.WithString("link",
				mcp.Description("Symbol link, documentation path or doc:// reference"),
				mcp.Required(),
			),
		),
		s.handleAnchorSections,
	)

	mcpServer.AddTool(
		mcp.NewTool("generate_curation",
			mcp.WithDescription("Generate outline files that spell out the automatic curation. Returns target path and content per file."),
			mcp.WithString("from",
				mcp.Description("Optional starting page; omit to start from every module"),
			),
			mcp.WithNumber("depth",
				mcp.Description("Optional depth limit below the starting page; omit for unbounded"),
			),
		),
		s.handleGenerateCuration,
	)
}

type anchorResult struct {
	Title     string `json:"title"`
	Reference string `json:"reference"`
}

type outlineFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

func (s *Server) handleGetPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	link, _ := args["link"].(string)
	if link == "" {
		return mcp.NewToolResultError("missing required parameter: link"), nil
	}

	n, ok := s.model.Resolve(link)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("no page found for %q", link)), nil
	}
	page, err := markdown.Page(s.model, n)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("rendering page: %v", err)), nil
	}
	return mcp.NewToolResultText(page), nil
}

func (s *Server) handleAnchorSections(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	link, _ := args["link"].(string)
	if link == "" {
		return mcp.NewToolResultError("missing required parameter: link"), nil
	}

	n, ok := s.model.Resolve(link)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("no page found for %q", link)), nil
	}
	results := []anchorResult{}
	for _, a := range n.AnchorSections() {
		results = append(results, anchorResult{Title: a.Title, Reference: a.Reference.String()})
	}

	resultJSON, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) handleGenerateCuration(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	from, _ := args["from"].(string)
	var depth *int
	if d, ok := args["depth"].(float64); ok && d >= 0 {
		if d > math.MaxInt32 {
			return mcp.NewToolResultError(fmt.Sprintf("depth %v is out of range", d)), nil
		}
		limit := int(d)
		depth = &limit
	}

	entries, err := s.generator.Generate(ctx, from, depth)
	if errors.Is(err, curation.ErrStartingPointNotFound) {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("generating curation: %v", err)), nil
	}

	files := make([]outlineFile, 0, len(entries))
	for path, content := range entries {
		files = append(files, outlineFile{Path: path, Content: content})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	resultJSON, _ := json.MarshalIndent(files, "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

// Run serves over stdio until the client disconnects or ctx is done.
func (s *Server) Run(ctx context.Context) error {
	err := server.NewStdioServer(s.mcpServer).Listen(ctx, os.Stdin, os.Stdout)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
