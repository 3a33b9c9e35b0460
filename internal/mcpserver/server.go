// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes animere tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/eidsvag/animere/internal/studio"
	"github.com/eidsvag/animere/internal/theme"
)

// Server wraps the MCP server with animere tools.
type Server struct {
	mcp *server.MCPServer
	svc *studio.Service
}

// New creates a new MCP server with all animere tools registered.
func New(svc *studio.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"animere",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("animate_diagram",
		mcp.WithDescription("Run the full animation pipeline for a Mermaid diagram: "+
			"validate it, plan a keyframe sequence, render every frame, and composite "+
			"one animated SVG. Diagram text MUST be a supported kind; check the "+
			"get_diagram_contract tool or the animere://diagram-kinds resource first."),
		mcp.WithString("source", mcp.Required(), mcp.Description("Mermaid diagram text")),
		mcp.WithString("name", mcp.Description("Logical name recorded in the run catalog")),
		mcp.WithString("description", mcp.Description("Optional animation intent; skips the describe step")),
		mcp.WithNumber("frame_hint", mcp.Description("Requested keyframe count (0 for the default)")),
		mcp.WithString("theme", mcp.Description("Built-in theme name (cyberpunk, corporate, hand-drawn)")),
	), s.animateDiagram)

	s.mcp.AddTool(mcp.NewTool("validate_diagram",
		mcp.WithDescription("Validate Mermaid diagram text without animating it. "+
			"Reports the detected diagram kind or the defect."),
		mcp.WithString("source", mcp.Required(), mcp.Description("Mermaid diagram text")),
	), s.validateDiagram)

	s.mcp.AddTool(mcp.NewTool("list_themes",
		mcp.WithDescription("List the built-in animation themes with their visual settings."),
	), s.listThemes)

	s.mcp.AddTool(mcp.NewTool("list_animations",
		mcp.WithDescription("List recorded animation runs, newest first."),
		mcp.WithString("kind", mcp.Description("Optional diagram kind filter")),
		mcp.WithNumber("limit", mcp.Description("Max results (default 20)")),
	), s.listAnimations)

	s.mcp.AddTool(mcp.NewTool("get_diagram_contract",
		mcp.WithDescription("Returns the supported diagram kinds and the structural "+
			"rules diagram text must satisfy. Call this before animating."),
	), s.getDiagramContract)

	// Resource: supported diagram kinds.
	s.mcp.AddResource(
		mcp.NewResource("animere://diagram-kinds", "Supported Diagram Kinds",
			mcp.WithResourceDescription("Diagram kinds animere accepts and their structural rules."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readDiagramKindsResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

type animateResult struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	FrameCount int    `json:"frameCount"`
	TotalMS    int64  `json:"totalMs"`
	Theme      string `json:"theme"`
	Artifact   string `json:"artifact"`
}

func (s *Server) animateDiagram(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, err := req.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	studioReq := studio.Request{Source: source}
	if v, err := req.RequireString("name"); err == nil {
		studioReq.Name = v
	}
	if v, err := req.RequireString("description"); err == nil {
		studioReq.Description = v
	}
	if v, err := req.RequireFloat("frame_hint"); err == nil {
		studioReq.FrameHint = int(v)
	}
	if v, err := req.RequireString("theme"); err == nil {
		studioReq.Theme = v
	}

	res, err := s.svc.Animate(ctx, studioReq)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out, _ := json.MarshalIndent(animateResult{
		ID:         res.Run.ID,
		Name:       res.Run.Name,
		Kind:       res.Run.Kind,
		FrameCount: res.Run.FrameCount,
		TotalMS:    res.Run.TotalMS,
		Theme:      res.Run.Theme,
		Artifact:   res.Run.ArtifactPath,
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) validateDiagram(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, err := req.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	kind, err := s.svc.Validate(source)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("valid %s diagram", kind)), nil
}

func (s *Server) listThemes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, _ := json.MarshalIndent(theme.All(), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listAnimations(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind := ""
	if v, err := req.RequireString("kind"); err == nil {
		kind = v
	}
	limit := 20
	if v, err := req.RequireFloat("limit"); err == nil {
		limit = int(v)
	}

	runs, total, err := s.svc.ListRuns(limit, 0, kind)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(runs) == 0 {
		return mcp.NewToolResultText("no animations recorded"), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d runs (showing %d)\n", total, len(runs))
	for _, r := range runs {
		fmt.Fprintf(&b, "%s  %-20s  %-10s  %d frames  %dms  %s\n",
			r.ID, r.Name, r.Kind, r.FrameCount, r.TotalMS, r.Theme)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) getDiagramContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(DiagramContract), nil
}

func (s *Server) readDiagramKindsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "animere://diagram-kinds",
			MIMEType: "text/markdown",
			Text:     DiagramContract,
		},
	}, nil
}
