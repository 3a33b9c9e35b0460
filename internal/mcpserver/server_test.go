package mcpserver

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/eidsvag/animere/internal/render"
	"github.com/eidsvag/animere/internal/sequence"
	"github.com/eidsvag/animere/internal/studio"
	"github.com/eidsvag/animere/internal/testutil"
)

const sourceText = "flowchart TD\n  A --> B"

func keyframes(n int) string {
	var b strings.Builder
	for i := 1; i <= n; i++ {
		b.WriteString("```mermaid\nflowchart TD\n")
		for j := 0; j < i; j++ {
			fmt.Fprintf(&b, "  N%d --> N%d\n", j, j+1)
		}
		b.WriteString("```\n")
	}
	return b.String()
}

func testServer(t *testing.T, fake *testutil.FakeLLM) *Server {
	t.Helper()

	_, store := testutil.TestWorkshop(t)
	db := testutil.TestCatalog(t)

	planner := sequence.NewPlanner(fake, sequence.Config{
		TotalDuration:   6 * time.Second,
		StaggerFraction: 0.25,
		MinFrames:       2,
		MaxFrames:       10,
		Timeout:         time.Second,
	}, testutil.Logger())
	renderer := render.NewRenderer(&testutil.FakeTool{}, db,
		render.Options{Width: 800, Height: 600, Background: "transparent"}, 2, testutil.Logger())
	svc := studio.NewService(store, db, planner, renderer, false, nil, testutil.Logger())

	return New(svc)
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go doesn't expose a direct "call tool" test helper, so we call the
	// handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "animate_diagram":
		result, err = srv.animateDiagram(ctx, req)
	case "validate_diagram":
		result, err = srv.validateDiagram(ctx, req)
	case "list_themes":
		result, err = srv.listThemes(ctx, req)
	case "list_animations":
		result, err = srv.listAnimations(ctx, req)
	case "get_diagram_contract":
		result, err = srv.getDiagramContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestAnimateDiagramTool(t *testing.T) {
	fake := &testutil.FakeLLM{Responses: []string{"desc", keyframes(3)}}
	srv := testServer(t, fake)

	r := callTool(t, srv, "animate_diagram", map[string]interface{}{
		"source": sourceText,
		"name":   "checkout",
	})
	if r.IsError {
		t.Fatalf("animate failed: %s", resultText(r))
	}
	text := resultText(r)
	if !strings.Contains(text, `"frameCount": 3`) || !strings.Contains(text, `"kind": "flowchart"`) {
		t.Errorf("result = %s", text)
	}

	r = callTool(t, srv, "list_animations", map[string]interface{}{})
	if !strings.Contains(resultText(r), "checkout") {
		t.Errorf("list = %q", resultText(r))
	}
}

func TestAnimateDiagramTool_DefectiveSource(t *testing.T) {
	srv := testServer(t, &testutil.FakeLLM{})
	r := callTool(t, srv, "animate_diagram", map[string]interface{}{
		"source": "flowchart TD\n  subgraph s\n  A --> B",
	})
	if !r.IsError {
		t.Fatal("expected tool error for defective diagram")
	}
	if !strings.Contains(resultText(r), "unterminated_block") {
		t.Errorf("error = %q", resultText(r))
	}
}

func TestValidateDiagramTool(t *testing.T) {
	srv := testServer(t, &testutil.FakeLLM{})

	r := callTool(t, srv, "validate_diagram", map[string]interface{}{
		"source": "sequenceDiagram\n  A->>B: hi",
	})
	if resultText(r) != "valid sequence diagram" {
		t.Errorf("result = %q", resultText(r))
	}

	r = callTool(t, srv, "validate_diagram", map[string]interface{}{"source": "nonsense"})
	if !r.IsError {
		t.Error("expected error for unknown kind")
	}
}

func TestListThemesTool(t *testing.T) {
	srv := testServer(t, &testutil.FakeLLM{})
	r := callTool(t, srv, "list_themes", map[string]interface{}{})
	text := resultText(r)
	for _, name := range []string{"cyberpunk", "corporate", "hand-drawn"} {
		if !strings.Contains(text, name) {
			t.Errorf("themes missing %q", name)
		}
	}
}

func TestListAnimationsTool_Empty(t *testing.T) {
	srv := testServer(t, &testutil.FakeLLM{})
	r := callTool(t, srv, "list_animations", map[string]interface{}{})
	if resultText(r) != "no animations recorded" {
		t.Errorf("result = %q", resultText(r))
	}
}

func TestDiagramContractTool(t *testing.T) {
	srv := testServer(t, &testutil.FakeLLM{})
	r := callTool(t, srv, "get_diagram_contract", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, "flowchart") || !strings.Contains(text, "unterminated_block") {
		t.Error("contract missing expected content")
	}
}
