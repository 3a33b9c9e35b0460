package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

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

func newTestServer(t *testing.T, fake *testutil.FakeLLM, authEnabled bool, token string) *httptest.Server {
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

	srv := httptest.NewServer(NewRouter(svc, authEnabled, token, nil))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatal(err)
	}
	return v
}

func TestAnimateEndpoint(t *testing.T) {
	fake := &testutil.FakeLLM{Responses: []string{"desc", keyframes(3)}}
	srv := newTestServer(t, fake, false, "")

	resp := postJSON(t, srv.URL+"/animations", AnimateRequest{
		Name:   "checkout",
		Source: sourceText,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	run := decode[RunResponse](t, resp)
	if run.FrameCount != 3 || run.Kind != "flowchart" || run.ID == "" {
		t.Errorf("run = %+v", run)
	}

	// The run is listed.
	listResp, err := http.Get(srv.URL + "/animations")
	if err != nil {
		t.Fatal(err)
	}
	list := decode[RunListResponse](t, listResp)
	if list.Total != 1 || len(list.Runs) != 1 {
		t.Fatalf("list = %+v", list)
	}

	// And its artifact downloads as SVG.
	artResp, err := http.Get(srv.URL + "/animations/" + run.ID + "/artifact")
	if err != nil {
		t.Fatal(err)
	}
	defer artResp.Body.Close()
	if artResp.StatusCode != http.StatusOK {
		t.Fatalf("artifact status = %d", artResp.StatusCode)
	}
	if ct := artResp.Header.Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestAnimateEndpoint_BadRequests(t *testing.T) {
	srv := newTestServer(t, &testutil.FakeLLM{}, false, "")

	resp := postJSON(t, srv.URL+"/animations", AnimateRequest{Source: ""})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty source: status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/animations", AnimateRequest{Source: sourceText, Theme: "vaporwave"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown theme: status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestAnimateEndpoint_DefectiveDiagram(t *testing.T) {
	srv := newTestServer(t, &testutil.FakeLLM{}, false, "")

	resp := postJSON(t, srv.URL+"/animations", AnimateRequest{
		Source: "flowchart TD\n  subgraph s\n  A --> B",
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", resp.StatusCode)
	}
	body := decode[errResponse](t, resp)
	if body.Code != "unterminated_block" || body.Stage != "validate" {
		t.Errorf("body = %+v", body)
	}
}

func TestAnimateEndpoint_CollaboratorFailure(t *testing.T) {
	fake := &testutil.FakeLLM{Err: fmt.Errorf("api down")}
	srv := newTestServer(t, fake, false, "")

	resp := postJSON(t, srv.URL+"/animations", AnimateRequest{Source: sourceText})
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", resp.StatusCode)
	}
	body := decode[errResponse](t, resp)
	if body.Code != "generation_unavailable" {
		t.Errorf("code = %q", body.Code)
	}
}

func TestGetRun_NotFound(t *testing.T) {
	srv := newTestServer(t, &testutil.FakeLLM{}, false, "")
	resp, err := http.Get(srv.URL + "/animations/missing")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestDeleteRunEndpoint(t *testing.T) {
	fake := &testutil.FakeLLM{Responses: []string{"desc", keyframes(2)}}
	srv := newTestServer(t, fake, false, "")

	resp := postJSON(t, srv.URL+"/animations", AnimateRequest{Source: sourceText})
	run := decode[RunResponse](t, resp)

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/animations/"+run.ID, nil)
	delResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	delResp.Body.Close()
	if delResp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", delResp.StatusCode)
	}

	getResp, err := http.Get(srv.URL + "/animations/" + run.ID)
	if err != nil {
		t.Fatal(err)
	}
	getResp.Body.Close()
	if getResp.StatusCode != http.StatusNotFound {
		t.Errorf("run still retrievable after delete")
	}
}

func TestValidateEndpoint(t *testing.T) {
	srv := newTestServer(t, &testutil.FakeLLM{}, false, "")

	resp := postJSON(t, srv.URL+"/validate", ValidateRequest{Source: sourceText})
	out := decode[ValidateResponse](t, resp)
	if !out.Valid || out.Kind != "flowchart" {
		t.Errorf("valid diagram: %+v", out)
	}

	resp = postJSON(t, srv.URL+"/validate", ValidateRequest{Source: "nonsense"})
	out = decode[ValidateResponse](t, resp)
	if out.Valid || out.Code != "unknown_kind" {
		t.Errorf("defective diagram: %+v", out)
	}
}

func TestThemesEndpoint(t *testing.T) {
	srv := newTestServer(t, &testutil.FakeLLM{}, false, "")
	resp, err := http.Get(srv.URL + "/themes")
	if err != nil {
		t.Fatal(err)
	}
	out := decode[ThemeListResponse](t, resp)
	if len(out.Themes) != 3 {
		t.Errorf("themes = %d, want 3", len(out.Themes))
	}
}

func TestAuthMiddleware(t *testing.T) {
	srv := newTestServer(t, &testutil.FakeLLM{}, true, "secret")

	resp, err := http.Get(srv.URL + "/themes")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/themes", nil)
	req.Header.Set("Authorization", "Bearer secret")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("valid token: status = %d, want 200", resp.StatusCode)
	}
}
