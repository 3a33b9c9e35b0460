// Package testutil provides shared test helpers: temp catalogs and
// workshops, plus deterministic fakes for the language-model collaborator
// and the external rendering tool.
package testutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/eidsvag/animere/internal/catalog"
	"github.com/eidsvag/animere/internal/diagram"
	"github.com/eidsvag/animere/internal/llm"
	"github.com/eidsvag/animere/internal/render"
	"github.com/eidsvag/animere/internal/storage"
)

// Logger returns a no-op logger for tests.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestCatalog creates a temporary SQLite catalog that is automatically
// cleaned up.
func TestCatalog(t *testing.T) *catalog.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "animere-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := catalog.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestWorkshop creates a temporary workshop directory with a storage.Provider.
func TestWorkshop(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// LLMCall records one collaborator round-trip made against a FakeLLM.
type LLMCall struct {
	System string
	User   string
}

// FakeLLM is a deterministic language-model collaborator. Responses are
// returned in order; Delay simulates a slow collaborator and honours ctx.
type FakeLLM struct {
	Responses []string
	Err       error
	Delay     time.Duration

	mu    sync.Mutex
	next  int
	Calls []LLMCall
}

// Complete implements llm.Client.
func (f *FakeLLM) Complete(ctx context.Context, system string, messages []llm.Message) (*llm.Response, error) {
	if f.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.Delay):
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	user := ""
	if len(messages) > 0 {
		user = messages[len(messages)-1].Content
	}
	f.Calls = append(f.Calls, LLMCall{System: system, User: user})

	if f.Err != nil {
		return nil, f.Err
	}
	if f.next >= len(f.Responses) {
		return nil, fmt.Errorf("fake llm: no response configured for call %d", f.next+1)
	}
	content := f.Responses[f.next]
	f.next++
	return &llm.Response{Content: content, Model: "fake"}, nil
}

// FakeTool is a deterministic rendering tool. It emits a minimal SVG sized
// to the requested options (or a per-text override) and can be configured to
// fail a given number of times per diagram text.
type FakeTool struct {
	Failures map[string]int    // remaining failures keyed by diagram text
	DimsFor  map[string][2]int // width/height override keyed by diagram text
	Delay    time.Duration

	mu    sync.Mutex
	calls map[string]int
}

// Render implements render.Tool.
func (f *FakeTool) Render(ctx context.Context, src diagram.Source, opts render.Options) ([]byte, error) {
	if f.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.Delay):
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[src.Text()]++

	if remaining, ok := f.Failures[src.Text()]; ok && remaining > 0 {
		f.Failures[src.Text()] = remaining - 1
		return nil, fmt.Errorf("fake tool: induced failure")
	}

	w, h := opts.Width, opts.Height
	if dims, ok := f.DimsFor[src.Text()]; ok {
		w, h = dims[0], dims[1]
	}
	svg := fmt.Sprintf(
		`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d"><g><path d="M0 0 L10 10"/><rect x="1" y="1" width="8" height="8"/></g></svg>`,
		w, h, w, h)
	return []byte(svg), nil
}

// CallCount returns how many times text was rendered.
func (f *FakeTool) CallCount(text string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[text]
}
