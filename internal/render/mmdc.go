package render

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/eidsvag/animere/internal/diagram"
)

// CLI renders diagrams by shelling out to the mermaid command-line renderer
// (mmdc or compatible). Each invocation writes the diagram to a scratch file,
// runs the tool with an explicit timeout, and reads the SVG output back.
type CLI struct {
	command    string
	scratchDir string
	timeout    time.Duration
}

// NewCLI creates a CLI tool wrapper. command may be a bare name resolved via
// PATH or an absolute path; scratchDir is created if missing.
func NewCLI(command, scratchDir string, timeout time.Duration) (*CLI, error) {
	if command == "" {
		return nil, fmt.Errorf("render: command is required")
	}
	abs, err := filepath.Abs(scratchDir)
	if err != nil {
		return nil, fmt.Errorf("render: resolve scratch dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("render: create scratch dir: %w", err)
	}
	return &CLI{command: command, scratchDir: abs, timeout: timeout}, nil
}

// Render invokes the tool once for src. The per-call timeout is layered on
// top of ctx; there is no wait-forever mode.
func (c *CLI) Render(ctx context.Context, src diagram.Source, opts Options) ([]byte, error) {
	cctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	in, err := os.CreateTemp(c.scratchDir, "frame-*.mmd")
	if err != nil {
		return nil, fmt.Errorf("render: create input file: %w", err)
	}
	inPath := in.Name()
	outPath := strings.TrimSuffix(inPath, ".mmd") + ".svg"
	defer func() {
		_ = os.Remove(inPath)
		_ = os.Remove(outPath)
	}()

	if _, err := in.WriteString(src.Text()); err != nil {
		in.Close()
		return nil, fmt.Errorf("render: write input file: %w", err)
	}
	if err := in.Close(); err != nil {
		return nil, fmt.Errorf("render: close input file: %w", err)
	}

	args := []string{
		"--input", inPath,
		"--output", outPath,
		"--width", strconv.Itoa(opts.Width),
		"--height", strconv.Itoa(opts.Height),
		"--quiet",
	}
	if opts.Background != "" {
		args = append(args, "--backgroundColor", opts.Background)
	}

	cmd := exec.CommandContext(cctx, c.command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if cctx.Err() != nil {
			return nil, fmt.Errorf("render: tool timed out after %s: %w", c.timeout, cctx.Err())
		}
		return nil, fmt.Errorf("render: tool failed: %w: %s", err, firstLine(stderr.String()))
	}

	svg, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("render: read output: %w", err)
	}
	if len(svg) == 0 {
		return nil, fmt.Errorf("render: tool produced empty output")
	}
	return svg, nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
