// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/eidsvag/animere/internal/api"
	"github.com/eidsvag/animere/internal/catalog"
	"github.com/eidsvag/animere/internal/diagram"
	"github.com/eidsvag/animere/internal/llm"
	"github.com/eidsvag/animere/internal/mcpserver"
	"github.com/eidsvag/animere/internal/render"
	"github.com/eidsvag/animere/internal/sequence"
	"github.com/eidsvag/animere/internal/sse"
	"github.com/eidsvag/animere/internal/storage"
	"github.com/eidsvag/animere/internal/studio"
	"github.com/eidsvag/animere/internal/theme"
	"github.com/eidsvag/animere/internal/watch"
)

// pipeline bundles the studio service with the resources it owns.
type pipeline struct {
	svc *studio.Service
	db  *catalog.DB
}

func (p *pipeline) close() {
	_ = p.db.Close()
}

// buildPipeline assembles the full animation pipeline from configuration.
// notifier may be nil for one-shot commands.
func buildPipeline(cfg *Config, logger *slog.Logger, notifier studio.Notifier) (*pipeline, error) {
	if err := os.MkdirAll(cfg.Workshop.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create workshop dir: %w", err)
	}
	store, err := storage.NewFS(cfg.Workshop.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	db, err := catalog.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init catalog: %w", err)
	}

	client := llm.NewAnthropic(cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.Timeout.Std(), cfg.LLM.MaxTokens)
	planner := sequence.NewPlanner(client, sequence.Config{
		TotalDuration:   cfg.Animation.TotalDuration.Std(),
		StaggerFraction: cfg.Animation.StaggerFraction,
		MinFrames:       cfg.Animation.MinFrames,
		MaxFrames:       cfg.Animation.MaxFrames,
		Timeout:         cfg.LLM.Timeout.Std(),
	}, logger)

	scratch := cfg.Render.ScratchDir
	if scratch == "" {
		scratch = filepath.Join(os.TempDir(), "animere-render")
	}
	tool, err := render.NewCLI(cfg.Render.Command, scratch, cfg.Render.Timeout.Std())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init render tool: %w", err)
	}
	renderer := render.NewRenderer(tool, db, render.Options{
		Width:      cfg.Render.Width,
		Height:     cfg.Render.Height,
		Background: cfg.Render.Background,
	}, cfg.Render.Concurrency, logger)

	svc := studio.NewService(store, db, planner, renderer, cfg.Animation.Loop, notifier, logger)
	return &pipeline{svc: svc, db: db}, nil
}

func newLogger(cfg *Config, w io.Writer) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// Run starts the HTTP server (and the source watcher, when enabled) with the
// given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config
	logOut := app.logOutput
	if logOut == nil {
		logOut = os.Stdout
	}
	logger := newLogger(cfg, logOut)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("workshop_path", cfg.Workshop.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.Bool("watch", cfg.Sources.Watch),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// SSE broker doubles as the pipeline's progress notifier.
	broker := sse.NewBroker(250 * time.Millisecond)
	defer broker.Close()

	p, err := buildPipeline(cfg, logger, broker)
	if err != nil {
		return err
	}
	defer p.close()

	apiRouter := api.NewRouter(p.svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start the source watcher when configured.
	if cfg.Sources.Watch {
		if err := os.MkdirAll(cfg.Sources.Path, 0o755); err != nil {
			return fmt.Errorf("create sources dir: %w", err)
		}
		watcher := watch.New(cfg.Sources.Path, cfg.Animation.Theme,
			cfg.Sources.Debounce.Std(), p.svc, logger)
		g.Go(func() error {
			return watcher.Run(gCtx)
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// AnimateParams are the inputs of the one-shot animate command.
type AnimateParams struct {
	SourcePath  string
	Name        string
	Description string
	Theme       string
	FrameHint   int
	Output      string // optional path to copy the artifact to
}

// RunAnimate runs the pipeline once for a diagram file and prints the
// resulting run.
func RunAnimate(ctx context.Context, cfg *Config, params AnimateParams) error {
	logger := newLogger(cfg, os.Stderr)

	source, err := os.ReadFile(params.SourcePath)
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}

	p, err := buildPipeline(cfg, logger, nil)
	if err != nil {
		return err
	}
	defer p.close()

	name := params.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(params.SourcePath), filepath.Ext(params.SourcePath))
	}
	themeName := params.Theme
	if themeName == "" {
		themeName = cfg.Animation.Theme
	}

	res, err := p.svc.Animate(ctx, studio.Request{
		Name:        name,
		Source:      string(source),
		Description: params.Description,
		FrameHint:   params.FrameHint,
		Theme:       themeName,
	})
	if err != nil {
		return err
	}

	if params.Output != "" {
		if err := os.WriteFile(params.Output, res.Artifact.SVG, 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}

	fmt.Printf("run %s: %d frames, %s, %dx%d\n",
		res.Run.ID, res.Run.FrameCount, res.Artifact.Total, res.Artifact.Width, res.Artifact.Height)
	if params.Output != "" {
		fmt.Printf("artifact written to %s\n", params.Output)
	} else {
		fmt.Printf("artifact stored at %s/%s\n", cfg.Workshop.Path, res.Run.ArtifactPath)
	}
	return nil
}

// RunValidate validates a diagram file and prints the detected kind.
func RunValidate(sourcePath string) error {
	source, err := os.ReadFile(sourcePath)
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}
	src, err := diagram.New(string(source))
	if err != nil {
		return err
	}
	fmt.Printf("valid %s diagram\n", src.Kind())
	return nil
}

// RunMCP serves the animation tools over MCP stdio. Logs go to stderr since
// stdout carries the protocol.
func RunMCP(ctx context.Context, cfg *Config) error {
	logger := newLogger(cfg, os.Stderr)

	p, err := buildPipeline(cfg, logger, nil)
	if err != nil {
		return err
	}
	defer p.close()

	logger.Info("MCP server starting on stdio")
	return mcpserver.New(p.svc).ServeStdio()
}

// ListThemeNames returns the built-in theme names for CLI help text.
func ListThemeNames() []string {
	return theme.Names()
}
