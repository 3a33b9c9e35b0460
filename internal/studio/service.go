// Package studio coordinates the full animation pipeline: validate the
// diagram, plan the keyframe sequence, render every frame, inject edge
// semantics, composite the animated SVG, and persist the result.
package studio

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/eidsvag/animere/internal/catalog"
	"github.com/eidsvag/animere/internal/checksum"
	"github.com/eidsvag/animere/internal/compose"
	"github.com/eidsvag/animere/internal/diagram"
	"github.com/eidsvag/animere/internal/render"
	"github.com/eidsvag/animere/internal/sequence"
	"github.com/eidsvag/animere/internal/storage"
	"github.com/eidsvag/animere/internal/theme"
)

// artifactDir is the workshop subdirectory holding composited animations.
const artifactDir = "animations"

// Request describes one animation run.
type Request struct {
	Name        string // logical name, recorded in the catalog
	Source      string // diagram text
	Description string // optional; skips the describe round-trip when set
	FrameHint   int    // requested keyframe count, 0 for the default
	Theme       string // built-in theme name, "" for the default
}

// Result is the outcome of a completed run.
type Result struct {
	Run      catalog.Run
	Artifact *compose.Artifact
}

// Notifier receives run lifecycle callbacks. Implementations must not block.
type Notifier interface {
	RunEvent(kind, id string)
	Progress(id string, frame, total int)
}

// Service wires the pipeline stages together.
type Service struct {
	store    storage.Provider
	db       catalog.Store
	planner  *sequence.Planner
	renderer *render.Renderer
	loop     bool
	notifier Notifier // optional
	logger   *slog.Logger
}

// NewService creates the studio service. notifier may be nil.
func NewService(store storage.Provider, db catalog.Store, planner *sequence.Planner,
	renderer *render.Renderer, loop bool, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		db:       db,
		planner:  planner,
		renderer: renderer,
		loop:     loop,
		notifier: notifier,
		logger:   logger,
	}
}

// Animate runs the whole pipeline for req. Nothing is persisted unless every
// stage succeeds; a failed run leaves no catalog row and no artifact file.
func (s *Service) Animate(ctx context.Context, req Request) (*Result, error) {
	src, err := diagram.New(req.Source)
	if err != nil {
		return nil, err
	}
	th, ok := theme.Lookup(req.Theme)
	if !ok {
		return nil, fmt.Errorf("studio: unknown theme %q", req.Theme)
	}

	id := runID(req.Source)
	name := req.Name
	if name == "" {
		name = string(src.Kind())
	}
	s.emit("run.started", id)

	result, err := s.run(ctx, id, name, src, req, th)
	if err != nil {
		s.emit("run.failed", id)
		return nil, err
	}
	s.emit("run.completed", id)
	return result, nil
}

func (s *Service) run(ctx context.Context, id, name string, src diagram.Source,
	req Request, th theme.Theme) (*Result, error) {
	started := time.Now()

	plan, err := s.planner.Plan(ctx, src, req.Description, req.FrameHint)
	if err != nil {
		return nil, err
	}
	s.logger.Info("plan ready",
		slog.String("run", id),
		slog.Int("frames", plan.Len()),
		slog.Duration("total", plan.Total()))

	frames, err := s.renderer.RenderPlan(ctx, plan, func(index int) {
		s.progress(id, index, plan.Len())
	})
	if err != nil {
		return nil, err
	}

	// Annotate each frame's edge paths with the semantics parsed from its
	// own keyframe text, plus the theme's cascading draw-in delay.
	for i := range frames {
		edges := compose.ParseEdges(plan.Frames[frames[i].Index].Text())
		frames[i].SVG = compose.InjectEdgeMetadata(frames[i].SVG, edges, th.Stagger)
	}

	artifact, err := compose.New(th, s.loop).Compose(frames)
	if err != nil {
		return nil, err
	}

	artifactPath := path.Join(artifactDir, id+".svg")
	if err := s.store.Write(artifactPath, artifact.SVG); err != nil {
		return nil, fmt.Errorf("studio: persist artifact: %w", err)
	}

	run := catalog.Run{
		ID:           id,
		Name:         name,
		Kind:         string(src.Kind()),
		FrameCount:   artifact.FrameCount,
		TotalMS:      artifact.Total.Milliseconds(),
		Theme:        th.Name,
		ArtifactPath: artifactPath,
		Checksum:     checksum.Sum(artifact.SVG),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.db.InsertRun(run); err != nil {
		// The artifact file is already on disk; remove it so a failed run
		// leaves nothing behind.
		_ = s.store.Delete(artifactPath)
		return nil, err
	}

	s.logger.Info("run completed",
		slog.String("run", id),
		slog.Int("frames", artifact.FrameCount),
		slog.Duration("elapsed", time.Since(started)))

	return &Result{Run: run, Artifact: artifact}, nil
}

// Validate checks diagram text without running the pipeline and reports the
// detected kind.
func (s *Service) Validate(text string) (diagram.Kind, error) {
	src, err := diagram.New(text)
	if err != nil {
		return "", err
	}
	return src.Kind(), nil
}

// GetRun returns one catalog entry.
func (s *Service) GetRun(id string) (*catalog.Run, error) {
	return s.db.GetRun(id)
}

// ListRuns returns catalog entries newest first, plus the total count.
func (s *Service) ListRuns(limit, offset int, kind string) ([]catalog.Run, int, error) {
	return s.db.ListRuns(limit, offset, kind)
}

// ReadArtifact returns the composited SVG bytes of a recorded run.
func (s *Service) ReadArtifact(id string) ([]byte, error) {
	run, err := s.db.GetRun(id)
	if err != nil {
		return nil, err
	}
	return s.store.Read(run.ArtifactPath)
}

// DeleteRun removes a run's catalog entry and its artifact file.
func (s *Service) DeleteRun(id string) error {
	run, err := s.db.GetRun(id)
	if err != nil {
		return err
	}
	if err := s.db.DeleteRun(id); err != nil {
		return err
	}
	if err := s.store.Delete(run.ArtifactPath); err != nil {
		s.logger.Warn("artifact removal failed",
			slog.String("run", id),
			slog.String("error", err.Error()))
	}
	s.emit("run.deleted", id)
	return nil
}

// DeleteRunsByName removes every run recorded under name, catalog rows and
// artifact files both. Used by watch mode when a source file disappears.
func (s *Service) DeleteRunsByName(name string) error {
	paths, err := s.db.DeleteRunsByName(name)
	if err != nil {
		return err
	}
	for _, p := range paths {
		if err := s.store.Delete(p); err != nil {
			s.logger.Warn("artifact removal failed",
				slog.String("path", p),
				slog.String("error", err.Error()))
		}
	}
	return nil
}

func (s *Service) emit(kind, id string) {
	if s.notifier != nil {
		s.notifier.RunEvent(kind, id)
	}
}

func (s *Service) progress(id string, frame, total int) {
	if s.notifier != nil {
		s.notifier.Progress(id, frame, total)
	}
}

// runID derives a unique, sortable run identifier from the submission time
// and the source content.
func runID(source string) string {
	return time.Now().UTC().Format("20060102T150405") + "-" + checksum.Short([]byte(source), 8)
}
