package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/eidsvag/animere/internal/apperr"
	"github.com/eidsvag/animere/internal/diagram"
	"github.com/eidsvag/animere/internal/sequence"
)

// Renderer renders every keyframe of a plan. Keyframes are independent once
// the plan is finalized, so they are dispatched to a bounded worker group;
// results are index-tagged so the output order always matches the plan order
// regardless of completion order.
type Renderer struct {
	tool        Tool
	cache       Cache // optional
	opts        Options
	concurrency int
	logger      *slog.Logger
}

// NewRenderer creates a renderer over tool. cache may be nil to disable
// frame caching. concurrency below 1 is raised to 1.
func NewRenderer(tool Tool, cache Cache, opts Options, concurrency int, logger *slog.Logger) *Renderer {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Renderer{tool: tool, cache: cache, opts: opts, concurrency: concurrency, logger: logger}
}

// RenderPlan renders all keyframes of plan. onFrame, if non-nil, is called
// once per completed frame (from worker goroutines). A keyframe failure is
// retried once; a second consecutive failure aborts the whole render, since
// a partial animation is not a valid deliverable. Once any keyframe fails or
// ctx is cancelled, no new render is dispatched.
func (r *Renderer) RenderPlan(ctx context.Context, plan *sequence.Plan, onFrame func(index int)) ([]Frame, error) {
	frames := make([]Frame, plan.Len())

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, src := range plan.Frames {
		g.Go(func() error {
			// Cooperative cancellation: a unit picked up after failure or
			// cancellation returns immediately instead of starting a render.
			if gctx.Err() != nil {
				return gctx.Err()
			}
			svg, err := r.renderFrame(gctx, i, src)
			if err != nil {
				return err
			}
			frames[i] = Frame{Index: i, SVG: svg, Timing: plan.Timing[i]}
			if onFrame != nil {
				onFrame(i)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return nil, apperr.Wrap(apperr.StageRender, apperr.CodeCancelled, err)
		}
		return nil, err
	}
	return frames, nil
}

// renderFrame renders one keyframe, consulting the cache first and retrying
// a failed tool invocation once.
func (r *Renderer) renderFrame(ctx context.Context, index int, src diagram.Source) ([]byte, error) {
	key := r.opts.cacheKey(src.Text())

	if r.cache != nil {
		if svg, ok, err := r.cache.GetFrame(key); err == nil && ok {
			r.logger.Debug("frame cache hit", slog.Int("index", index))
			return svg, nil
		}
	}

	svg, err := r.tool.Render(ctx, src, r.opts)
	if err != nil && ctx.Err() == nil {
		r.logger.Warn("render failed, retrying once",
			slog.Int("index", index),
			slog.String("error", err.Error()))
		svg, err = r.tool.Render(ctx, src, r.opts)
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, apperr.AtFrame(apperr.StageRender, apperr.CodeRenderFailed, index,
			fmt.Errorf("rendering failed at index %d: %w", index, err))
	}

	if r.cache != nil {
		if err := r.cache.PutFrame(key, string(src.Kind()), svg); err != nil {
			r.logger.Warn("frame cache write failed", slog.String("error", err.Error()))
		}
	}
	return svg, nil
}
