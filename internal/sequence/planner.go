package sequence

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/eidsvag/animere/internal/apperr"
	"github.com/eidsvag/animere/internal/diagram"
	"github.com/eidsvag/animere/internal/llm"
)

// Config is the sequencing configuration surface.
type Config struct {
	TotalDuration   time.Duration // target playback duration for the whole animation
	StaggerFraction float64       // per-frame stagger as a fraction of frame duration
	MinFrames       int           // fewer surviving keyframes than this fails the run
	MaxFrames       int           // surplus keyframes beyond this are discarded
	Timeout         time.Duration // per collaborator call
}

// Planner generates animation plans via the language-model collaborator.
// It serializes its calls: at most one describe and one generate round-trip
// per run, never concurrently.
type Planner struct {
	client llm.Client
	cfg    Config
	logger *slog.Logger
}

// NewPlanner creates a planner backed by the given collaborator.
func NewPlanner(client llm.Client, cfg Config, logger *slog.Logger) *Planner {
	return &Planner{client: client, cfg: cfg, logger: logger}
}

var fenceRe = regexp.MustCompile("(?s)```[a-zA-Z0-9_-]*[ \t]*\r?\n(.*?)```")

// Plan produces an AnimationPlan for src. If description is empty, one extra
// round-trip asks the collaborator to describe the diagram first. Every
// returned keyframe is independently re-validated and must match src's kind;
// failures are dropped. Fewer than two usable keyframes (or fewer than the
// configured minimum) abort the run rather than produce a degenerate
// one-frame animation.
func (p *Planner) Plan(ctx context.Context, src diagram.Source, description string, frameHint int) (*Plan, error) {
	hint := p.clampHint(frameHint)

	if description == "" {
		desc, err := p.describe(ctx, src)
		if err != nil {
			return nil, err
		}
		description = desc
	}

	raw, err := p.generate(ctx, src, description, hint)
	if err != nil {
		return nil, err
	}

	frames, err := p.filterKeyframes(src, raw)
	if err != nil {
		return nil, err
	}

	return &Plan{
		Kind:   src.Kind(),
		Frames: frames,
		Timing: uniformTiming(p.cfg.TotalDuration, p.cfg.StaggerFraction, len(frames)),
	}, nil
}

func (p *Planner) clampHint(hint int) int {
	if hint <= 0 {
		hint = (p.cfg.MinFrames + p.cfg.MaxFrames) / 2
	}
	if hint < p.cfg.MinFrames {
		hint = p.cfg.MinFrames
	}
	if hint > p.cfg.MaxFrames {
		hint = p.cfg.MaxFrames
	}
	return hint
}

// describe asks the collaborator for a free-form description of the diagram.
func (p *Planner) describe(ctx context.Context, src diagram.Source) (string, error) {
	resp, err := p.complete(ctx, describeSystemPrompt, describeUserPrompt(src))
	if err != nil {
		return "", err
	}
	desc := strings.TrimSpace(resp.Content)
	if desc == "" {
		return "", apperr.New(apperr.StageSequence, apperr.CodeGenerationMalformed,
			"collaborator returned an empty description")
	}
	return desc, nil
}

// generate asks the collaborator for the keyframe sequence.
func (p *Planner) generate(ctx context.Context, src diagram.Source, description string, hint int) (string, error) {
	resp, err := p.complete(ctx, generateSystemPrompt, generateUserPrompt(src, description, hint))
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// complete performs one collaborator round-trip with the configured timeout.
// A failed call is never retried (fail fast); cancellation of the parent
// context is surfaced as a distinct cancelled outcome.
func (p *Planner) complete(ctx context.Context, system, user string) (*llm.Response, error) {
	cctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	resp, err := p.client.Complete(cctx, system, []llm.Message{{Role: "user", Content: user}})
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperr.Wrap(apperr.StageSequence, apperr.CodeCancelled, ctx.Err())
		}
		return nil, apperr.Wrap(apperr.StageSequence, apperr.CodeGenerationUnavailable, err)
	}
	return resp, nil
}

// filterKeyframes extracts fenced code blocks from the collaborator output,
// validates each independently, and drops keyframes that fail validation or
// differ in kind from src.
func (p *Planner) filterKeyframes(src diagram.Source, raw string) ([]diagram.Source, error) {
	matches := fenceRe.FindAllStringSubmatch(raw, -1)
	if len(matches) == 0 {
		return nil, apperr.New(apperr.StageSequence, apperr.CodeGenerationMalformed,
			"collaborator output contains no keyframe code blocks")
	}

	var frames []diagram.Source
	for i, m := range matches {
		text := strings.TrimSpace(m[1])
		frame, err := diagram.New(text)
		if err != nil {
			p.logger.Warn("dropping invalid keyframe",
				slog.Int("index", i),
				slog.String("error", err.Error()))
			continue
		}
		if frame.Kind() != src.Kind() {
			p.logger.Warn("dropping keyframe of mismatched kind",
				slog.Int("index", i),
				slog.String("kind", string(frame.Kind())),
				slog.String("want", string(src.Kind())))
			continue
		}
		frames = append(frames, frame)
	}

	min := p.cfg.MinFrames
	if min < 2 {
		min = 2
	}
	if len(frames) < min {
		return nil, apperr.Wrap(apperr.StageSequence, apperr.CodeSequenceTooShort,
			fmt.Errorf("only %d of %d keyframes survived validation (minimum %d)",
				len(frames), len(matches), min))
	}
	if p.cfg.MaxFrames > 0 && len(frames) > p.cfg.MaxFrames {
		frames = frames[:p.cfg.MaxFrames]
	}
	return frames, nil
}
