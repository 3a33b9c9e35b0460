// Package compose merges rendered frames into a single animated SVG. Frames
// are layered as groups revealed in plan order by CSS keyframe timing; the
// total playback duration is the sum of per-frame durations plus the
// cumulative stagger offsets.
package compose

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/eidsvag/animere/internal/apperr"
	"github.com/eidsvag/animere/internal/render"
	"github.com/eidsvag/animere/internal/theme"
)

// Artifact is the final composited animation. Written once, not mutated.
type Artifact struct {
	SVG        []byte
	FrameCount int
	Total      time.Duration
	Width      int
	Height     int
}

// Compositor assembles artifacts with a fixed theme and loop behaviour.
type Compositor struct {
	theme theme.Theme
	loop  bool
}

// New creates a compositor. loop controls whether playback repeats.
func New(th theme.Theme, loop bool) *Compositor {
	return &Compositor{theme: th, loop: loop}
}

// Compose merges frames into one animated SVG. Frames are ordered by their
// plan index, so render completion order is irrelevant. All frames must
// share a common canvas size; the compositor never rescales.
func (c *Compositor) Compose(frames []render.Frame) (*Artifact, error) {
	if len(frames) == 0 {
		return nil, apperr.New(apperr.StageCompose, apperr.CodeNothingToCompose, "nothing to compose")
	}

	ordered := make([]render.Frame, len(frames))
	copy(ordered, frames)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

	width, height, err := frameDims(ordered[0].SVG)
	if err != nil {
		return nil, apperr.AtFrame(apperr.StageCompose, apperr.CodeFrameSizeMismatch, ordered[0].Index, err)
	}
	for _, f := range ordered[1:] {
		w, h, err := frameDims(f.SVG)
		if err != nil {
			return nil, apperr.AtFrame(apperr.StageCompose, apperr.CodeFrameSizeMismatch, f.Index, err)
		}
		if w != width || h != height {
			return nil, apperr.AtFrame(apperr.StageCompose, apperr.CodeFrameSizeMismatch, f.Index,
				fmt.Errorf("frame size mismatch: frame %d is %dx%d, frame %d is %dx%d",
					ordered[0].Index, width, height, f.Index, w, h))
		}
	}

	starts, total := timeline(ordered)

	var b strings.Builder
	fmt.Fprintf(&b,
		`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" style="background-color: %s">`,
		width, height, width, height, c.theme.Background)
	b.WriteString("\n<style>\n")
	b.WriteString(c.theme.CSS())
	b.WriteString(c.timelineCSS(ordered, starts, total))
	b.WriteString("</style>\n")

	for i, f := range ordered {
		fmt.Fprintf(&b, "<g class=\"frame frame-%d\">\n%s\n</g>\n", i, innerSVG(f.SVG))
	}
	b.WriteString("</svg>\n")

	return &Artifact{
		SVG:        []byte(b.String()),
		FrameCount: len(ordered),
		Total:      total,
		Width:      width,
		Height:     height,
	}, nil
}

// timeline computes each frame's start offset: a frame begins after the
// previous frame's duration plus its own stagger delay. Returns the per-frame
// starts and the total playback duration.
func timeline(frames []render.Frame) ([]time.Duration, time.Duration) {
	starts := make([]time.Duration, len(frames))
	var cursor time.Duration
	for i, f := range frames {
		if i > 0 {
			cursor += frames[i-1].Timing.Duration + f.Timing.Stagger
		}
		starts[i] = cursor
	}
	total := starts[len(frames)-1] + frames[len(frames)-1].Timing.Duration
	return starts, total
}

// timelineCSS emits one reveal animation per frame, expressed as opacity
// keyframes over the total playback duration.
func (c *Compositor) timelineCSS(frames []render.Frame, starts []time.Duration, total time.Duration) string {
	iteration := "1"
	fill := "forwards"
	if c.loop {
		iteration = "infinite"
		fill = "none"
	}

	var b strings.Builder
	b.WriteString(".frame { opacity: 0; }\n")
	for i, f := range frames {
		from := percent(starts[i], total)
		to := percent(starts[i]+f.Timing.Duration, total)
		last := i == len(frames)-1

		fmt.Fprintf(&b, ".frame-%d { animation: reveal-%d %.3fs linear %s %s; }\n",
			i, i, total.Seconds(), iteration, fill)
		fmt.Fprintf(&b, "@keyframes reveal-%d {\n", i)
		if from > 0 {
			fmt.Fprintf(&b, "  0%%, %.4f%% { opacity: 0; }\n", from)
			fmt.Fprintf(&b, "  %.4f%%", from+epsilon)
		} else {
			b.WriteString("  0%")
		}
		if last && !c.loop {
			// The final frame stays visible when playback does not loop.
			b.WriteString(", 100% { opacity: 1; }\n")
		} else {
			fmt.Fprintf(&b, ", %.4f%% { opacity: 1; }\n", to)
			if to < 100 {
				fmt.Fprintf(&b, "  %.4f%%, 100%% { opacity: 0; }\n", to+epsilon)
			}
		}
		b.WriteString("}\n")
	}
	return b.String()
}

// epsilon keeps adjacent keyframe percentages strictly increasing so frame
// cuts are crisp rather than cross-faded.
const epsilon = 0.0001

func percent(at, total time.Duration) float64 {
	if total <= 0 {
		return 0
	}
	return float64(at) / float64(total) * 100
}

var (
	svgOpenRe = regexp.MustCompile(`(?s)<svg\b[^>]*>`)
	widthRe   = regexp.MustCompile(`\bwidth="([0-9.]+)(?:px)?"`)
	heightRe  = regexp.MustCompile(`\bheight="([0-9.]+)(?:px)?"`)
	viewBoxRe = regexp.MustCompile(`\bviewBox="[-0-9.]+[ ,]+[-0-9.]+[ ,]+([0-9.]+)[ ,]+([0-9.]+)"`)
)

// frameDims extracts the canvas size from a frame's root svg tag, preferring
// explicit width/height attributes and falling back to the viewBox. The
// renderer is expected to emit percentage-free dimensions; a frame without a
// resolvable size cannot be composited.
func frameDims(svg []byte) (int, int, error) {
	open := svgOpenRe.Find(svg)
	if open == nil {
		return 0, 0, fmt.Errorf("no <svg> root element")
	}
	w := matchDim(widthRe, open)
	h := matchDim(heightRe, open)
	if w > 0 && h > 0 {
		return w, h, nil
	}
	if m := viewBoxRe.FindSubmatch(open); m != nil {
		vw, _ := strconv.ParseFloat(string(m[1]), 64)
		vh, _ := strconv.ParseFloat(string(m[2]), 64)
		if vw > 0 && vh > 0 {
			return int(vw), int(vh), nil
		}
	}
	return 0, 0, fmt.Errorf("cannot determine frame dimensions")
}

func matchDim(re *regexp.Regexp, open []byte) int {
	m := re.FindSubmatch(open)
	if m == nil {
		return 0
	}
	v, err := strconv.ParseFloat(string(m[1]), 64)
	if err != nil {
		return 0
	}
	return int(v)
}

// innerSVG strips a frame's root <svg> wrapper, returning its content.
func innerSVG(svg []byte) string {
	s := string(svg)
	loc := svgOpenRe.FindStringIndex(s)
	if loc == nil {
		return s
	}
	end := strings.LastIndex(s, "</svg>")
	if end < loc[1] {
		return s
	}
	return strings.TrimSpace(s[loc[1]:end])
}
