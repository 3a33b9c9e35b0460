// Package render converts diagram keyframes into static SVG frames by
// invoking the external rendering tool, with bounded concurrency, a single
// retry per keyframe, and an optional content-addressed frame cache.
package render

import (
	"context"
	"fmt"

	"github.com/eidsvag/animere/internal/checksum"
	"github.com/eidsvag/animere/internal/diagram"
	"github.com/eidsvag/animere/internal/sequence"
)

// Options configure a single render invocation.
type Options struct {
	Width      int
	Height     int
	Background string
}

// cacheKey folds the render options into the frame cache key so a
// canvas-size change never serves stale frames.
func (o Options) cacheKey(text string) string {
	return checksum.Key(text, fmt.Sprintf("%dx%d", o.Width, o.Height), o.Background)
}

// Tool is the external rendering tool contract: valid diagram text in,
// image bytes out, or a reported failure. Invocations are independent.
type Tool interface {
	Render(ctx context.Context, src diagram.Source, opts Options) ([]byte, error)
}

// Frame is the rendered image for one keyframe, tagged with its position in
// the plan and its timing metadata. Immutable once produced.
type Frame struct {
	Index  int
	SVG    []byte
	Timing sequence.Timing
}

// Cache stores rendered frame bytes keyed by content checksum. A miss is
// reported as ok=false, not as an error.
type Cache interface {
	GetFrame(key string) (svg []byte, ok bool, err error)
	PutFrame(key string, kind string, svg []byte) error
}
