// Package sequence produces animation plans: ordered diagram keyframes with
// per-frame timing, generated with help from the language-model collaborator
// and filtered through the diagram validator.
package sequence

import (
	"time"

	"github.com/eidsvag/animere/internal/diagram"
)

// Timing holds the playback metadata for one keyframe.
type Timing struct {
	Duration time.Duration `json:"duration"`
	Stagger  time.Duration `json:"stagger"`
}

// Plan is an ordered sequence of keyframes with per-frame timing. The frame
// at index i plays for Timing[i].Duration; Timing[i].Stagger is the extra
// offset applied before frames after the first, creating a cascading reveal.
type Plan struct {
	Kind   diagram.Kind
	Frames []diagram.Source
	Timing []Timing
}

// Len returns the keyframe count.
func (p *Plan) Len() int { return len(p.Frames) }

// Total returns the declared playback duration: the sum of per-frame
// durations plus the stagger offsets of every frame after the first.
func (p *Plan) Total() time.Duration {
	var total time.Duration
	for i, t := range p.Timing {
		total += t.Duration
		if i > 0 {
			total += t.Stagger
		}
	}
	return total
}

// uniformTiming assigns every one of k frames an equal share of total, with
// a stagger delay derived from the per-frame duration.
func uniformTiming(total time.Duration, staggerFraction float64, k int) []Timing {
	per := total / time.Duration(k)
	stagger := time.Duration(float64(per) * staggerFraction)
	timing := make([]Timing, k)
	for i := range timing {
		timing[i] = Timing{Duration: per, Stagger: stagger}
	}
	return timing
}
