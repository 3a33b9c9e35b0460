package compose

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/eidsvag/animere/internal/apperr"
	"github.com/eidsvag/animere/internal/render"
	"github.com/eidsvag/animere/internal/sequence"
	"github.com/eidsvag/animere/internal/theme"
)

func frameSVG(w, h int, body string) []byte {
	return []byte(fmt.Sprintf(
		`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d"><g>%s</g></svg>`,
		w, h, w, h, body))
}

func testFrames(n int, dur, stagger time.Duration) []render.Frame {
	frames := make([]render.Frame, n)
	for i := range frames {
		frames[i] = render.Frame{
			Index:  i,
			SVG:    frameSVG(800, 600, fmt.Sprintf(`<rect id="r%d"/>`, i)),
			Timing: sequence.Timing{Duration: dur, Stagger: stagger},
		}
	}
	return frames
}

func TestCompose_TotalDuration(t *testing.T) {
	// Total = sum of durations + stagger for every frame after the first.
	frames := testFrames(4, 1500*time.Millisecond, 250*time.Millisecond)
	art, err := New(theme.Default(), false).Compose(frames)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	want := 4*1500*time.Millisecond + 3*250*time.Millisecond
	if art.Total != want {
		t.Errorf("Total = %v, want %v", art.Total, want)
	}
	if art.FrameCount != 4 {
		t.Errorf("FrameCount = %d, want 4", art.FrameCount)
	}
	if art.Width != 800 || art.Height != 600 {
		t.Errorf("canvas = %dx%d, want 800x600", art.Width, art.Height)
	}
}

func TestCompose_SingleFrameHasNoStagger(t *testing.T) {
	frames := testFrames(1, 2*time.Second, time.Second)
	art, err := New(theme.Default(), false).Compose(frames)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if art.Total != 2*time.Second {
		t.Errorf("Total = %v, want 2s", art.Total)
	}
}

func TestCompose_OrderIndependentOfInput(t *testing.T) {
	frames := testFrames(3, time.Second, 0)
	shuffled := []render.Frame{frames[2], frames[0], frames[1]}

	a, err := New(theme.Default(), false).Compose(frames)
	if err != nil {
		t.Fatalf("Compose ordered: %v", err)
	}
	b, err := New(theme.Default(), false).Compose(shuffled)
	if err != nil {
		t.Fatalf("Compose shuffled: %v", err)
	}
	if !bytes.Equal(a.SVG, b.SVG) {
		t.Error("artifact differs when frame completion order differs")
	}

	// Groups appear in plan order.
	svg := string(a.SVG)
	p0 := strings.Index(svg, `id="r0"`)
	p1 := strings.Index(svg, `id="r1"`)
	p2 := strings.Index(svg, `id="r2"`)
	if !(p0 < p1 && p1 < p2) {
		t.Errorf("frame contents out of order: %d %d %d", p0, p1, p2)
	}
}

func TestCompose_Idempotent(t *testing.T) {
	frames := testFrames(3, time.Second, 100*time.Millisecond)
	c := New(theme.Default(), true)
	a, err := c.Compose(frames)
	if err != nil {
		t.Fatal(err)
	}
	b, err := c.Compose(frames)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.SVG, b.SVG) {
		t.Error("repeated composition not byte-identical")
	}
}

func TestCompose_EmptyInput(t *testing.T) {
	_, err := New(theme.Default(), false).Compose(nil)
	if apperr.CodeOf(err) != apperr.CodeNothingToCompose {
		t.Errorf("code = %q, want nothing_to_compose", apperr.CodeOf(err))
	}
}

func TestCompose_SizeMismatchNamesFrame(t *testing.T) {
	frames := testFrames(3, time.Second, 0)
	frames[2].SVG = frameSVG(640, 480, `<rect id="r2"/>`)

	_, err := New(theme.Default(), false).Compose(frames)
	if apperr.CodeOf(err) != apperr.CodeFrameSizeMismatch {
		t.Fatalf("code = %q, want frame_size_mismatch", apperr.CodeOf(err))
	}
	if apperr.FrameOf(err) != 2 {
		t.Errorf("frame = %d, want 2", apperr.FrameOf(err))
	}
}

func TestCompose_DimsFromViewBox(t *testing.T) {
	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 320 240"><g/></svg>`)
	frames := []render.Frame{{Index: 0, SVG: svg, Timing: sequence.Timing{Duration: time.Second}}}
	art, err := New(theme.Default(), false).Compose(frames)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if art.Width != 320 || art.Height != 240 {
		t.Errorf("canvas = %dx%d, want 320x240", art.Width, art.Height)
	}
}

func TestCompose_LoopAffectsIteration(t *testing.T) {
	frames := testFrames(2, time.Second, 0)

	once, err := New(theme.Default(), false).Compose(frames)
	if err != nil {
		t.Fatal(err)
	}
	loop, err := New(theme.Default(), true).Compose(frames)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(once.SVG), "linear 1 forwards") {
		t.Error("non-looping artifact missing single-iteration animation")
	}
	if !strings.Contains(string(loop.SVG), "linear infinite none") {
		t.Error("looping artifact missing infinite iteration")
	}
}

func TestCompose_ThemeBackgroundOnRoot(t *testing.T) {
	frames := testFrames(1, time.Second, 0)
	art, err := New(theme.Default(), false).Compose(frames)
	if err != nil {
		t.Fatal(err)
	}
	want := fmt.Sprintf("background-color: %s", theme.Default().Background)
	if !strings.Contains(string(art.SVG), want) {
		t.Errorf("root svg missing %q", want)
	}
	// Frame wrappers do not nest svg roots.
	if strings.Count(string(art.SVG), "<svg") != 1 {
		t.Error("nested <svg> roots in artifact")
	}
}

func TestTimeline_Starts(t *testing.T) {
	frames := []render.Frame{
		{Index: 0, Timing: sequence.Timing{Duration: time.Second}},
		{Index: 1, Timing: sequence.Timing{Duration: 2 * time.Second, Stagger: 500 * time.Millisecond}},
		{Index: 2, Timing: sequence.Timing{Duration: time.Second, Stagger: 500 * time.Millisecond}},
	}
	starts, total := timeline(frames)
	want := []time.Duration{0, 1500 * time.Millisecond, 4 * time.Second}
	for i := range want {
		if starts[i] != want[i] {
			t.Errorf("starts[%d] = %v, want %v", i, starts[i], want[i])
		}
	}
	if total != 5*time.Second {
		t.Errorf("total = %v, want 5s", total)
	}
}
