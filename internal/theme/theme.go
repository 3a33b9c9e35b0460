// Package theme defines visual styles for composited animations: colors,
// edge/node treatments, and the CSS applied to frame contents.
package theme

import (
	"fmt"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Edge styles.
const (
	EdgeNeon      = "neon"
	EdgeClean     = "clean"
	EdgeHandDrawn = "hand-drawn"
)

// Node styles.
const (
	NodeGlass    = "glass"
	NodeSolid    = "solid"
	NodeOutlined = "outlined"
)

// Theme describes the visual treatment applied to every frame of an
// animation. DrawSeconds controls the intra-frame edge draw-in; Stagger is
// the per-element delay within a frame, in seconds.
type Theme struct {
	Name         string  `yaml:"name" json:"name"`
	PrimaryColor string  `yaml:"primary_color" json:"primary_color"`
	Background   string  `yaml:"background" json:"background"`
	EdgeStyle    string  `yaml:"edge_style" json:"edge_style"`
	NodeStyle    string  `yaml:"node_style" json:"node_style"`
	DrawSeconds  float64 `yaml:"draw_seconds" json:"draw_seconds"`
	Stagger      float64 `yaml:"stagger" json:"stagger"`
}

// Validate checks the theme fields.
func (t Theme) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.PrimaryColor, validation.Required),
		validation.Field(&t.Background, validation.Required),
		validation.Field(&t.EdgeStyle, validation.Required, validation.In(EdgeNeon, EdgeClean, EdgeHandDrawn)),
		validation.Field(&t.NodeStyle, validation.Required, validation.In(NodeGlass, NodeSolid, NodeOutlined)),
		validation.Field(&t.DrawSeconds, validation.Min(0.1)),
		validation.Field(&t.Stagger, validation.Min(0.0)),
	)
}

// CSS returns the style block applied inside each composited frame group.
// Edge paths draw in via a dash-offset sweep; node shapes fade in with a
// per-element stagger handled by the compositor.
func (t Theme) CSS() string {
	var b strings.Builder

	fmt.Fprintf(&b, `
.frame path {
  stroke-dasharray: 2000;
  stroke-dashoffset: 2000;
  animation: draw-flow %.2fs ease-out forwards;
  stroke: %s;
  fill: none;
  opacity: 0.85;
}
@keyframes draw-flow {
  to { stroke-dashoffset: 0; }
}
.frame rect, .frame circle, .frame ellipse, .frame polygon {
  opacity: 0;
  animation: fade-in 0.5s ease-out forwards;
}
@keyframes fade-in {
  to { opacity: 1; }
}
`, t.DrawSeconds, t.PrimaryColor)

	switch t.EdgeStyle {
	case EdgeNeon:
		fmt.Fprintf(&b, `
.frame path {
  filter: drop-shadow(0 0 5px %[1]s) drop-shadow(0 0 10px %[1]s);
  stroke-width: 2px;
}
`, t.PrimaryColor)
	case EdgeHandDrawn:
		b.WriteString(`
.frame path {
  stroke-linecap: round;
  stroke-linejoin: round;
}
`)
	case EdgeClean:
		b.WriteString(`
.frame path {
  stroke-width: 1.5px;
  opacity: 0.9;
}
`)
	}

	switch t.NodeStyle {
	case NodeGlass:
		fmt.Fprintf(&b, `
.frame rect, .frame circle, .frame ellipse, .frame polygon {
  fill: rgba(255, 255, 255, 0.1);
  stroke: %s;
  stroke-width: 2px;
}
`, t.PrimaryColor)
	case NodeOutlined:
		fmt.Fprintf(&b, `
.frame rect, .frame circle, .frame ellipse, .frame polygon {
  fill: none;
  stroke: %s;
  stroke-width: 2px;
}
`, t.PrimaryColor)
	case NodeSolid:
		fmt.Fprintf(&b, `
.frame rect, .frame circle, .frame ellipse, .frame polygon {
  fill: %s;
  stroke: none;
}
`, t.PrimaryColor)
	}

	return b.String()
}

var builtin = map[string]Theme{
	"cyberpunk": {
		Name:         "cyberpunk",
		PrimaryColor: "#00ff99",
		Background:   "#1a1a1a",
		EdgeStyle:    EdgeNeon,
		NodeStyle:    NodeGlass,
		DrawSeconds:  1.5,
		Stagger:      0.3,
	},
	"corporate": {
		Name:         "corporate",
		PrimaryColor: "#2563eb",
		Background:   "#ffffff",
		EdgeStyle:    EdgeClean,
		NodeStyle:    NodeSolid,
		DrawSeconds:  1.0,
		Stagger:      0.2,
	},
	"hand-drawn": {
		Name:         "hand-drawn",
		PrimaryColor: "#374151",
		Background:   "#f9fafb",
		EdgeStyle:    EdgeHandDrawn,
		NodeStyle:    NodeOutlined,
		DrawSeconds:  2.0,
		Stagger:      0.4,
	},
}

// Default returns the cyberpunk theme.
func Default() Theme { return builtin["cyberpunk"] }

// Lookup returns the named built-in theme. An empty name selects the default.
func Lookup(name string) (Theme, bool) {
	if name == "" {
		return Default(), true
	}
	t, ok := builtin[name]
	return t, ok
}

// Names lists the built-in theme names, sorted.
func Names() []string {
	names := make([]string, 0, len(builtin))
	for n := range builtin {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// All returns the built-in themes in name order.
func All() []Theme {
	out := make([]Theme, 0, len(builtin))
	for _, n := range Names() {
		out = append(out, builtin[n])
	}
	return out
}
