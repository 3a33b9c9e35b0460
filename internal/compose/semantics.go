package compose

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
)

// EdgeSemantics captures the direction and type of one diagram edge, parsed
// from the diagram text and injected into the rendered frame as data
// attributes for theme CSS to target.
type EdgeSemantics struct {
	Source    string
	Target    string
	Direction string // "forward" or "bidirectional"
	EdgeType  string
}

type edgePattern struct {
	re        *regexp.Regexp
	edgeType  string
	direction string
	swap      bool // reverse source/target (inheritance points at the parent)
}

// Most specific operators first: bidirectional and dotted variants would
// otherwise be shadowed by the plain arrow.
var edgePatterns = []edgePattern{
	{regexp.MustCompile(`(\w+)\s*<-\.->\s*(\w+)`), "dotted_arrow", "bidirectional", false},
	{regexp.MustCompile(`(\w+)\s*<-->\s*(\w+)`), "arrow", "bidirectional", false},
	{regexp.MustCompile(`(\w+)\s*-\.->\s*(\w+)`), "dotted_arrow", "forward", false},
	{regexp.MustCompile(`(\w+)\s*==>\s*(\w+)`), "thick_arrow", "forward", false},
	{regexp.MustCompile(`(\w+)\s*<\|--\s*(\w+)`), "extension", "forward", true},
	{regexp.MustCompile(`(\w+)\s*\|\|--\|\|\s*(\w+)`), "aggregation", "forward", false},
	{regexp.MustCompile(`(\w+)\s*--o\s*(\w+)`), "circle", "forward", false},
	{regexp.MustCompile(`(\w+)\s*--x\s*(\w+)`), "cross", "forward", false},
	{regexp.MustCompile(`(\w+)\s*-->\s*(\w+)`), "arrow", "forward", false},
}

// ParseEdges extracts edge semantics from diagram text, one entry per edge
// line, in document order. Comment lines are skipped.
func ParseEdges(text string) []EdgeSemantics {
	var edges []EdgeSemantics
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "%%") {
			continue
		}
		for _, p := range edgePatterns {
			m := p.re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			source, target := m[1], m[2]
			if p.swap {
				source, target = target, source
			}
			edges = append(edges, EdgeSemantics{
				Source:    source,
				Target:    target,
				Direction: p.direction,
				EdgeType:  p.edgeType,
			})
			break
		}
	}
	return edges
}

var (
	markerRe    = regexp.MustCompile(`(?s)<marker\b.*?</marker>`)
	pathTagRe   = regexp.MustCompile(`<path\b[^>]*`)
	styleAttrRe = regexp.MustCompile(`style="([^"]*)"`)
)

// InjectEdgeMetadata annotates the non-marker <path> elements of a rendered
// frame with the edge semantics parsed from its diagram text, matched
// positionally, and adds a per-edge animation delay for the cascading
// draw-in effect. A path that already carries an inline style keeps it; the
// delay is merged into the existing attribute. Paths inside <marker>
// definitions (arrowheads) are left untouched.
func InjectEdgeMetadata(svg []byte, edges []EdgeSemantics, staggerSeconds float64) []byte {
	markerRanges := markerRe.FindAllIndex(svg, -1)
	inMarker := func(pos int) bool {
		for _, r := range markerRanges {
			if pos >= r[0] && pos < r[1] {
				return true
			}
		}
		return false
	}

	var out bytes.Buffer
	last := 0
	edgeIdx := 0
	for _, loc := range pathTagRe.FindAllIndex(svg, -1) {
		if inMarker(loc[0]) {
			continue
		}
		out.Write(svg[last:loc[0]])
		last = loc[1]

		tag := svg[loc[0]:loc[1]]
		trailer := []byte(nil)
		if bytes.HasSuffix(tag, []byte("/")) {
			tag, trailer = tag[:len(tag)-1], []byte("/")
		}

		delay := fmt.Sprintf("animation-delay: %.2fs", float64(edgeIdx)*staggerSeconds)
		if m := styleAttrRe.FindSubmatchIndex(tag); m != nil {
			out.Write(tag[:m[3]])
			if m[3] > m[2] {
				out.WriteString("; ")
			}
			out.WriteString(delay)
			out.Write(tag[m[3]:])
		} else {
			out.Write(tag[:len("<path")])
			fmt.Fprintf(&out, ` style=%q`, delay)
			out.Write(tag[len("<path"):])
		}
		if edgeIdx < len(edges) {
			e := edges[edgeIdx]
			fmt.Fprintf(&out,
				` data-flow-direction=%q data-source-node=%q data-target-node=%q data-edge-type=%q`,
				e.Direction, e.Source, e.Target, e.EdgeType)
		}
		out.Write(trailer)
		edgeIdx++
	}
	out.Write(svg[last:])
	return out.Bytes()
}
