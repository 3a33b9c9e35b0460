// Package diagram provides structural validation of diagram description text
// and inference of the diagram kind from its leading keyword.
//
// Validation is deliberately shallow: it catches gross structural errors
// (empty input, unknown kind, unterminated blocks, unbalanced grouping)
// before any expensive work. Layout and full grammar parsing are delegated
// to the external renderer.
package diagram

import (
	"fmt"
	"strings"

	"github.com/eidsvag/animere/internal/apperr"
)

// Kind is the inferred diagram kind.
type Kind string

const (
	KindFlowchart Kind = "flowchart"
	KindSequence  Kind = "sequence"
	KindClass     Kind = "class"
	KindState     Kind = "state"
	KindER        Kind = "er"
	KindGantt     Kind = "gantt"
	KindPie       Kind = "pie"
	KindTimeline  Kind = "timeline"
	KindJourney   Kind = "journey"
	KindMindmap   Kind = "mindmap"
)

// kindKeywords maps the leading keyword of a diagram to its kind.
var kindKeywords = map[string]Kind{
	"flowchart":       KindFlowchart,
	"graph":           KindFlowchart,
	"sequenceDiagram": KindSequence,
	"classDiagram":    KindClass,
	"classDiagram-v2": KindClass,
	"stateDiagram":    KindState,
	"stateDiagram-v2": KindState,
	"erDiagram":       KindER,
	"gantt":           KindGantt,
	"pie":             KindPie,
	"timeline":        KindTimeline,
	"journey":         KindJourney,
	"mindmap":         KindMindmap,
}

// blockOpeners are keywords that open a block terminated by "end".
// subgraph belongs to flowcharts; the rest to sequence diagrams.
var blockOpeners = map[string]struct{}{
	"subgraph": {},
	"loop":     {},
	"alt":      {},
	"opt":      {},
	"par":      {},
	"critical": {},
	"rect":     {},
	"box":      {},
	"break":    {},
}

// bracketChecked lists kinds whose grammar uses bracket grouping for node
// shapes and member blocks. Text-heavy grammars (sequence messages, gantt
// task names) legitimately contain stray brackets and are not checked. ER
// relationship lines use lone braces as cardinality markers (||--o{, }o--||),
// so ER diagrams are exempt too.
var bracketChecked = map[Kind]struct{}{
	KindFlowchart: {},
	KindClass:     {},
	KindState:     {},
}

// Source is an immutable diagram description with its inferred kind.
type Source struct {
	text string
	kind Kind
}

// New validates text and returns it as an immutable Source.
func New(text string) (Source, error) {
	kind, err := Validate(text)
	if err != nil {
		return Source{}, err
	}
	return Source{text: text, kind: kind}, nil
}

// Text returns the raw diagram description.
func (s Source) Text() string { return s.text }

// Kind returns the inferred diagram kind.
func (s Source) Kind() Kind { return s.kind }

// Validate checks text for gross structural errors and returns the inferred
// diagram kind. Invalid input is reported, never repaired.
func Validate(text string) (Kind, error) {
	lines := significantLines(text)
	if len(lines) == 0 {
		return "", apperr.New(apperr.StageValidate, apperr.CodeEmptyInput, "diagram text is empty")
	}

	kind, err := detectKind(lines[0].text)
	if err != nil {
		return "", err
	}

	if err := checkBlocks(lines); err != nil {
		return "", err
	}

	if _, ok := bracketChecked[kind]; ok {
		if err := checkBrackets(lines); err != nil {
			return "", err
		}
	}

	return kind, nil
}

type line struct {
	num  int // 1-based line number in the original text
	text string
}

// significantLines strips blanks, %% comments, and %%{...}%% directives.
func significantLines(text string) []line {
	var out []line
	for i, raw := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || strings.HasPrefix(trimmed, "%%") {
			continue
		}
		out = append(out, line{num: i + 1, text: trimmed})
	}
	return out
}

func detectKind(first string) (Kind, error) {
	fields := strings.Fields(first)
	if len(fields) == 0 {
		return "", apperr.New(apperr.StageValidate, apperr.CodeEmptyInput, "diagram text is empty")
	}
	if kind, ok := kindKeywords[fields[0]]; ok {
		return kind, nil
	}
	return "", apperr.Wrap(apperr.StageValidate, apperr.CodeUnknownKind,
		fmt.Errorf("unrecognized diagram keyword %q", fields[0]))
}

// checkBlocks verifies every subgraph/loop/alt/... block is closed by "end".
func checkBlocks(lines []line) error {
	type open struct {
		keyword string
		num     int
	}
	var stack []open
	for _, ln := range lines {
		fields := strings.Fields(ln.text)
		if len(fields) == 0 {
			continue
		}
		first := fields[0]
		if _, ok := blockOpeners[first]; ok {
			stack = append(stack, open{keyword: first, num: ln.num})
			continue
		}
		if first == "end" {
			if len(stack) == 0 {
				return apperr.Wrap(apperr.StageValidate, apperr.CodeUnterminatedBlock,
					fmt.Errorf("line %d: end without an open block", ln.num))
			}
			stack = stack[:len(stack)-1]
		}
	}
	if len(stack) > 0 {
		top := stack[len(stack)-1]
		return apperr.Wrap(apperr.StageValidate, apperr.CodeUnterminatedBlock,
			fmt.Errorf("line %d: %s block is never closed", top.num, top.keyword))
	}
	return nil
}

// checkBrackets verifies (), [], {} pairing outside quoted labels.
func checkBrackets(lines []line) error {
	pairs := map[rune]rune{')': '(', ']': '[', '}': '{'}
	var stack []rune
	for _, ln := range lines {
		inQuote := false
		for _, r := range ln.text {
			if r == '"' {
				inQuote = !inQuote
				continue
			}
			if inQuote {
				continue
			}
			switch r {
			case '(', '[', '{':
				stack = append(stack, r)
			case ')', ']', '}':
				if len(stack) == 0 || stack[len(stack)-1] != pairs[r] {
					return apperr.Wrap(apperr.StageValidate, apperr.CodeUnbalancedDelimiter,
						fmt.Errorf("line %d: unexpected %q", ln.num, string(r)))
				}
				stack = stack[:len(stack)-1]
			}
		}
	}
	if len(stack) > 0 {
		return apperr.Wrap(apperr.StageValidate, apperr.CodeUnbalancedDelimiter,
			fmt.Errorf("%q is never closed", string(stack[len(stack)-1])))
	}
	return nil
}
