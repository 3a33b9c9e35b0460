package sequence

import (
	"fmt"

	"github.com/eidsvag/animere/internal/diagram"
)

const describeSystemPrompt = `You are a technical writer. Given a diagram in
Mermaid syntax, describe in a short paragraph what the diagram shows and what
process or structure it represents. Reply with the description only.`

const generateSystemPrompt = `You generate animation keyframes for Mermaid
diagrams. Given a target diagram and a description of what it shows, produce
an ordered sequence of intermediate diagrams that build up to the target, one
incremental step at a time. Rules:
- Every keyframe must be a complete, syntactically valid Mermaid diagram.
- Every keyframe must be the same diagram type as the target.
- The final keyframe must be the target diagram itself.
- Emit each keyframe in its own fenced code block and nothing else.`

func describeUserPrompt(src diagram.Source) string {
	return fmt.Sprintf("Describe this diagram:\n\n```mermaid\n%s\n```", src.Text())
}

func generateUserPrompt(src diagram.Source, description string, hint int) string {
	return fmt.Sprintf("Target diagram:\n\n```mermaid\n%s\n```\n\nDescription:\n%s\n\n"+
		"Produce %d keyframes that animate the construction of this diagram, "+
		"each in its own fenced code block.", src.Text(), description, hint)
}
