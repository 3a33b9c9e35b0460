package mcpserver

// DiagramContract describes the diagram kinds animere accepts and the
// structural rules diagram text must satisfy before it can be animated.
const DiagramContract = `# animere Diagram Contract

Diagram text submitted to animere MUST satisfy this contract.

## Supported kinds

The first significant line (comments ` + "`" + `%%` + "`" + ` are skipped) declares the kind:

| Declaration                          | Kind      |
|--------------------------------------|-----------|
| ` + "`" + `flowchart` + "`" + ` / ` + "`" + `graph` + "`" + `              | flowchart |
| ` + "`" + `sequenceDiagram` + "`" + `                    | sequence  |
| ` + "`" + `classDiagram` + "`" + `                       | class     |
| ` + "`" + `stateDiagram` + "`" + ` / ` + "`" + `stateDiagram-v2` + "`" + ` | state     |
| ` + "`" + `erDiagram` + "`" + `                          | er        |
| ` + "`" + `gantt` + "`" + `                              | gantt     |
| ` + "`" + `pie` + "`" + `                                | pie       |
| ` + "`" + `timeline` + "`" + `                           | timeline  |
| ` + "`" + `journey` + "`" + `                            | journey   |
| ` + "`" + `mindmap` + "`" + `                            | mindmap   |

Anything else is rejected as ` + "`" + `unknown_kind` + "`" + `.

## Structural rules

1. **Non-empty.** Whitespace-only text is rejected as ` + "`" + `empty_input` + "`" + `.
2. **Blocks must close.** Every ` + "`" + `subgraph` + "`" + `, ` + "`" + `loop` + "`" + `, ` + "`" + `alt` + "`" + `, ` + "`" + `opt` + "`" + `,
   ` + "`" + `par` + "`" + `, ` + "`" + `critical` + "`" + `, ` + "`" + `rect` + "`" + `, ` + "`" + `box` + "`" + ` and ` + "`" + `break` + "`" + ` needs a matching
   ` + "`" + `end` + "`" + `; an unclosed block is ` + "`" + `unterminated_block` + "`" + `, a stray ` + "`" + `end` + "`" + ` too.
3. **Brackets must balance.** In flowchart, class, state and er diagrams the
   delimiters ` + "`" + `()[]{}` + "`" + ` must balance outside quoted labels
   (` + "`" + `unbalanced_delimiter` + "`" + ` otherwise). Other kinds carry free-form message
   text and are exempt.

## Animation hints

- ` + "`" + `frame_hint` + "`" + ` asks for a keyframe count; the planner clamps it to the
  configured range and may return fewer frames.
- Every generated keyframe must be a valid diagram of the SAME kind as the
  input; keyframes that fail validation are dropped. A run needs at least
  two surviving keyframes.
- ` + "`" + `description` + "`" + ` lets you dictate the narrative arc of the reveal; leave
  it empty and animere will ask its collaborator to derive one.
`
