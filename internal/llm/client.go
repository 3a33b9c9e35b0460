// Package llm defines the language-model collaborator interface and its
// Anthropic-backed implementation. The collaborator is treated as unreliable:
// calls carry explicit timeouts and responses are never trusted without
// downstream validation.
package llm

import "context"

// Message is a single chat message.
type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

// Response is the collaborator's reply to one request.
type Response struct {
	Content      string
	InputTokens  int
	OutputTokens int
	Model        string
}

// Client is the request/response text-generation interface consumed by the
// frame sequencer. Implementations must honour ctx cancellation and deadlines.
type Client interface {
	Complete(ctx context.Context, systemPrompt string, messages []Message) (*Response, error)
}
