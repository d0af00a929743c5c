package ai

import "context"

// Message is one entry of the conversation sent to a provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Model describes one model offered by a provider.
type Model struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	ContextLength int    `json:"context_length"`
}

// Provider is the minimal contract every vendor adapter implements.
type Provider interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}

// StreamProvider is an optional interface. Providers may implement streaming chat.
//
// Deltas are plain-text increments delivered in arrival order. Both channels
// are closed when the stream ends. When ctx is canceled mid-stream the
// provider stops reading, releases the connection and closes the channels
// without sending an error; the caller keeps whatever it accumulated.
type StreamProvider interface {
	StreamChat(ctx context.Context, messages []Message) (<-chan string, <-chan error)
}

// ModelLister is an optional interface for providers with a live model catalog.
type ModelLister interface {
	ListModels(ctx context.Context) ([]Model, error)
}

// WebSearcher is an optional interface for providers that can resolve
// real-time web context for a turn.
type WebSearcher interface {
	SearchWeb(ctx context.Context, query string) (string, error)
}
