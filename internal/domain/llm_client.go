package domain

import "context"

// ChatMessage is one message in a chat-completion request.
type ChatMessage struct {
	Role    string `json:"role"` // "system", "user" or "assistant"
	Content string `json:"content"`
}

// ChatOptions tune one chat-completion call.
type ChatOptions struct {
	Model       string
	MaxTokens   int
	Temperature float64
	JSONMode    bool
}

// ChatResult carries the model output and its token accounting.
type ChatResult struct {
	Text  string
	Usage TokenUsage
}

// LLMClient sends chat-completion requests to the model backend.
type LLMClient interface {
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (*ChatResult, error)
}
