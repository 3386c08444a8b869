package driven

import "context"

// LLMService provides chat-style language generation for the RAG pipeline.
// Both pipeline stages that need generation (query rewriting and answer
// generation) go through Chat with a fixed system instruction.
//
// Implementations may include:
//   - Groq (llama-3.1-8b-instant and other OpenAI-compatible models)
//   - Ollama (local models)
type LLMService interface {
	// Chat conducts a single completion over a multi-turn conversation.
	// The pipeline does not retry failed calls; errors, timeouts and
	// malformed responses propagate to the caller.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight
	// test request. Used at startup before accepting traffic.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// Chat message roles understood by the providers.
const (
	ChatRoleSystem    = "system"
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatOptions configures chat behaviour.
type ChatOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}
