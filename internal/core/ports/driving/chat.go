package driving

import (
	"context"

	"github.com/custodia-labs/lexchat/internal/core/domain"
)

// ChatService manages conversation sessions and drives the RAG pipeline
// for each incoming user message.
type ChatService interface {
	// CreateChat starts a new chat for the user.
	CreateChat(ctx context.Context, userID string) (*domain.Chat, error)

	// GetChat retrieves a chat, enforcing ownership.
	GetChat(ctx context.Context, userID, chatID string) (*domain.Chat, error)

	// ListChats returns the user's chats, most recently updated first.
	ListChats(ctx context.Context, userID string) ([]domain.Chat, error)

	// ListMessages returns a chat's messages in chronological order,
	// enforcing ownership.
	ListMessages(ctx context.Context, userID, chatID string) ([]domain.Message, error)

	// SendMessage persists the user's utterance, runs the RAG pipeline
	// over the chat's recent history and persists and returns the
	// assistant's reply.
	SendMessage(ctx context.Context, userID, chatID, content string) (*domain.Message, error)
}

// UserService manages accounts and session tokens.
type UserService interface {
	// Register creates an account. Returns domain.ErrAlreadyExists if the
	// email is taken.
	Register(ctx context.Context, email, password string) (*domain.User, error)

	// Login verifies credentials and returns a signed session token.
	Login(ctx context.Context, email, password string) (string, error)

	// Authenticate validates a session token and returns the user.
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}
