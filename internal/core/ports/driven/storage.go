package driven

import (
	"context"

	"github.com/custodia-labs/lexchat/internal/core/domain"
)

// UserStore persists registered accounts.
type UserStore interface {
	// SaveUser stores a new user. Returns domain.ErrAlreadyExists if the
	// email is taken.
	SaveUser(ctx context.Context, user domain.User) error

	// GetUser retrieves a user by ID. Returns domain.ErrNotFound if absent.
	GetUser(ctx context.Context, id string) (*domain.User, error)

	// GetUserByEmail retrieves a user by email. Returns domain.ErrNotFound
	// if absent.
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
}

// ChatStore persists conversation sessions and their messages.
type ChatStore interface {
	// SaveChat stores or updates a chat.
	SaveChat(ctx context.Context, chat domain.Chat) error

	// GetChat retrieves a chat by ID. Returns domain.ErrNotFound if absent.
	GetChat(ctx context.Context, id string) (*domain.Chat, error)

	// ListChats returns a user's chats, most recently updated first.
	ListChats(ctx context.Context, userID string) ([]domain.Chat, error)

	// SaveMessage appends a message to a chat.
	SaveMessage(ctx context.Context, msg domain.Message) error

	// ListMessages returns all messages of a chat in chronological order.
	ListMessages(ctx context.Context, chatID string) ([]domain.Message, error)

	// ListRecentMessages returns the last limit messages of a chat in
	// chronological order.
	ListRecentMessages(ctx context.Context, chatID string, limit int) ([]domain.Message, error)
}

// DocumentStore persists bookkeeping records about ingested documents.
// The records are independent of the vector index; losing one does not
// affect retrieval.
type DocumentStore interface {
	// SaveDocument stores a document record.
	SaveDocument(ctx context.Context, rec domain.DocumentRecord) error

	// ListDocuments returns all document records, newest first.
	ListDocuments(ctx context.Context) ([]domain.DocumentRecord, error)
}
