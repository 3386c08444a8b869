package domain

import "time"

// Role identifies the author of a conversation turn.
type Role string

// Conversation roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsValid returns true if the role is recognised.
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Turn is a single prior conversation turn passed into the RAG pipeline.
// The pipeline treats turns as values and never mutates them.
type Turn struct {
	// Role is who produced the turn.
	Role Role

	// Content is the turn text.
	Content string

	// Timestamp is when the turn was persisted.
	Timestamp time.Time
}

// Chat is a conversation session owned by a user.
type Chat struct {
	// ID is the unique identifier for the chat.
	ID string

	// UserID is the owning account.
	UserID string

	// Title is the display title. New chats start as "New Chat" and are
	// retitled from the first user message.
	Title string

	// CreatedAt is when the chat was created.
	CreatedAt time.Time

	// UpdatedAt is when the chat last received a message.
	UpdatedAt time.Time
}

// DefaultChatTitle is the title given to a chat before its first message.
const DefaultChatTitle = "New Chat"

// Message is a persisted conversation turn within a chat.
type Message struct {
	// ID is the unique identifier for the message.
	ID string

	// ChatID links to the parent chat.
	ChatID string

	// Role is who produced the message.
	Role Role

	// Content is the message text.
	Content string

	// Timestamp is when the message was persisted.
	Timestamp time.Time
}

// Turn converts a persisted message into a pipeline turn.
func (m Message) Turn() Turn {
	return Turn{Role: m.Role, Content: m.Content, Timestamp: m.Timestamp}
}

// User is a registered account.
type User struct {
	// ID is the unique identifier for the user.
	ID string

	// Email is the login identifier.
	Email string

	// PasswordHash is the bcrypt hash of the password.
	PasswordHash string

	// CreatedAt is when the account was registered.
	CreatedAt time.Time
}
