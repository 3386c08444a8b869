package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/lexchat/internal/core/domain"
	"github.com/custodia-labs/lexchat/internal/core/ports/driven"
	"github.com/custodia-labs/lexchat/internal/core/ports/driving"
	"github.com/custodia-labs/lexchat/internal/logger"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

// titleLimit caps how much of the first message becomes the chat title.
const titleLimit = 30

// ChatService persists conversation turns and drives the RAG pipeline
// for each incoming user message.
type ChatService struct {
	store  driven.ChatStore
	answer driving.AnswerService
	window int
}

// NewChatService creates a new chat service. window bounds how many
// persisted turns are replayed into the pipeline per message.
func NewChatService(store driven.ChatStore, answer driving.AnswerService, window int) *ChatService {
	if window <= 0 {
		window = DefaultHistoryWindow
	}
	return &ChatService{store: store, answer: answer, window: window}
}

// CreateChat starts a new chat for the user.
func (s *ChatService) CreateChat(ctx context.Context, userID string) (*domain.Chat, error) {
	now := time.Now().UTC()
	chat := domain.Chat{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     domain.DefaultChatTitle,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.SaveChat(ctx, chat); err != nil {
		return nil, fmt.Errorf("saving chat: %w", err)
	}
	return &chat, nil
}

// GetChat retrieves a chat, enforcing ownership. A chat belonging to a
// different user is reported as not found.
func (s *ChatService) GetChat(ctx context.Context, userID, chatID string) (*domain.Chat, error) {
	chat, err := s.store.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if chat.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return chat, nil
}

// ListChats returns the user's chats, most recently updated first.
func (s *ChatService) ListChats(ctx context.Context, userID string) ([]domain.Chat, error) {
	return s.store.ListChats(ctx, userID)
}

// ListMessages returns a chat's messages in chronological order.
func (s *ChatService) ListMessages(ctx context.Context, userID, chatID string) ([]domain.Message, error) {
	if _, err := s.GetChat(ctx, userID, chatID); err != nil {
		return nil, err
	}
	return s.store.ListMessages(ctx, chatID)
}

// SendMessage persists the user's utterance, runs the pipeline over the
// chat's recent prior turns and persists the assistant's reply. If the
// pipeline fails, no assistant turn is persisted and the error carries
// its stage tag; retrying is the caller's decision.
func (s *ChatService) SendMessage(ctx context.Context, userID, chatID, content string) (*domain.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: empty message", domain.ErrInvalidInput)
	}

	chat, err := s.GetChat(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	userMsg := domain.Message{
		ID:        uuid.New().String(),
		ChatID:    chat.ID,
		Role:      domain.RoleUser,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
	if err := s.store.SaveMessage(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("saving user message: %w", err)
	}

	history, err := s.priorTurns(ctx, chat.ID, userMsg.ID)
	if err != nil {
		return nil, err
	}

	answerText, err := s.answer.Answer(ctx, content, history)
	if err != nil {
		return nil, err
	}

	assistantMsg := domain.Message{
		ID:        uuid.New().String(),
		ChatID:    chat.ID,
		Role:      domain.RoleAssistant,
		Content:   answerText,
		Timestamp: time.Now().UTC(),
	}
	if err := s.store.SaveMessage(ctx, assistantMsg); err != nil {
		return nil, fmt.Errorf("saving assistant message: %w", err)
	}

	if err := s.touchChat(ctx, *chat, content, assistantMsg.Timestamp); err != nil {
		logger.Warn("Updating chat metadata failed: %v", err)
	}

	return &assistantMsg, nil
}

// priorTurns builds the pipeline history window: the chat's most recent
// persisted turns, excluding the in-flight utterance itself.
func (s *ChatService) priorTurns(ctx context.Context, chatID, inFlightID string) ([]domain.Turn, error) {
	// Fetch one extra so the window is still full after dropping the
	// in-flight message.
	messages, err := s.store.ListRecentMessages(ctx, chatID, s.window+1)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}

	turns := make([]domain.Turn, 0, len(messages))
	for _, msg := range messages {
		if msg.ID == inFlightID {
			continue
		}
		turns = append(turns, msg.Turn())
	}
	if len(turns) > s.window {
		turns = turns[len(turns)-s.window:]
	}
	return turns, nil
}

// touchChat bumps UpdatedAt and retitles a fresh chat from its first
// user message.
func (s *ChatService) touchChat(ctx context.Context, chat domain.Chat, firstMessage string, at time.Time) error {
	if chat.Title == domain.DefaultChatTitle {
		title := firstMessage
		// Truncate on a rune boundary so multi-byte text is not severed.
		if runes := []rune(title); len(runes) > titleLimit {
			title = string(runes[:titleLimit]) + "..."
		}
		chat.Title = title
	}
	chat.UpdatedAt = at
	return s.store.SaveChat(ctx, chat)
}
