package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/lexchat/internal/core/domain"
	"github.com/custodia-labs/lexchat/internal/core/ports/driven"
	"github.com/custodia-labs/lexchat/internal/core/ports/driving"
	"github.com/custodia-labs/lexchat/internal/logger"
)

// Ensure RAGService implements the interface.
var _ driving.AnswerService = (*RAGService)(nil)

// Pipeline defaults.
const (
	// DefaultTopK is how many chunks retrieval returns per query.
	DefaultTopK = 4

	// DefaultHistoryWindow is how many prior turns reach the language
	// model. Unbounded history is never passed; the window bounds prompt
	// size and cost.
	DefaultHistoryWindow = 10
)

// RAGService runs the history-aware retrieval-augmented generation
// pipeline: REWRITING -> RETRIEVING -> GENERATING. Each invocation is
// independent and stateless except for the shared vector index; a stage
// failure aborts the remaining stages with no partial-answer fallback.
type RAGService struct {
	index   driven.VectorIndex
	llm     driven.LLMService
	topK    int
	window  int
	persona string
}

// RAGOption configures the RAG service.
type RAGOption func(*RAGService)

// WithTopK sets how many chunks retrieval returns.
func WithTopK(k int) RAGOption {
	return func(s *RAGService) {
		if k > 0 {
			s.topK = k
		}
	}
}

// WithHistoryWindow sets how many prior turns reach the language model.
func WithHistoryWindow(n int) RAGOption {
	return func(s *RAGService) {
		if n > 0 {
			s.window = n
		}
	}
}

// WithPersona sets the assistant persona and corpus description used in
// the generation prompt and the refusal sentence.
func WithPersona(persona string) RAGOption {
	return func(s *RAGService) {
		if persona != "" {
			s.persona = persona
		}
	}
}

// NewRAGService creates a new RAG service.
func NewRAGService(index driven.VectorIndex, llm driven.LLMService, opts ...RAGOption) *RAGService {
	s := &RAGService{
		index:   index,
		llm:     llm,
		topK:    DefaultTopK,
		window:  DefaultHistoryWindow,
		persona: DefaultPersona,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Answer runs the pipeline for one user turn. history holds only prior
// turns, never the in-flight utterance.
func (s *RAGService) Answer(ctx context.Context, utterance string, history []domain.Turn) (string, error) {
	if strings.TrimSpace(utterance) == "" {
		return "", fmt.Errorf("%w: empty utterance", domain.ErrInvalidInput)
	}
	if s.llm == nil {
		return "", domain.ErrLLMUnavailable
	}
	if s.index == nil {
		return "", domain.ErrEmbeddingUnavailable
	}

	window := capHistory(history, s.window)

	logger.Section("RAG Pipeline")
	logger.Debug("Utterance: %q", utterance)
	logger.Debug("History: %d turns (%d after capping)", len(history), len(window))

	standalone, err := s.rewrite(ctx, utterance, window)
	if err != nil {
		return "", domain.NewPipelineError(domain.StageRewriting, err)
	}
	logger.Info("Standalone query: %q", standalone)

	context, err := s.Retrieve(ctx, standalone)
	if err != nil {
		return "", domain.NewPipelineError(domain.StageRetrieving, err)
	}
	logger.Debug("Retrieved %d chunks", len(context))

	answer, err := s.generate(ctx, utterance, window, context)
	if err != nil {
		return "", domain.NewPipelineError(domain.StageGenerating, err)
	}
	logger.Debug("Answer: %d chars", len(answer))

	return answer, nil
}

// Retrieve embeds the query and returns the top-k most similar chunks.
// It is a pass-through to the vector index with the configured k.
func (s *RAGService) Retrieve(ctx context.Context, query string) (domain.RetrievalResult, error) {
	return s.index.Search(ctx, query, s.topK)
}

// rewrite turns the utterance plus prior turns into a standalone query.
// With empty history the model naturally returns the utterance itself;
// that is not a special case.
func (s *RAGService) rewrite(ctx context.Context, utterance string, history []domain.Turn) (string, error) {
	messages := make([]driven.ChatMessage, 0, len(history)+2)
	messages = append(messages, driven.ChatMessage{Role: driven.ChatRoleSystem, Content: rewriteInstruction})
	messages = append(messages, historyMessages(history)...)
	messages = append(messages, driven.ChatMessage{Role: driven.ChatRoleUser, Content: utterance})

	result, err := s.llm.Chat(ctx, messages, driven.ChatOptions{MaxTokens: 256})
	if err != nil {
		return "", fmt.Errorf("rewrite query: %w", err)
	}

	result = strings.TrimSpace(result)
	if result == "" {
		// A blank rewrite would retrieve nothing useful; fall back to
		// the original utterance rather than searching for "".
		return utterance, nil
	}
	return result, nil
}

// generate produces the grounded answer from the retrieved context, the
// prior turns and the original utterance.
func (s *RAGService) generate(
	ctx context.Context, utterance string, history []domain.Turn, context domain.RetrievalResult,
) (string, error) {
	messages := make([]driven.ChatMessage, 0, len(history)+2)
	messages = append(messages, driven.ChatMessage{
		Role:    driven.ChatRoleSystem,
		Content: answerInstruction(s.persona, context),
	})
	messages = append(messages, historyMessages(history)...)
	messages = append(messages, driven.ChatMessage{Role: driven.ChatRoleUser, Content: utterance})

	result, err := s.llm.Chat(ctx, messages, driven.ChatOptions{MaxTokens: 1024})
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}

	return strings.TrimSpace(result), nil
}

// capHistory keeps the most recent limit turns.
func capHistory(history []domain.Turn, limit int) []domain.Turn {
	if len(history) <= limit {
		return history
	}
	return history[len(history)-limit:]
}
