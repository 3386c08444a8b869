package driving

import (
	"context"

	"github.com/custodia-labs/lexchat/internal/core/domain"
)

// AnswerService runs the history-aware RAG pipeline for one user turn.
type AnswerService interface {
	// Answer rewrites the utterance into a standalone query using the
	// prior turns, retrieves context for it and generates a grounded
	// answer. history contains only prior turns, never the in-flight
	// utterance, and is capped to a recent window before it reaches the
	// language model.
	//
	// External failures surface as *domain.PipelineError tagged with the
	// stage that failed. A grounding refusal is a normal return value,
	// not an error.
	Answer(ctx context.Context, utterance string, history []domain.Turn) (string, error)
}

// IngestResult reports the outcome of a document ingestion.
type IngestResult struct {
	// ChunkCount is the number of chunks added to the vector index.
	ChunkCount int
}

// KnowledgeService ingests extracted document text into the vector index.
type KnowledgeService interface {
	// Ingest splits text into chunks, embeds them and durably persists
	// them before returning. Empty or whitespace-only text is rejected
	// with domain.ErrInvalidInput before any external call.
	Ingest(ctx context.Context, text string) (*IngestResult, error)

	// IngestFile extracts text from an uploaded file, ingests it and
	// records a DocumentRecord for bookkeeping.
	IngestFile(ctx context.Context, userID, filename, mimeType string, data []byte) (*IngestResult, error)
}
