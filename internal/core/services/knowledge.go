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

// Ensure KnowledgeService implements the interface.
var _ driving.KnowledgeService = (*KnowledgeService)(nil)

// mimePDF is the only binary upload format the ingestion path accepts.
const mimePDF = "application/pdf"

// KnowledgeService ingests document text into the vector index:
// split into chunks, embed, durably persist. Returns only once the index
// has been persisted.
type KnowledgeService struct {
	chunker   driven.Chunker
	index     driven.VectorIndex
	docStore  driven.DocumentStore
	extractor driven.Extractor
}

// NewKnowledgeService creates a new knowledge service.
// docStore and extractor are optional: without a docStore no bookkeeping
// records are written, and without an extractor only plain text can be
// ingested via IngestFile.
func NewKnowledgeService(
	chunker driven.Chunker,
	index driven.VectorIndex,
	docStore driven.DocumentStore,
	extractor driven.Extractor,
) *KnowledgeService {
	return &KnowledgeService{
		chunker:   chunker,
		index:     index,
		docStore:  docStore,
		extractor: extractor,
	}
}

// Ingest splits text into chunks and inserts them into the vector index.
// The call is synchronous: it returns once the new chunks are durable.
func (s *KnowledgeService) Ingest(ctx context.Context, text string) (*driving.IngestResult, error) {
	result, _, err := s.ingest(ctx, text)
	return result, err
}

// ingest is the shared implementation; it also returns the generated
// document ID so IngestFile can link its bookkeeping record.
func (s *KnowledgeService) ingest(ctx context.Context, text string) (*driving.IngestResult, string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, "", fmt.Errorf("%w: empty document text", domain.ErrInvalidInput)
	}

	logger.Section("Ingestion")

	documentID := uuid.New().String()
	pieces := s.chunker.Split(text)
	if len(pieces) == 0 {
		return nil, "", fmt.Errorf("%w: document produced no chunks", domain.ErrInvalidInput)
	}
	logger.Debug("Document %s: %d chunks", documentID, len(pieces))

	chunks := make([]driven.ChunkInput, len(pieces))
	for i, piece := range pieces {
		chunks[i] = driven.ChunkInput{
			Content:    piece,
			DocumentID: documentID,
			Position:   i,
		}
	}

	if err := s.index.Insert(ctx, chunks); err != nil {
		return nil, "", fmt.Errorf("inserting chunks: %w", err)
	}

	logger.Info("Added %d chunks to knowledge base", len(chunks))
	return &driving.IngestResult{ChunkCount: len(chunks)}, documentID, nil
}

// IngestFile extracts text from an uploaded file, ingests it and records
// a document bookkeeping entry.
func (s *KnowledgeService) IngestFile(
	ctx context.Context, userID, filename, mimeType string, data []byte,
) (*driving.IngestResult, error) {
	text, err := s.extractText(ctx, mimeType, data)
	if err != nil {
		return nil, err
	}

	result, documentID, err := s.ingest(ctx, text)
	if err != nil {
		return nil, err
	}

	if s.docStore != nil {
		rec := domain.DocumentRecord{
			ID:         documentID,
			UserID:     userID,
			Filename:   filename,
			FileType:   mimeType,
			FileSize:   int64(len(data)),
			ChunkCount: result.ChunkCount,
			Status:     "indexed",
			CreatedAt:  time.Now().UTC(),
		}
		if err := s.docStore.SaveDocument(ctx, rec); err != nil {
			// The chunks are already durable; a lost record only costs
			// bookkeeping, so surface the error without unwinding.
			return nil, fmt.Errorf("saving document record: %w", err)
		}
	}

	return result, nil
}

// extractText turns upload bytes into plain text based on MIME type.
func (s *KnowledgeService) extractText(ctx context.Context, mimeType string, data []byte) (string, error) {
	switch {
	case strings.HasPrefix(mimeType, "text/"):
		return string(data), nil
	case mimeType == mimePDF:
		if s.extractor == nil {
			return "", fmt.Errorf("%w: no PDF extractor configured", domain.ErrInvalidInput)
		}
		text, err := s.extractor.Extract(ctx, data, mimeType)
		if err != nil {
			return "", fmt.Errorf("extracting PDF text: %w", err)
		}
		return text, nil
	default:
		return "", fmt.Errorf("%w: unsupported file type %q", domain.ErrInvalidInput, mimeType)
	}
}
