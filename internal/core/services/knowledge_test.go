package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexchat/internal/core/domain"
)

// stubChunker returns a fixed split regardless of input.
type stubChunker struct {
	pieces []string
}

func (c *stubChunker) Split(text string) []string {
	if text == "" {
		return nil
	}
	return c.pieces
}

// stubExtractor returns fixed text and records what it was given.
type stubExtractor struct {
	text    string
	err     error
	gotData []byte
	gotMIME string
}

func (e *stubExtractor) Extract(_ context.Context, data []byte, mimeType string) (string, error) {
	e.gotData = data
	e.gotMIME = mimeType
	if e.err != nil {
		return "", e.err
	}
	return e.text, nil
}

func (e *stubExtractor) SupportedMIMETypes() []string { return []string{"application/pdf"} }

// memoryDocStore collects saved document records.
type memoryDocStore struct {
	records []domain.DocumentRecord
}

func (s *memoryDocStore) SaveDocument(_ context.Context, rec domain.DocumentRecord) error {
	s.records = append(s.records, rec)
	return nil
}

func (s *memoryDocStore) ListDocuments(context.Context) ([]domain.DocumentRecord, error) {
	return s.records, nil
}

func TestIngest_EmptyText(t *testing.T) {
	index := &stubIndex{}
	svc := NewKnowledgeService(&stubChunker{}, index, nil, nil)

	_, err := svc.Ingest(context.Background(), "  \n ")

	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, index.inserted)
}

func TestIngest_ChunksGetSequentialPositions(t *testing.T) {
	index := &stubIndex{}
	svc := NewKnowledgeService(&stubChunker{pieces: []string{"alpha", "beta", "gamma"}}, index, nil, nil)

	result, err := svc.Ingest(context.Background(), "some document text")

	require.NoError(t, err)
	assert.Equal(t, 3, result.ChunkCount)
	require.Len(t, index.inserted, 3)

	docID := index.inserted[0].DocumentID
	require.NotEmpty(t, docID)
	for i, chunk := range index.inserted {
		assert.Equal(t, i, chunk.Position)
		assert.Equal(t, docID, chunk.DocumentID)
	}
	assert.Equal(t, "alpha", index.inserted[0].Content)
	assert.Equal(t, "gamma", index.inserted[2].Content)
}

func TestIngestFile_PlainTextPassesThrough(t *testing.T) {
	index := &stubIndex{}
	docs := &memoryDocStore{}
	svc := NewKnowledgeService(&stubChunker{pieces: []string{"only chunk"}}, index, docs, nil)

	data := []byte("plain text body")
	result, err := svc.IngestFile(context.Background(), "user-1", "notes.txt", "text/plain", data)

	require.NoError(t, err)
	assert.Equal(t, 1, result.ChunkCount)

	require.Len(t, docs.records, 1)
	rec := docs.records[0]
	assert.Equal(t, "user-1", rec.UserID)
	assert.Equal(t, "notes.txt", rec.Filename)
	assert.Equal(t, "text/plain", rec.FileType)
	assert.Equal(t, int64(len(data)), rec.FileSize)
	assert.Equal(t, 1, rec.ChunkCount)
	assert.Equal(t, "indexed", rec.Status)
	assert.Equal(t, index.inserted[0].DocumentID, rec.ID)
}

func TestIngestFile_PDFUsesExtractor(t *testing.T) {
	extractor := &stubExtractor{text: "extracted pdf text"}
	index := &stubIndex{}
	svc := NewKnowledgeService(&stubChunker{pieces: []string{"extracted pdf text"}}, index, nil, extractor)

	data := []byte("%PDF-1.4 fake")
	_, err := svc.IngestFile(context.Background(), "user-1", "law.pdf", "application/pdf", data)

	require.NoError(t, err)
	assert.Equal(t, data, extractor.gotData)
	assert.Equal(t, "application/pdf", extractor.gotMIME)
	require.Len(t, index.inserted, 1)
	assert.Equal(t, "extracted pdf text", index.inserted[0].Content)
}

func TestIngestFile_PDFWithoutExtractor(t *testing.T) {
	svc := NewKnowledgeService(&stubChunker{pieces: []string{"x"}}, &stubIndex{}, nil, nil)

	_, err := svc.IngestFile(context.Background(), "user-1", "law.pdf", "application/pdf", []byte("x"))

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIngestFile_UnsupportedType(t *testing.T) {
	index := &stubIndex{}
	svc := NewKnowledgeService(&stubChunker{pieces: []string{"x"}}, index, nil, &stubExtractor{})

	_, err := svc.IngestFile(context.Background(), "user-1", "sheet.xlsx",
		"application/vnd.ms-excel", []byte("binary"))

	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, index.inserted)
}
