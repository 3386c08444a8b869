package domain

import "time"

// SentinelDocumentID marks the placeholder chunk inserted into a freshly
// created vector index so similarity search never runs against a
// structurally empty index. Sentinel chunks are filtered out of
// retrieval results.
const SentinelDocumentID = "__sentinel__"

// Chunk is an embedded fragment of an ingested document and the unit of
// retrieval. Chunks are immutable once inserted into the vector index.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the DocumentRecord the chunk was split from.
	DocumentID string

	// Content is the chunk text.
	Content string

	// Position is the 0-based ordinal within the source document.
	// Positions are strictly increasing with no gaps, so adjacent
	// chunks can be stitched back together downstream.
	Position int

	// Embedding is the vector representation. Its length always equals
	// the embedding model's output dimensionality.
	Embedding []float32
}

// IsSentinel reports whether the chunk is the empty-index placeholder.
func (c Chunk) IsSentinel() bool {
	return c.DocumentID == SentinelDocumentID
}

// RetrievedChunk pairs a chunk with its similarity score for one query.
type RetrievedChunk struct {
	Chunk

	// Score is the cosine similarity against the query vector (-1..1).
	Score float64
}

// RetrievalResult is the ranked output of a similarity search:
// descending score, ties broken by insertion order, length <= k.
type RetrievalResult []RetrievedChunk

// Texts returns the chunk contents in rank order.
func (r RetrievalResult) Texts() []string {
	texts := make([]string, len(r))
	for i := range r {
		texts[i] = r[i].Chunk.Content
	}
	return texts
}

// DocumentRecord is bookkeeping metadata about an ingested document.
// The document text itself lives in the vector index as chunks; the
// record only tracks provenance.
type DocumentRecord struct {
	// ID is the unique identifier for the record.
	ID string

	// UserID is the account that uploaded the document.
	UserID string

	// Filename is the original upload filename.
	Filename string

	// FileType is the MIME type of the upload.
	FileType string

	// FileSize is the upload size in bytes.
	FileSize int64

	// ChunkCount is how many chunks the document produced.
	ChunkCount int

	// Status is the ingestion status ("indexed").
	Status string

	// CreatedAt is when the document was ingested.
	CreatedAt time.Time
}
