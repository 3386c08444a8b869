package driven

import (
	"context"

	"github.com/custodia-labs/lexchat/internal/core/domain"
)

// ChunkInput is an unembedded chunk handed to the vector index.
type ChunkInput struct {
	// Content is the chunk text.
	Content string

	// DocumentID links to the source document record.
	DocumentID string

	// Position is the 0-based ordinal within the source document.
	Position int
}

// VectorIndex is the persistent chunk store with nearest-neighbour search.
// The index owns its chunks exclusively after insertion; there is no
// update or delete operation.
//
// The index is a single shared, mutable resource. Implementations must
// serialize writers so two concurrent Insert calls cannot interleave
// their persist steps, and Search must observe either the pre- or
// post-state of an in-flight Insert, never a partial write.
type VectorIndex interface {
	// Insert embeds each chunk's content, appends the resulting chunks
	// and durably persists them before returning. A crash after Insert
	// returns must not lose the inserted chunks.
	Insert(ctx context.Context, chunks []ChunkInput) error

	// Search embeds the query, scores it against every stored chunk and
	// returns the top k by descending cosine similarity. Sentinel
	// placeholder chunks are excluded from results.
	Search(ctx context.Context, query string, k int) (domain.RetrievalResult, error)

	// Count returns the number of live (non-sentinel) chunks.
	Count() int

	// Close releases resources.
	Close() error
}
