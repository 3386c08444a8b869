// Package sqlite implements the vector index as a single on-disk SQLite
// artifact with a resident in-memory copy for similarity search.
//
// The file is the durable snapshot: every Insert commits its chunks in
// one transaction before returning, so a crash after Insert returns
// cannot lose them. Search runs against the resident copy and sees
// either the pre- or post-state of an in-flight Insert, never a partial
// write.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/lexchat/internal/core/domain"
	"github.com/custodia-labs/lexchat/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// sentinelContent is the placeholder chunk text inserted into a freshly
// created index so similarity search never runs against a structurally
// empty index.
const sentinelContent = "Start of index"

// Index is a persistent vector index. Chunks are embedded on insert,
// stored as exact little-endian float32 blobs and scored by cosine
// similarity against the resident copy.
type Index struct {
	db       *sql.DB
	path     string
	embedder driven.EmbeddingService

	// writeMu serializes the whole embed-append-persist cycle so two
	// concurrent Inserts cannot interleave their persist steps.
	writeMu sync.Mutex

	// mu guards the resident chunks for concurrent Search.
	mu     sync.RWMutex
	chunks []domain.Chunk
}

// Open loads the index from the given file, creating it if absent.
// A fresh index receives one sentinel placeholder chunk. A file that
// cannot be read back, or whose recorded dimensionality does not match
// the embedder's, is a fatal error: the index never silently falls back
// to empty, since that would discard prior ingestion work.
func Open(path string, embedder driven.EmbeddingService) (*Index, error) {
	if embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening index database: %w", err)
	}

	idx := &Index{
		db:       db,
		path:     path,
		embedder: embedder,
	}

	if err := idx.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	if err := idx.checkDimensions(); err != nil {
		db.Close()
		return nil, err
	}
	if err := idx.loadChunks(); err != nil {
		db.Close()
		return nil, err
	}
	if len(idx.chunks) == 0 {
		if err := idx.insertSentinel(); err != nil {
			db.Close()
			return nil, err
		}
	}

	return idx, nil
}

// Path returns the index file path.
func (idx *Index) Path() string {
	return idx.path
}

// Close closes the underlying database.
func (idx *Index) Close() error {
	return idx.db.Close()
}

// Insert embeds the chunk texts, persists them in a single transaction
// and then publishes them to the resident copy. The chunks are durable
// once Insert returns.
func (idx *Index) Insert(ctx context.Context, inputs []driven.ChunkInput) error {
	if len(inputs) == 0 {
		return nil
	}

	idx.writeMu.Lock()
	defer idx.writeMu.Unlock()

	texts := make([]string, len(inputs))
	for i, in := range inputs {
		texts[i] = in.Content
	}

	vectors, err := idx.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding chunks: %w", err)
	}
	if len(vectors) != len(inputs) {
		return fmt.Errorf("embedding chunks: got %d vectors for %d chunks", len(vectors), len(inputs))
	}

	chunks := make([]domain.Chunk, len(inputs))
	for i, in := range inputs {
		if len(vectors[i]) != idx.embedder.Dimensions() {
			return fmt.Errorf("%w: chunk vector has %d dimensions, index expects %d",
				domain.ErrDimensionMismatch, len(vectors[i]), idx.embedder.Dimensions())
		}
		chunks[i] = domain.Chunk{
			ID:         uuid.New().String(),
			DocumentID: in.DocumentID,
			Content:    in.Content,
			Position:   in.Position,
			Embedding:  vectors[i],
		}
	}

	if err := idx.persist(ctx, chunks); err != nil {
		return err
	}

	idx.mu.Lock()
	idx.chunks = append(idx.chunks, chunks...)
	idx.mu.Unlock()

	return nil
}

// Search embeds the query and returns the k most similar chunks by
// descending cosine similarity. Ties keep insertion order. Sentinel
// placeholder chunks are filtered out, so a freshly initialized index
// returns no results rather than failing.
func (idx *Index) Search(ctx context.Context, query string, k int) (domain.RetrievalResult, error) {
	if k <= 0 {
		return domain.RetrievalResult{}, nil
	}

	vector, err := idx.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(vector) != idx.embedder.Dimensions() {
		return nil, fmt.Errorf("%w: query vector has %d dimensions, index expects %d",
			domain.ErrDimensionMismatch, len(vector), idx.embedder.Dimensions())
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	scored := make(domain.RetrievalResult, 0, len(idx.chunks))
	for _, chunk := range idx.chunks {
		if chunk.IsSentinel() {
			continue
		}
		scored = append(scored, domain.RetrievedChunk{
			Chunk: chunk,
			Score: cosineSimilarity(vector, chunk.Embedding),
		})
	}

	// Stable sort keeps insertion order for equal scores.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// Count returns the number of live (non-sentinel) chunks.
func (idx *Index) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	count := 0
	for _, chunk := range idx.chunks {
		if !chunk.IsSentinel() {
			count++
		}
	}
	return count
}

// initSchema creates the tables on first open.
func (idx *Index) initSchema() error {
	_, err := idx.db.Exec(`
		CREATE TABLE IF NOT EXISTS index_meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS chunks (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			document_id TEXT NOT NULL,
			content TEXT NOT NULL,
			position INTEGER NOT NULL,
			embedding BLOB NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("%w: creating schema: %v", domain.ErrIndexCorrupted, err)
	}
	return nil
}

// checkDimensions records the embedder's dimensionality on first open
// and rejects a mismatch on every later one. Mixing dimensionalities in
// one index is a fatal configuration error.
func (idx *Index) checkDimensions() error {
	want := idx.embedder.Dimensions()

	var recorded int
	row := idx.db.QueryRow(`SELECT value FROM index_meta WHERE key = 'dimensions'`)
	switch err := row.Scan(&recorded); {
	case err == sql.ErrNoRows:
		_, err := idx.db.Exec(`INSERT INTO index_meta (key, value) VALUES ('dimensions', ?)`, want)
		if err != nil {
			return fmt.Errorf("%w: recording dimensions: %v", domain.ErrIndexCorrupted, err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("%w: reading dimensions: %v", domain.ErrIndexCorrupted, err)
	}

	if recorded != want {
		return fmt.Errorf("%w: index has %d dimensions, embedding model %q produces %d",
			domain.ErrDimensionMismatch, recorded, idx.embedder.ModelName(), want)
	}
	return nil
}

// loadChunks reads the full persisted state into the resident copy.
func (idx *Index) loadChunks() error {
	rows, err := idx.db.Query(`
		SELECT id, document_id, content, position, embedding
		FROM chunks ORDER BY seq
	`)
	if err != nil {
		return fmt.Errorf("%w: querying chunks: %v", domain.ErrIndexCorrupted, err)
	}
	defer rows.Close()

	want := idx.embedder.Dimensions()
	var chunks []domain.Chunk
	for rows.Next() {
		var chunk domain.Chunk
		var blob []byte
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Content, &chunk.Position, &blob); err != nil {
			return fmt.Errorf("%w: scanning chunk: %v", domain.ErrIndexCorrupted, err)
		}
		if len(blob) != want*4 {
			return fmt.Errorf("%w: chunk %s has a %d-byte embedding, expected %d",
				domain.ErrIndexCorrupted, chunk.ID, len(blob), want*4)
		}
		chunk.Embedding = bytesToFloat32Slice(blob)
		chunks = append(chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: iterating chunks: %v", domain.ErrIndexCorrupted, err)
	}

	idx.chunks = chunks
	return nil
}

// insertSentinel seeds a fresh index with the placeholder chunk.
func (idx *Index) insertSentinel() error {
	vector, err := idx.embedder.Embed(context.Background(), sentinelContent)
	if err != nil {
		return fmt.Errorf("embedding sentinel: %w", err)
	}

	sentinel := domain.Chunk{
		ID:         uuid.New().String(),
		DocumentID: domain.SentinelDocumentID,
		Content:    sentinelContent,
		Position:   0,
		Embedding:  vector,
	}
	if err := idx.persist(context.Background(), []domain.Chunk{sentinel}); err != nil {
		return err
	}

	idx.chunks = []domain.Chunk{sentinel}
	return nil
}

// persist writes chunks to the artifact in one transaction.
func (idx *Index) persist(ctx context.Context, chunks []domain.Chunk) error {
	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, content, position, embedding)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		blob := float32SliceToBytes(chunk.Embedding)
		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.DocumentID,
			chunk.Content, chunk.Position, blob); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Zero-norm vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
