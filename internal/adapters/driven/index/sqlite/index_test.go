package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexchat/internal/core/domain"
	"github.com/custodia-labs/lexchat/internal/core/ports/driven"
)

// stubEmbedder produces deterministic bag-of-words vectors over a fixed
// vocabulary, so similarity rankings in tests are predictable.
type stubEmbedder struct {
	dims  int
	fail  bool
	calls int
}

var vocabulary = []string{"accountant", "audit", "tax", "penalty"}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if s.fail {
		return nil, errors.New("embedding service unavailable")
	}
	s.calls++
	vector := make([]float32, s.dims)
	lower := strings.ToLower(text)
	for i, word := range vocabulary {
		if i >= s.dims {
			break
		}
		vector[i] = float32(strings.Count(lower, word))
	}
	// A constant component keeps vectors from being all zero.
	vector[s.dims-1] += 0.1
	return vector, nil
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vector, err := s.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = vector
	}
	return vectors, nil
}

func (s *stubEmbedder) Dimensions() int              { return s.dims }
func (s *stubEmbedder) ModelName() string            { return "stub" }
func (s *stubEmbedder) Ping(_ context.Context) error { return nil }
func (s *stubEmbedder) Close() error                 { return nil }

var _ driven.EmbeddingService = (*stubEmbedder)(nil)

// setupTestIndex creates a temporary index file for testing.
func setupTestIndex(t *testing.T) (*Index, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "index.db")
	idx, err := Open(path, &stubEmbedder{dims: 5})
	require.NoError(t, err)
	require.NotNil(t, idx)
	t.Cleanup(func() { assert.NoError(t, idx.Close()) })

	return idx, path
}

func TestOpen_FreshIndex(t *testing.T) {
	idx, path := setupTestIndex(t)

	// The file exists on disk and the sentinel does not count as a
	// live chunk.
	_, err := os.Stat(path)
	assert.NoError(t, err)
	assert.Equal(t, 0, idx.Count())
}

func TestOpen_NilEmbedder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	_, err := Open(path, nil)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestSearch_EmptyIndex(t *testing.T) {
	idx, _ := setupTestIndex(t)

	result, err := idx.Search(context.Background(), "audit requirements", 4)
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestInsertAndSearch(t *testing.T) {
	idx, _ := setupTestIndex(t)
	ctx := context.Background()

	err := idx.Insert(ctx, []driven.ChunkInput{
		{Content: "audit audit audit procedures", DocumentID: "doc-1", Position: 0},
		{Content: "tax tax tax filing deadlines", DocumentID: "doc-1", Position: 1},
		{Content: "penalty penalty penalty provisions", DocumentID: "doc-1", Position: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, idx.Count())

	result, err := idx.Search(ctx, "audit", 2)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "audit audit audit procedures", result[0].Content)
	assert.GreaterOrEqual(t, result[0].Score, result[1].Score)
}

func TestSearch_KBound(t *testing.T) {
	idx, _ := setupTestIndex(t)
	ctx := context.Background()

	err := idx.Insert(ctx, []driven.ChunkInput{
		{Content: "tax law section one", DocumentID: "doc-1", Position: 0},
		{Content: "tax law section two", DocumentID: "doc-1", Position: 1},
	})
	require.NoError(t, err)

	// k larger than the live chunk count returns everything.
	result, err := idx.Search(ctx, "tax", 10)
	require.NoError(t, err)
	assert.Len(t, result, 2)

	// Zero k returns nothing without touching the embedder.
	result, err = idx.Search(ctx, "tax", 0)
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestSearch_FiltersSentinel(t *testing.T) {
	idx, _ := setupTestIndex(t)
	ctx := context.Background()

	err := idx.Insert(ctx, []driven.ChunkInput{
		{Content: "tax provisions", DocumentID: "doc-1", Position: 0},
	})
	require.NoError(t, err)

	result, err := idx.Search(ctx, "tax", 10)
	require.NoError(t, err)
	require.Len(t, result, 1)
	for _, retrieved := range result {
		assert.NotEqual(t, domain.SentinelDocumentID, retrieved.DocumentID)
	}
}

func TestInsert_EmptyBatch(t *testing.T) {
	idx, _ := setupTestIndex(t)
	assert.NoError(t, idx.Insert(context.Background(), nil))
	assert.Equal(t, 0, idx.Count())
}

func TestInsert_EmbedderFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	embedder := &stubEmbedder{dims: 5}
	idx, err := Open(path, embedder)
	require.NoError(t, err)
	defer idx.Close()

	embedder.fail = true
	err = idx.Insert(context.Background(), []driven.ChunkInput{
		{Content: "audit rules", DocumentID: "doc-1", Position: 0},
	})
	assert.Error(t, err)
	assert.Equal(t, 0, idx.Count())
}

func TestPersistence_Roundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	ctx := context.Background()

	idx, err := Open(path, &stubEmbedder{dims: 5})
	require.NoError(t, err)

	err = idx.Insert(ctx, []driven.ChunkInput{
		{Content: "audit requirements under tax law", DocumentID: "doc-1", Position: 0},
		{Content: "penalty for late filing", DocumentID: "doc-1", Position: 1},
	})
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	// A fresh instance over the same file sees the same chunks and
	// ranks them the same way.
	reopened, err := Open(path, &stubEmbedder{dims: 5})
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, 2, reopened.Count())

	result, err := reopened.Search(ctx, "audit", 1)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "audit requirements under tax law", result[0].Content)
	assert.Equal(t, 0, result[0].Position)
}

func TestSearch_TiesKeepInsertionOrder(t *testing.T) {
	idx, _ := setupTestIndex(t)
	ctx := context.Background()

	// Identical content embeds identically, so the scores tie exactly
	// and the first-inserted chunk must win.
	err := idx.Insert(ctx, []driven.ChunkInput{
		{Content: "tax audit", DocumentID: "doc-1", Position: 0},
		{Content: "tax audit", DocumentID: "doc-2", Position: 0},
	})
	require.NoError(t, err)

	result, err := idx.Search(ctx, "tax audit", 2)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, result[0].Score, result[1].Score)
	assert.Equal(t, "doc-1", result[0].DocumentID)
	assert.Equal(t, "doc-2", result[1].DocumentID)
}

func TestOpen_GarbageFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	require.NoError(t, os.WriteFile(path, []byte("this is not an index artifact"), 0600))

	_, err := Open(path, &stubEmbedder{dims: 5})
	assert.ErrorIs(t, err, domain.ErrIndexCorrupted)
}

func TestOpen_TruncatedEmbedding(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	ctx := context.Background()

	idx, err := Open(path, &stubEmbedder{dims: 5})
	require.NoError(t, err)
	err = idx.Insert(ctx, []driven.ChunkInput{
		{Content: "tax audit rules", DocumentID: "doc-1", Position: 0},
	})
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	// Shear the stored vector down to four bytes.
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE chunks SET embedding = X'01020304' WHERE document_id = 'doc-1'`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// The damaged artifact is fatal on open, never an empty fallback.
	_, err = Open(path, &stubEmbedder{dims: 5})
	assert.ErrorIs(t, err, domain.ErrIndexCorrupted)
}

func TestOpen_DimensionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")

	idx, err := Open(path, &stubEmbedder{dims: 5})
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	// Reopening with a different embedding dimensionality is fatal,
	// not a silent reset.
	_, err = Open(path, &stubEmbedder{dims: 8})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 2, 3}, []float32{2, 4, 6}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, cosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Equal(t, 0.0, cosineSimilarity([]float32{0, 0}, []float32{1, 1}))
}

func TestFloat32BlobRoundtrip(t *testing.T) {
	original := []float32{0.1, -2.5, float32(math.Pi), 0}
	assert.Equal(t, original, bytesToFloat32Slice(float32SliceToBytes(original)))
	assert.Nil(t, float32SliceToBytes(nil))
	assert.Nil(t, bytesToFloat32Slice(nil))
}
