package index

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citeseek/citeseek/internal/log"
	"github.com/citeseek/citeseek/internal/testutil"
)

const testDims = 768

// unitVector returns a deterministic 768-dim unit vector whose dominant
// axis is idx, so cosine similarity orders chunks predictably.
func unitVector(idx int) []float32 {
	v := make([]float32, testDims)
	v[idx%testDims] = 1
	return v
}

func testChunk(id int, docID, section, contextType string, page int) Chunk {
	return Chunk{
		ChunkID:     fmt.Sprintf("%s-%04d", docID, id),
		DocID:       docID,
		Content:     fmt.Sprintf("Passage %d discusses revenue growth and operating margin trends.", id),
		PageStart:   page,
		PageEnd:     page,
		Section:     section,
		DocType:     "financial",
		Source:      docID + ".pdf",
		ContextType: contextType,
		Embedding:   unitVector(id),
	}
}

func TestStore_UpsertAndQueryDense_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	tdb, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	store := New(tdb.Pool, log.NewNop())

	chunks := []Chunk{
		testChunk(1, "doc-a", "Results", "text", 1),
		testChunk(2, "doc-a", "Results", "table", 2),
		testChunk(3, "doc-b", "Outlook", "text", 1),
	}
	require.NoError(t, store.UpsertChunks(ctx, "ns", chunks))

	// Query with the exact embedding of chunk 2; it must rank first with
	// similarity ~1.
	matches, err := store.QueryDense(ctx, "ns", unitVector(2), Filter{}, 10)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, "doc-a-0002", matches[0].ChunkID)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-6)
	assert.Equal(t, "doc-a", matches[0].Meta.DocID)
	assert.Equal(t, "table", matches[0].Meta.ContextType)

	// Namespace isolation.
	empty, err := store.QueryDense(ctx, "other-ns", unitVector(2), Filter{}, 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestStore_QueryDense_Filters_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	tdb, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	store := New(tdb.Pool, log.NewNop())

	require.NoError(t, store.UpsertChunks(ctx, "ns", []Chunk{
		testChunk(1, "doc-a", "Results", "text", 1),
		testChunk(2, "doc-a", "Outlook", "table", 5),
		testChunk(3, "doc-b", "Results", "text", 1),
	}))

	byDoc, err := store.QueryDense(ctx, "ns", unitVector(1), Filter{DocID: "doc-a"}, 10)
	require.NoError(t, err)
	require.Len(t, byDoc, 2)
	for _, m := range byDoc {
		assert.Equal(t, "doc-a", m.Meta.DocID)
	}

	bySection, err := store.QueryDense(ctx, "ns", unitVector(1), Filter{Section: "Outlook"}, 10)
	require.NoError(t, err)
	require.Len(t, bySection, 1)
	assert.Equal(t, "doc-a-0002", bySection[0].ChunkID)

	byPages, err := store.QueryDense(ctx, "ns", unitVector(1), Filter{PageStart: 4, PageEnd: 6}, 10)
	require.NoError(t, err)
	require.Len(t, byPages, 1)
	assert.Equal(t, 5, byPages[0].Meta.PageStart)

	byContext, err := store.QueryDense(ctx, "ns", unitVector(1), Filter{ContextTypes: []string{"table"}}, 10)
	require.NoError(t, err)
	require.Len(t, byContext, 1)
	assert.Equal(t, "table", byContext[0].Meta.ContextType)
}

func TestStore_QueryLexical_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	tdb, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	store := New(tdb.Pool, log.NewNop())

	chunks := []Chunk{
		{
			ChunkID: "doc-a-0001", DocID: "doc-a",
			Content:   "Quarterly revenue increased twelve percent year over year.",
			PageStart: 1, PageEnd: 1, DocType: "financial", Source: "doc-a.pdf",
			Embedding: unitVector(1),
		},
		{
			ChunkID: "doc-a-0002", DocID: "doc-a",
			Content:   "The board approved a new dividend policy.",
			PageStart: 2, PageEnd: 2, DocType: "financial", Source: "doc-a.pdf",
			Embedding: unitVector(2),
		},
	}
	require.NoError(t, store.UpsertChunks(ctx, "ns", chunks))

	matches, err := store.QueryLexical(ctx, "ns", "revenue increased", Filter{}, 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "doc-a-0001", matches[0].ChunkID)
	assert.Greater(t, matches[0].Score, 0.0)

	none, err := store.QueryLexical(ctx, "ns", "unrelated astronomy topic", Filter{}, 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStore_Documents_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	tdb, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	store := New(tdb.Pool, log.NewNop())

	require.NoError(t, store.UpsertChunks(ctx, "ns", []Chunk{
		testChunk(1, "doc-a", "Results", "text", 1),
		testChunk(2, "doc-a", "Results", "text", 2),
	}))
	require.NoError(t, store.RecordDocument(ctx, Document{
		DocID: "doc-a", Namespace: "ns", Filename: "doc-a.pdf",
		DocType: "financial", Pages: 2, ChunkCount: 2,
	}))
	require.NoError(t, store.RefreshStats(ctx, "ns"))

	docs, err := store.ListDocuments(ctx, "ns", 10)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "doc-a", docs[0].DocID)
	assert.Equal(t, 2, docs[0].ChunkCount)

	stats, err := store.Stats(ctx, "ns")
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.ChunkCount)
	assert.Greater(t, stats.AvgChunkLen, 0.0)

	// Delete removes chunks and refreshes stats back to zero.
	require.NoError(t, store.DeleteDocument(ctx, "ns", "doc-a"))

	docs, err = store.ListDocuments(ctx, "ns", 10)
	require.NoError(t, err)
	assert.Empty(t, docs)

	stats, err = store.Stats(ctx, "ns")
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.ChunkCount)
}

func TestStore_Stats_MissingNamespace_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	tdb, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	store := New(tdb.Pool, log.NewNop())

	stats, err := store.Stats(ctx, "never-ingested")
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.ChunkCount)
}

func TestStore_ListDocuments_InvalidLimit(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	tdb, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	store := New(tdb.Pool, log.NewNop())

	_, err := store.ListDocuments(ctx, "ns", 0)
	assert.Error(t, err)
	_, err = store.ListDocuments(ctx, "ns", 5000)
	assert.Error(t, err)
}
