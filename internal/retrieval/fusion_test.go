package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citeseek/citeseek/internal/index"
)

func TestNormalizeScores(t *testing.T) {
	assert.Nil(t, normalizeScores(nil))
	assert.Equal(t, []float64{1}, normalizeScores([]float64{0.42}))
	assert.Equal(t, []float64{1, 1, 1}, normalizeScores([]float64{0.5, 0.5, 0.5}))
	assert.Equal(t, []float64{1, 0.5, 0}, normalizeScores([]float64{0.9, 0.5, 0.1}))
}

func TestDenseOnly_PassesScoresThroughUnchanged(t *testing.T) {
	dense := []index.Match{
		{ChunkID: "a", Score: 0.9},
		{ChunkID: "b", Score: 0.5},
		{ChunkID: "c", Score: 0.1},
	}
	cands := denseOnly(dense)

	require.Len(t, cands, 3)
	assert.Equal(t, []string{"a", "b", "c"}, candidateIDs(cands))
	assert.Equal(t, 0.9, cands[0].FusedScore)
	assert.Equal(t, 0.5, cands[1].FusedScore)
	assert.Equal(t, 0.1, cands[2].FusedScore)
}

func TestFuseMatches_WeightedSum(t *testing.T) {
	dense := []index.Match{
		{ChunkID: "a", Score: 0.9},
		{ChunkID: "b", Score: 0.5},
		{ChunkID: "c", Score: 0.1},
	}
	sparse := []index.Match{
		{ChunkID: "c", Score: 2.0},
		{ChunkID: "b", Score: 1.0},
	}
	cands := fuseMatches(dense, sparse, 0.5, 0.5)
	require.Len(t, cands, 3)

	byID := map[string]Candidate{}
	for _, c := range cands {
		byID[c.ChunkID] = c
	}

	// dense normalized: a=1, b=0.5, c=0; sparse normalized: c=1, b=0.
	assert.InDelta(t, 0.5, byID["a"].FusedScore, 1e-9)
	assert.InDelta(t, 0.25, byID["b"].FusedScore, 1e-9)
	assert.InDelta(t, 0.5, byID["c"].FusedScore, 1e-9)

	assert.False(t, byID["a"].HasSparse)
	assert.True(t, byID["c"].HasSparse)

	// a and c tie at 0.5: chunk_id ascending breaks it.
	assert.Equal(t, []string{"a", "c", "b"}, candidateIDs(cands))
}

func TestFuseMatches_MetaFromEitherSide(t *testing.T) {
	dense := []index.Match{
		{ChunkID: "a", Score: 0.9, Meta: index.ChunkMeta{Content: "dense text"}},
	}
	sparse := []index.Match{
		{ChunkID: "a", Score: 1.0, Meta: index.ChunkMeta{Content: "same chunk"}},
		{ChunkID: "z", Score: 0.5, Meta: index.ChunkMeta{Content: "sparse only"}},
	}
	cands := fuseMatches(dense, sparse, 0.5, 0.5)
	require.Len(t, cands, 2)

	byID := map[string]Candidate{}
	for _, c := range cands {
		byID[c.ChunkID] = c
	}
	// Dense metadata wins for shared chunks; sparse-only chunks keep theirs.
	assert.Equal(t, "dense text", byID["a"].Meta.Content)
	assert.Equal(t, "sparse only", byID["z"].Meta.Content)
}

func TestSortCandidates_Deterministic(t *testing.T) {
	cands := []Candidate{
		{ChunkID: "b", FusedScore: 0.5},
		{ChunkID: "a", FusedScore: 0.5},
		{ChunkID: "c", FusedScore: 0.9},
	}
	sortCandidates(cands)
	assert.Equal(t, []string{"c", "a", "b"}, candidateIDs(cands))
}

func candidateIDs(cands []Candidate) []string {
	ids := make([]string, len(cands))
	for i, c := range cands {
		ids[i] = c.ChunkID
	}
	return ids
}
