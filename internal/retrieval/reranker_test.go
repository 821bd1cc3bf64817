package retrieval

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citeseek/citeseek/internal/index"
	"github.com/citeseek/citeseek/internal/log"
)

// mapScorer scores passages from a fixed table; unknown passages error.
type mapScorer struct {
	scores map[string]float64
}

func (m *mapScorer) Score(_ context.Context, _ string, passage string) (float64, error) {
	s, ok := m.scores[passage]
	if !ok {
		return 0, errors.New("scoring failed")
	}
	return s, nil
}

type failScorer struct{}

func (failScorer) Score(context.Context, string, string) (float64, error) {
	return 0, errors.New("model down")
}

func candidates(n int) []Candidate {
	out := make([]Candidate, n)
	for i := range out {
		out[i] = Candidate{
			ChunkID:    fmt.Sprintf("c%02d", i+1),
			FusedScore: 1 - float64(i)*0.1,
			Meta: index.ChunkMeta{
				DocID:   "doc-1",
				Source:  "doc.pdf",
				Content: fmt.Sprintf("passage %d", i+1),
			},
		}
	}
	return out
}

func newTestReranker(s Scorer, enabled bool, topN int) *Reranker {
	return NewReranker(s, RerankConfig{
		Enabled:     enabled,
		TopN:        topN,
		CallTimeout: time.Second,
	}, log.NewNop())
}

func evidenceIDs(ev []Evidence) []string {
	ids := make([]string, len(ev))
	for i, e := range ev {
		ids[i] = e.ID
	}
	return ids
}

func TestRerank_DisabledPassthrough(t *testing.T) {
	r := newTestReranker(nil, false, 3)

	ev := r.Rerank(context.Background(), "q", candidates(5))
	require.Len(t, ev, 3)
	assert.Equal(t, []string{"e1", "e2", "e3"}, evidenceIDs(ev))
	assert.Equal(t, "passage 1", ev[0].Text)
	assert.Equal(t, 1.0, ev[0].Score)
	assert.Equal(t, "doc.pdf", ev[0].Source)
}

func TestRerank_EmptyInput(t *testing.T) {
	r := newTestReranker(failScorer{}, true, 3)
	assert.Nil(t, r.Rerank(context.Background(), "q", nil))
}

func TestRerank_ReordersByScore(t *testing.T) {
	scorer := &mapScorer{scores: map[string]float64{
		"passage 1": 0.2,
		"passage 2": 0.9,
		"passage 3": 0.7,
		"passage 4": 0.1,
	}}
	r := newTestReranker(scorer, true, 2)

	ev := r.Rerank(context.Background(), "q", candidates(4))
	require.Len(t, ev, 2)
	assert.Equal(t, "passage 2", ev[0].Text)
	assert.Equal(t, "e1", ev[0].ID)
	assert.Equal(t, 0.9, ev[0].Score)
	assert.Equal(t, "passage 3", ev[1].Text)
	assert.Equal(t, "e2", ev[1].ID)
}

func TestRerank_TotalFailureFallsBackToFusedOrder(t *testing.T) {
	r := newTestReranker(failScorer{}, true, 3)

	ev := r.Rerank(context.Background(), "q", candidates(5))
	require.Len(t, ev, 3)
	// Pre-rerank fused order truncated to top N.
	assert.Equal(t, "passage 1", ev[0].Text)
	assert.Equal(t, "passage 2", ev[1].Text)
	assert.Equal(t, "passage 3", ev[2].Text)
	assert.Equal(t, []string{"e1", "e2", "e3"}, evidenceIDs(ev))
}

func TestRerank_PartialFailureKeepsFusedScore(t *testing.T) {
	// Only passage 3 scores; the rest keep fused scores (1.0, 0.9, ...).
	scorer := &mapScorer{scores: map[string]float64{
		"passage 3": 0.95,
	}}
	r := newTestReranker(scorer, true, 3)

	ev := r.Rerank(context.Background(), "q", candidates(4))
	require.Len(t, ev, 3)
	// passage 1 fused 1.0 > passage 3 scored 0.95 > passage 2 fused 0.9.
	assert.Equal(t, "passage 1", ev[0].Text)
	assert.Equal(t, "passage 3", ev[1].Text)
	assert.Equal(t, "passage 2", ev[2].Text)
}

func TestRerank_Idempotent(t *testing.T) {
	scorer := &mapScorer{scores: map[string]float64{
		"passage 1": 0.4,
		"passage 2": 0.8,
		"passage 3": 0.6,
		"passage 4": 0.2,
		"passage 5": 0.5,
		"passage 6": 0.1,
	}}
	r := newTestReranker(scorer, true, 3)

	first := r.Rerank(context.Background(), "q", candidates(6))
	second := r.Rerank(context.Background(), "q", candidates(6))
	assert.Equal(t, first, second)
}

func TestRerank_TieBreaksByFusedRank(t *testing.T) {
	scorer := &mapScorer{scores: map[string]float64{
		"passage 1": 0.5,
		"passage 2": 0.5,
		"passage 3": 0.5,
	}}
	r := newTestReranker(scorer, true, 3)

	ev := r.Rerank(context.Background(), "q", candidates(3))
	require.Len(t, ev, 3)
	// Equal scores preserve pre-rerank order.
	assert.Equal(t, "passage 1", ev[0].Text)
	assert.Equal(t, "passage 2", ev[1].Text)
	assert.Equal(t, "passage 3", ev[2].Text)
}

func TestRerank_SourceFallsBackToDocID(t *testing.T) {
	cands := candidates(1)
	cands[0].Meta.Source = ""
	r := newTestReranker(nil, false, 3)

	ev := r.Rerank(context.Background(), "q", cands)
	require.Len(t, ev, 1)
	assert.Equal(t, "doc-1", ev[0].Source)
}
