package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

// Rerank scoring runs this many candidates in parallel.
const rerankParallelism = 4

// RerankConfig tunes a Reranker.
type RerankConfig struct {
	// Enabled toggles LLM scoring. When off, the top TopN fused
	// candidates pass through with their fused score.
	Enabled bool
	TopN    int

	// CallTimeout bounds each per-candidate scoring call.
	CallTimeout time.Duration
}

// Reranker re-scores top candidates with a stronger relevance signal and
// numbers the survivors e1..eN. Scoring is a quality enhancement only:
// every failure mode falls back to fused order.
type Reranker struct {
	scorer Scorer
	cfg    RerankConfig
	logger *slog.Logger
}

// NewReranker wires a Reranker. A nil scorer behaves as disabled.
func NewReranker(scorer Scorer, cfg RerankConfig, logger *slog.Logger) *Reranker {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.TopN <= 0 {
		cfg.TopN = 6
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 10 * time.Second
	}
	return &Reranker{scorer: scorer, cfg: cfg, logger: logger}
}

// Rerank trims candidates to the evidence set. Deterministic: identical
// inputs and a deterministic scorer yield identical ordering and ids.
func (r *Reranker) Rerank(ctx context.Context, question string, cands []Candidate) []Evidence {
	if len(cands) == 0 {
		return nil
	}
	if !r.cfg.Enabled || r.scorer == nil {
		top := truncate(cands, r.cfg.TopN)
		return toEvidence(top, fusedScores(top))
	}

	// Score a window of twice the final size so strong candidates just
	// below the cut can climb in.
	window := truncate(cands, r.cfg.TopN*2)

	scores := make([]float64, len(window))
	scored := make([]bool, len(window))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rerankParallelism)
	for i := range window {
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(gctx, r.cfg.CallTimeout)
			defer cancel()

			s, err := r.scorer.Score(callCtx, question, window[i].Meta.Content)
			if err != nil {
				r.logger.Debug("rerank scoring failed for candidate",
					"chunk_id", window[i].ChunkID, "error", err)
				return nil
			}
			scores[i] = s
			scored[i] = true
			return nil
		})
	}
	// Per-candidate failures are swallowed above; the group never errors.
	_ = g.Wait()

	anyScored := false
	for i := range window {
		if scored[i] {
			anyScored = true
		} else {
			// Failed candidates retain their fused score.
			scores[i] = window[i].FusedScore
		}
	}
	if !anyScored {
		r.logger.Warn("rerank scoring failed entirely, using fused order")
		top := truncate(cands, r.cfg.TopN)
		return toEvidence(top, fusedScores(top))
	}

	// Sort by score descending with pre-rerank fused rank as the
	// deterministic tiebreak.
	idx := make([]int, len(window))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		if scores[idx[a]] != scores[idx[b]] {
			return scores[idx[a]] > scores[idx[b]]
		}
		return idx[a] < idx[b]
	})

	n := min(r.cfg.TopN, len(window))
	ordered := make([]Candidate, 0, n)
	finalScores := make([]float64, 0, n)
	for _, i := range idx[:n] {
		ordered = append(ordered, window[i])
		finalScores = append(finalScores, scores[i])
	}
	return toEvidence(ordered, finalScores)
}

// toEvidence numbers candidates e1..eN in the given order.
func toEvidence(cands []Candidate, scores []float64) []Evidence {
	out := make([]Evidence, 0, len(cands))
	for i, c := range cands {
		source := c.Meta.Source
		if source == "" {
			source = c.Meta.DocID
		}
		out = append(out, Evidence{
			ID:        fmt.Sprintf("e%d", i+1),
			Source:    source,
			Text:      c.Meta.Content,
			PageStart: c.Meta.PageStart,
			PageEnd:   c.Meta.PageEnd,
			Section:   c.Meta.Section,
			Score:     scores[i],
		})
	}
	return out
}

func truncate(cands []Candidate, n int) []Candidate {
	if len(cands) <= n {
		return cands
	}
	return cands[:n]
}

func fusedScores(cands []Candidate) []float64 {
	scores := make([]float64, len(cands))
	for i, c := range cands {
		scores[i] = c.FusedScore
	}
	return scores
}
