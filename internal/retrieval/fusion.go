package retrieval

import (
	"sort"

	"github.com/citeseek/citeseek/internal/index"
)

// normalizeScores min-max normalizes a score list to [0,1] over the
// returned set. A degenerate list (all values equal) maps to all 1s so a
// single-hit list still contributes full weight.
func normalizeScores(scores []float64) []float64 {
	if len(scores) == 0 {
		return nil
	}
	lo, hi := scores[0], scores[0]
	for _, s := range scores[1:] {
		if s < lo {
			lo = s
		}
		if s > hi {
			hi = s
		}
	}
	out := make([]float64, len(scores))
	if hi == lo {
		for i := range out {
			out[i] = 1
		}
		return out
	}
	for i, s := range scores {
		out[i] = (s - lo) / (hi - lo)
	}
	return out
}

// fuseMatches combines dense and sparse result lists into one ranked
// candidate list. Each list is normalized independently, then combined as
// denseWeight*dense + sparseWeight*sparse; a chunk missing from one list
// contributes zero on that side. Ties break by chunk_id ascending.
func fuseMatches(dense, sparse []index.Match, denseWeight, sparseWeight float64) []Candidate {
	byID := make(map[string]*Candidate, len(dense)+len(sparse))
	order := make([]string, 0, len(dense)+len(sparse))

	get := func(id string) *Candidate {
		if c, ok := byID[id]; ok {
			return c
		}
		c := &Candidate{ChunkID: id}
		byID[id] = c
		order = append(order, id)
		return c
	}

	denseNorm := normalizeScores(matchScores(dense))
	for i, m := range dense {
		c := get(m.ChunkID)
		c.DenseScore = m.Score
		c.Meta = m.Meta
		c.FusedScore += denseWeight * denseNorm[i]
	}

	sparseNorm := normalizeScores(matchScores(sparse))
	for i, m := range sparse {
		c := get(m.ChunkID)
		c.SparseScore = m.Score
		c.HasSparse = true
		if c.Meta.Content == "" {
			c.Meta = m.Meta
		}
		c.FusedScore += sparseWeight * sparseNorm[i]
	}

	out := make([]Candidate, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	sortCandidates(out)
	return out
}

// denseOnly converts dense matches to candidates with the dense score
// passed through unchanged. No normalization happens on this path.
func denseOnly(dense []index.Match) []Candidate {
	out := make([]Candidate, 0, len(dense))
	for _, m := range dense {
		out = append(out, Candidate{
			ChunkID:    m.ChunkID,
			DenseScore: m.Score,
			FusedScore: m.Score,
			Meta:       m.Meta,
		})
	}
	sortCandidates(out)
	return out
}

// sortCandidates orders by fused score descending, chunk_id ascending.
func sortCandidates(cands []Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].FusedScore != cands[j].FusedScore {
			return cands[i].FusedScore > cands[j].FusedScore
		}
		return cands[i].ChunkID < cands[j].ChunkID
	})
}

func matchScores(matches []index.Match) []float64 {
	scores := make([]float64, len(matches))
	for i, m := range matches {
		scores[i] = m.Score
	}
	return scores
}
