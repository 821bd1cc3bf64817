// Package retrieval implements hybrid passage retrieval: a dense vector
// query plus an optional lexical query fused into one ranked candidate
// list, then an LLM reranking stage that produces the numbered evidence
// set answers cite.
package retrieval

import (
	"context"

	"github.com/citeseek/citeseek/internal/index"
)

// Candidate is one retrieval hit with its component scores. Request
// scoped; discarded after reranking.
type Candidate struct {
	ChunkID     string
	DenseScore  float64
	SparseScore float64
	HasSparse   bool
	FusedScore  float64
	Meta        index.ChunkMeta
}

// Evidence is a reranked, numbered passage eligible for citation. IDs
// are "e1".."eN" in final rank order; that numbering is what citation
// verification resolves against.
type Evidence struct {
	ID        string  `json:"id"`
	Source    string  `json:"source"`
	Text      string  `json:"text"`
	PageStart int     `json:"page_start,omitempty"`
	PageEnd   int     `json:"page_end,omitempty"`
	Section   string  `json:"section,omitempty"`
	Score     float64 `json:"score"`
}

// Querier is the index surface the retriever reads. Satisfied by
// *index.Store.
type Querier interface {
	QueryDense(ctx context.Context, namespace string, embedding []float32, f index.Filter, topK int) ([]index.Match, error)
	QueryLexical(ctx context.Context, namespace, query string, f index.Filter, topK int) ([]index.Match, error)
	Stats(ctx context.Context, namespace string) (index.LexicalStats, error)
}

// Embedder computes the dense query vector. Satisfied by the llm client.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Scorer rates passage relevance for reranking. Satisfied by the llm
// client.
type Scorer interface {
	Score(ctx context.Context, question, passage string) (float64, error)
}
