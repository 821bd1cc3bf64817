package retrieval

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/citeseek/citeseek/internal/index"
	"github.com/citeseek/citeseek/internal/textutil"
)

// Per-item clamp applied to candidate text before budgeting.
const maxEvidenceChars = 9000

// Config tunes a Retriever. Zero values get sensible defaults via
// NewRetriever.
type Config struct {
	Namespace string

	// SparseEnabled allows the lexical sub-query when the namespace has
	// lexical stats.
	SparseEnabled bool
	DenseWeight   float64
	SparseWeight  float64

	// LexicalBonusWeight adds a token-overlap bonus to dense scores when
	// the sparse path is unavailable. Zero disables the bonus.
	LexicalBonusWeight float64

	// MaxContextChars caps accumulated candidate text per request.
	MaxContextChars int

	// CallTimeout bounds each external sub-call (embed, index query).
	CallTimeout time.Duration
}

// Retriever issues hybrid queries and fuses the results. All failures
// degrade to an empty candidate list; the pipeline treats "no evidence"
// as a first-class state, never an abort.
type Retriever struct {
	embedder Embedder
	querier  Querier
	cfg      Config
	logger   *slog.Logger
}

// NewRetriever wires a Retriever.
func NewRetriever(embedder Embedder, querier Querier, cfg Config, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 10 * time.Second
	}
	if cfg.MaxContextChars <= 0 {
		cfg.MaxContextChars = 36000
	}
	if cfg.DenseWeight == 0 && cfg.SparseWeight == 0 {
		cfg.DenseWeight, cfg.SparseWeight = 0.5, 0.5
	}
	return &Retriever{embedder: embedder, querier: querier, cfg: cfg, logger: logger}
}

// Retrieve returns up to topK ranked candidates for a question. Every
// failure mode, cancellation included, degrades to an empty list; the
// caller never sees an error.
func (r *Retriever) Retrieve(ctx context.Context, question string, filter index.Filter, topK int) []Candidate {
	embedding, ok := r.embedQuery(ctx, question)
	if !ok {
		return nil
	}

	useSparse := r.sparseAvailable(ctx)

	var dense, sparse []index.Match
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		dense = r.queryDense(gctx, embedding, filter, topK)
		return nil
	})
	if useSparse {
		g.Go(func() error {
			sparse = r.queryLexical(gctx, question, filter, topK)
			return nil
		})
	}
	// Sub-queries degrade internally; the group never returns an error.
	_ = g.Wait()

	var cands []Candidate
	if useSparse && len(sparse) > 0 {
		cands = fuseMatches(dense, sparse, r.cfg.DenseWeight, r.cfg.SparseWeight)
	} else {
		cands = denseOnly(dense)
		if r.cfg.LexicalBonusWeight > 0 {
			for i := range cands {
				bonus := textutil.OverlapScore(question, cands[i].Meta.Content)
				cands[i].FusedScore += r.cfg.LexicalBonusWeight * bonus
			}
			sortCandidates(cands)
		}
	}

	return r.screen(question, cands, filter, topK)
}

// screen walks fused order applying defensive filtering: metadata
// re-validation, the injection tripwire, per-item clamping, and the
// accumulated context budget.
func (r *Retriever) screen(question string, cands []Candidate, filter index.Filter, topK int) []Candidate {
	out := make([]Candidate, 0, min(len(cands), topK))
	totalChars := 0
	for _, c := range cands {
		if len(out) >= topK {
			break
		}
		if !filter.Matches(c.Meta) {
			r.logger.Debug("dropping candidate failing filter re-validation", "chunk_id", c.ChunkID)
			continue
		}
		if textutil.Suspicious(c.Meta.Content) {
			r.logger.Warn("dropping suspicious candidate", "chunk_id", c.ChunkID)
			continue
		}
		c.Meta.Content = textutil.Clamp(c.Meta.Content, maxEvidenceChars)
		totalChars += len(c.Meta.Content)
		if totalChars > r.cfg.MaxContextChars {
			break
		}
		out = append(out, c)
	}
	return out
}

func (r *Retriever) embedQuery(ctx context.Context, question string) ([]float32, bool) {
	callCtx, cancel := context.WithTimeout(ctx, r.cfg.CallTimeout)
	defer cancel()

	vectors, err := r.embedder.EmbedTexts(callCtx, []string{question})
	if err != nil || len(vectors) == 0 {
		r.logger.Warn("query embedding failed, returning no candidates", "error", err)
		return nil, false
	}
	return vectors[0], true
}

// sparseAvailable checks the namespace lexical stats. Any failure reads
// as unavailable; the dense path carries the request.
func (r *Retriever) sparseAvailable(ctx context.Context) bool {
	if !r.cfg.SparseEnabled {
		return false
	}
	callCtx, cancel := context.WithTimeout(ctx, r.cfg.CallTimeout)
	defer cancel()

	stats, err := r.querier.Stats(callCtx, r.cfg.Namespace)
	if err != nil {
		r.logger.Warn("lexical stats lookup failed, using dense-only path", "error", err)
		return false
	}
	return stats.ChunkCount > 0
}

func (r *Retriever) queryDense(ctx context.Context, embedding []float32, filter index.Filter, topK int) []index.Match {
	callCtx, cancel := context.WithTimeout(ctx, r.cfg.CallTimeout)
	defer cancel()

	matches, err := r.querier.QueryDense(callCtx, r.cfg.Namespace, embedding, filter, topK)
	if err != nil {
		r.logger.Warn("dense query failed, degrading to empty", "error", err)
		return nil
	}
	return matches
}

func (r *Retriever) queryLexical(ctx context.Context, question string, filter index.Filter, topK int) []index.Match {
	callCtx, cancel := context.WithTimeout(ctx, r.cfg.CallTimeout)
	defer cancel()

	matches, err := r.querier.QueryLexical(callCtx, r.cfg.Namespace, question, filter, topK)
	if err != nil {
		r.logger.Warn("lexical query failed, degrading to empty", "error", err)
		return nil
	}
	return matches
}
