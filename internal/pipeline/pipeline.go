package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/citeseek/citeseek/internal/answer"
	"github.com/citeseek/citeseek/internal/retrieval"
)

const (
	defaultRerankTopN       = 6
	defaultRecallMultiplier = 4
	defaultCondenseChars    = 1600
	maxRetrievalTopK        = 100
)

// Config tunes the pipeline stages.
type Config struct {
	// TopK is the retrieval breadth before reranking. Zero derives it
	// from RecallMultiplier and RerankTopN.
	TopK int

	// RerankTopN is the final evidence count.
	RerankTopN int

	// RecallMultiplier sets the floor TopK/RerankTopN ratio so reranking
	// always sees more candidates than it keeps.
	RecallMultiplier int

	// CondenseChars triggers the summary-mode condense pass when the
	// rendered draft exceeds it.
	CondenseChars int
}

func (c Config) withDefaults() Config {
	if c.RerankTopN <= 0 {
		c.RerankTopN = defaultRerankTopN
	}
	if c.RecallMultiplier <= 0 {
		c.RecallMultiplier = defaultRecallMultiplier
	}
	if c.CondenseChars <= 0 {
		c.CondenseChars = defaultCondenseChars
	}
	return c
}

// Pipeline orchestrates one question through routing, retrieval,
// drafting, and verification.
type Pipeline struct {
	gen       Generator
	retriever Retriever
	reranker  Reranker
	cfg       Config
	logger    *slog.Logger
}

func New(gen Generator, retriever Retriever, reranker Reranker, cfg Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		gen:       gen,
		retriever: retriever,
		reranker:  reranker,
		cfg:       cfg.withDefaults(),
		logger:    logger,
	}
}

// tracer accumulates stage timings for the request trace.
type tracer struct {
	trace Trace
	last  time.Time
}

func newTracer() *tracer {
	return &tracer{
		trace: Trace{ID: uuid.NewString()},
		last:  time.Now(),
	}
}

func (t *tracer) mark(state string) {
	now := time.Now()
	t.trace.Stages = append(t.trace.Stages, StageTiming{State: state, Duration: now.Sub(t.last)})
	t.last = now
}

// Answer runs the full staged flow. Terminal conditions (no evidence,
// drafting failure) come back through the same Result shape as a normal
// answer; only an invalid request returns without a usable Result.
func (p *Pipeline) Answer(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	tr := newTracer()
	log := p.logger.With("trace_id", tr.trace.ID, "doc_id", req.DocID)

	mode, query := p.route(ctx, req.Question)
	tr.trace.Mode = mode
	tr.trace.Query = query
	tr.mark(StateRouted)

	cands := p.retriever.Retrieve(ctx, query, req.filter(), p.topK(req))
	tr.mark(StateRetrieved)

	evidence := p.reranker.Rerank(ctx, req.Question, cands)
	if len(evidence) == 0 {
		tr.mark(StateEmptyEvidence)
		tr.mark(StateDone)
		log.Info("no evidence for question", "mode", mode)
		return Result{Answer: AnswerNoEvidence, Trace: tr.trace}, nil
	}

	draft, err := p.draft(ctx, req.Question, mode, evidence)
	if err != nil {
		tr.mark(StateDone)
		log.Error("drafting failed", "error", err)
		// Terminal answers carry no evidence or citations, matching the
		// no-evidence shape.
		return Result{Answer: AnswerRequestFailed, Trace: tr.trace}, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	tr.mark(StateDrafted)

	if mode == ModeSummary {
		draft = p.condense(ctx, draft)
	}

	text, citations := answer.Verify(draft, evidence)
	tr.mark(StateVerified)

	tr.mark(StateDone)
	log.Info("answered question",
		"mode", mode,
		"evidence", len(evidence),
		"citations", len(citations))

	return Result{
		Answer:    text,
		Evidence:  evidence,
		Citations: citations,
		Trace:     tr.trace,
	}, nil
}

// topK picks the retrieval breadth: the request override or configured
// value, floored so reranking sees a real candidate surplus.
func (p *Pipeline) topK(req Request) int {
	k := p.cfg.TopK
	if req.TopK > 0 {
		k = req.TopK
	}
	if floor := p.cfg.RecallMultiplier * p.cfg.RerankTopN; k < floor {
		k = floor
	}
	if k > maxRetrievalTopK {
		k = maxRetrievalTopK
	}
	return k
}

// draft generates the answer draft, retrying once on failure. An empty
// model response counts as a failure.
func (p *Pipeline) draft(ctx context.Context, question, mode string, evidence []retrieval.Evidence) (answer.Draft, error) {
	system := draftQASystem
	if mode == ModeSummary {
		system = draftSummarySystem
	}
	prompt := draftPrompt(question, evidence)

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		raw, err := p.gen.Generate(ctx, system, prompt)
		if err != nil {
			lastErr = err
			continue
		}
		if strings.TrimSpace(raw) == "" {
			lastErr = fmt.Errorf("empty draft response")
			continue
		}
		return answer.ParseDraft(raw), nil
	}
	return answer.Draft{}, lastErr
}

// condense shortens long summary drafts. One attempt; any failure keeps
// the original draft.
func (p *Pipeline) condense(ctx context.Context, d answer.Draft) answer.Draft {
	text := answer.Render(d)
	if len(text) <= p.cfg.CondenseChars {
		return d
	}
	raw, err := p.gen.Generate(ctx, condenseSystem, text)
	if err != nil || strings.TrimSpace(raw) == "" {
		p.logger.Warn("condense pass failed, keeping full draft", "error", err)
		return d
	}
	return answer.RawTextDraft(raw)
}
