// Package pipeline runs the staged answering flow: query routing,
// retrieval, reranking, drafting, optional summarization, and citation
// verification. One call to Answer is one sequential traversal; the
// caller sees a single Result, never partial state.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/citeseek/citeseek/internal/index"
	"github.com/citeseek/citeseek/internal/retrieval"
)

// Sentinel errors.
var (
	// ErrInvalidRequest rejects a request before any external call.
	ErrInvalidRequest = errors.New("pipeline: invalid request")

	// ErrUpstreamUnavailable marks a request whose drafting calls all
	// failed. The accompanying Result still carries a terminal answer.
	ErrUpstreamUnavailable = errors.New("pipeline: upstream unavailable")
)

// Pipeline states. Every request walks ROUTED through DONE; EMPTY_EVIDENCE
// short-circuits from RETRIEVED straight to DONE.
const (
	StateRouted        = "ROUTED"
	StateRetrieved     = "RETRIEVED"
	StateEmptyEvidence = "EMPTY_EVIDENCE"
	StateDrafted       = "DRAFTED"
	StateVerified      = "VERIFIED"
	StateDone          = "DONE"
)

// Question modes chosen by the routing stage.
const (
	ModeQA      = "qa"
	ModeSummary = "summary"
)

// Terminal answers returned in-band through the normal Result shape.
const (
	AnswerNoEvidence    = "no supporting evidence found"
	AnswerRequestFailed = "the request could not be completed"
)

// Request is the immutable pipeline input.
type Request struct {
	DocID    string
	Question string

	// TopK overrides the configured retrieval breadth when > 0.
	TopK int

	// Optional metadata filters.
	SectionFilter string
	PageStart     int
	PageEnd       int
	ContextTypes  []string
}

// Validate rejects requests missing required fields.
func (r Request) Validate() error {
	if r.DocID == "" {
		return errors.New("doc_id is required")
	}
	if r.Question == "" {
		return errors.New("question is required")
	}
	if r.PageStart < 0 || r.PageEnd < 0 {
		return errors.New("page range must be non-negative")
	}
	if r.PageStart > 0 && r.PageEnd > 0 && r.PageStart > r.PageEnd {
		return errors.New("page range start exceeds end")
	}
	return nil
}

func (r Request) filter() index.Filter {
	return index.Filter{
		DocID:        r.DocID,
		Section:      r.SectionFilter,
		PageStart:    r.PageStart,
		PageEnd:      r.PageEnd,
		ContextTypes: r.ContextTypes,
	}
}

// Result is the single response shape for every outcome, including the
// terminal no-evidence and request-failed answers.
type Result struct {
	Answer    string               `json:"answer"`
	Evidence  []retrieval.Evidence `json:"evidence"`
	Citations []string             `json:"citations"`
	Trace     Trace                `json:"trace"`
}

// StageTiming records one completed stage for the trace.
type StageTiming struct {
	State    string        `json:"state"`
	Duration time.Duration `json:"duration"`
}

// Trace carries per-request observability data back to the caller.
type Trace struct {
	ID     string        `json:"id"`
	Mode   string        `json:"mode"`
	Query  string        `json:"query"`
	Stages []StageTiming `json:"stages"`
}

// Generator produces model text for a system/prompt pair. Satisfied by
// the llm client.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// Retriever returns ranked candidates; failures degrade to empty.
type Retriever interface {
	Retrieve(ctx context.Context, question string, filter index.Filter, topK int) []retrieval.Candidate
}

// Reranker trims candidates to the numbered evidence set.
type Reranker interface {
	Rerank(ctx context.Context, question string, cands []retrieval.Candidate) []retrieval.Evidence
}
