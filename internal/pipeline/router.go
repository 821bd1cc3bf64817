package pipeline

import (
	"context"
	"strings"

	"github.com/citeseek/citeseek/internal/llm"
)

const routeSystem = `You classify document questions and rewrite them for retrieval.
Respond with JSON only: {"mode": "qa" or "summary", "query": "<rewritten retrieval query>"}.
Use "summary" when the user wants an overview, digest, or key points of the
document; use "qa" for everything else. The rewritten query keeps the user's
intent but expands abbreviations and drops filler words.`

type routeDecision struct {
	Mode  string `json:"mode"`
	Query string `json:"query"`
}

// route picks the answer mode and a retrieval query. The model gets one
// attempt; any failure falls back to the keyword heuristic so routing
// never blocks a request.
func (p *Pipeline) route(ctx context.Context, question string) (string, string) {
	raw, err := p.gen.Generate(ctx, routeSystem, question)
	if err != nil {
		p.logger.Warn("routing call failed, using heuristic", "error", err)
		return heuristicRoute(question), question
	}

	var d routeDecision
	if err := llm.DecodeJSON(raw, &d); err != nil {
		p.logger.Warn("routing output unparseable, using heuristic", "error", err)
		return heuristicRoute(question), question
	}

	mode := strings.ToLower(strings.TrimSpace(d.Mode))
	if mode != ModeQA && mode != ModeSummary {
		mode = heuristicRoute(question)
	}
	query := strings.TrimSpace(d.Query)
	if query == "" {
		query = question
	}
	return mode, query
}

var summaryHints = []string{"summarize", "summarise", "summary", "overview", "tl;dr", "tldr", "key points", "main points"}

func heuristicRoute(question string) string {
	q := strings.ToLower(question)
	for _, hint := range summaryHints {
		if strings.Contains(q, hint) {
			return ModeSummary
		}
	}
	return ModeQA
}
