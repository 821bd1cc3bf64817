package answer

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/citeseek/citeseek/internal/retrieval"
)

// citationRe matches citation tokens: optional bracket or paren, the
// letter e, digits, optional closing bracket or paren. Word boundaries
// keep it from firing inside words like "evidence1".
var citationRe = regexp.MustCompile(`(?i)[\[(]?\be(\d+)\b[\])]?`)

// ExtractCitations returns the citation tokens appearing in text,
// normalized to lowercase, de-duplicated preserving first-seen order.
func ExtractCitations(text string) []string {
	var tokens []string
	seen := make(map[string]struct{})
	for _, m := range citationRe.FindAllStringSubmatch(text, -1) {
		token := "e" + m[1]
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		tokens = append(tokens, token)
	}
	return tokens
}

// resolve maps a citation token to an evidence id: exact id match first
// (case-insensitive), then the trailing digits as a 1-based position into
// the evidence list. Returns "" when the token resolves to nothing.
func resolve(token string, evidence []retrieval.Evidence) string {
	for _, e := range evidence {
		if strings.EqualFold(token, e.ID) {
			return e.ID
		}
	}
	n, err := strconv.Atoi(strings.TrimPrefix(token, "e"))
	if err != nil || n < 1 || n > len(evidence) {
		return ""
	}
	return evidence[n-1].ID
}

// Verify renders the draft, extracts its citation tokens, and validates
// each against the evidence set. Unresolvable tokens are dropped from
// the citations list; the rendered text is never edited. Never errors:
// no valid citations is an empty list, not a failure.
func Verify(d Draft, evidence []retrieval.Evidence) (string, []string) {
	text := Render(d)

	var citations []string
	seen := make(map[string]struct{})
	for _, token := range ExtractCitations(text) {
		id := resolve(token, evidence)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		citations = append(citations, id)
	}
	return text, citations
}
