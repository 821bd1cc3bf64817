// Package textutil holds small text helpers shared by ingestion and
// retrieval: whitespace normalization, truncation, a prompt-injection
// tripwire, and a cheap lexical overlap score.
package textutil

import (
	"regexp"
	"strings"
)

var (
	spaceRe    = regexp.MustCompile(`[ \t]+`)
	newlinesRe = regexp.MustCompile(`\n{3,}`)
	wordRe     = regexp.MustCompile(`[A-Za-z0-9]+`)

	// Instruction-like markers inside document text. Matching chunks are
	// dropped rather than cleaned; partial cleaning is lossy and easy to
	// bypass.
	injectionRe = regexp.MustCompile(`(?i)` + strings.Join([]string{
		`ignore (all|any|previous) instructions`,
		`system prompt`,
		`developer message`,
		`reveal (the )?prompt`,
		`exfiltrate`,
		`do not follow`,
		`jailbreak`,
		`you are now`,
		`BEGIN SYSTEM PROMPT`,
		`###\s*SYSTEM`,
	}, "|"))
)

// NormalizeWhitespace collapses runs of spaces and tabs, normalizes line
// endings, caps consecutive blank lines at one, and trims the result.
func NormalizeWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = spaceRe.ReplaceAllString(s, " ")
	s = newlinesRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// Clamp truncates s to maxChars, marking the cut. Safe on any input.
func Clamp(s string, maxChars int) string {
	if len(s) <= maxChars {
		return s
	}
	return s[:maxChars] + "\n...[TRUNCATED]"
}

// Suspicious reports whether text contains instruction-like markers that
// indicate a prompt-injection attempt.
func Suspicious(text string) bool {
	return injectionRe.MatchString(text)
}

// tokenize lowercases and keeps alphanumeric words of 3+ characters.
func tokenize(s string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, w := range wordRe.FindAllString(s, -1) {
		if len(w) >= 3 {
			tokens[strings.ToLower(w)] = struct{}{}
		}
	}
	return tokens
}

// OverlapScore returns |tokens(query) ∩ tokens(text)| / |tokens(query)|
// in [0,1]. Used as a cheap lexical signal when no sparse index exists.
func OverlapScore(query, text string) float64 {
	q := tokenize(query)
	if len(q) == 0 {
		return 0
	}
	t := tokenize(text)
	hits := 0
	for w := range q {
		if _, ok := t[w]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(q))
}
