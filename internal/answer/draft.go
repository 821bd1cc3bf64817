// Package answer handles the synthesized-answer side of the pipeline:
// parsing model drafts into a tagged variant, flattening them to
// deterministic text, and verifying citation grounding against the
// evidence set.
package answer

import (
	"encoding/json"
	"fmt"

	"github.com/citeseek/citeseek/internal/llm"
)

// Kind discriminates the draft variants a model may return.
type Kind int

const (
	// KindRawText is free-form answer text.
	KindRawText Kind = iota
	// KindStructured is a title/summary/outlook/notes object.
	KindStructured
	// KindFindings is a findings/conclusions/citations object.
	KindFindings
)

// Structured is the report-shaped draft variant.
type Structured struct {
	Title   string
	Summary string
	Outlook string
	Notes   []string
}

// Findings is the analysis-shaped draft variant.
type Findings struct {
	Findings    []string
	Conclusions []string
	Citations   []string
}

// Draft is the tagged union of answer shapes. Raw always retains the
// unmodified model output.
type Draft struct {
	Kind       Kind
	Raw        string
	Text       string
	Structured Structured
	Findings   Findings
}

// ParseDraft resolves model output into a Draft. Precedence: an object
// with findings-style keys parses as Findings; an object with any
// structured key parses as Structured; everything else (including
// malformed JSON) is treated as raw text. Pure; never errors.
func ParseDraft(raw string) Draft {
	text := llm.StripCodeFences(raw)

	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return Draft{Kind: KindRawText, Raw: raw, Text: text}
	}

	if hasAny(obj, "findings", "key_findings", "conclusions") {
		return Draft{
			Kind: KindFindings,
			Raw:  raw,
			Findings: Findings{
				Findings:    stringList(firstOf(obj, "findings", "key_findings")),
				Conclusions: stringList(obj["conclusions"]),
				Citations:   stringList(obj["citations"]),
			},
		}
	}

	if hasAny(obj, "title", "summary", "outlook", "notes") {
		return Draft{
			Kind: KindStructured,
			Raw:  raw,
			Structured: Structured{
				Title:   stringValue(obj["title"]),
				Summary: stringValue(obj["summary"]),
				Outlook: stringValue(obj["outlook"]),
				Notes:   stringList(obj["notes"]),
			},
		}
	}

	return Draft{Kind: KindRawText, Raw: raw, Text: text}
}

// RawTextDraft wraps plain text in a Draft without parsing.
func RawTextDraft(text string) Draft {
	return Draft{Kind: KindRawText, Raw: text, Text: text}
}

func hasAny(obj map[string]any, keys ...string) bool {
	for _, k := range keys {
		if _, ok := obj[k]; ok {
			return true
		}
	}
	return false
}

func firstOf(obj map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := obj[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// stringValue coerces a JSON value to a string; non-string scalars
// render via fmt, containers collapse to empty.
func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case map[string]any, []any:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

// stringList coerces a JSON value to a list of strings, tolerating a
// bare string or a mixed array.
func stringList(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := stringValue(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
