package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedOutput indicates the model returned output that could not
// be parsed into the expected structure even after fence stripping.
var ErrMalformedOutput = errors.New("llm: malformed model output")

// maxResponseBytes limits response size before JSON parsing.
const maxResponseBytes = 64 * 1024

// StripCodeFences removes ```json ... ``` wrapping from model output.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	return s
}

// DecodeJSON parses model output into v, tolerating markdown fences.
// Parse failures wrap ErrMalformedOutput so callers can degrade
// gracefully with errors.Is.
func DecodeJSON(raw string, v any) error {
	text := StripCodeFences(raw)
	if text == "" {
		return fmt.Errorf("%w: empty response", ErrMalformedOutput)
	}
	if len(text) > maxResponseBytes {
		return fmt.Errorf("%w: response too large (%d bytes)", ErrMalformedOutput, len(text))
	}
	if err := json.Unmarshal([]byte(text), v); err != nil {
		return fmt.Errorf("%w: %v (raw: %q)", ErrMalformedOutput, err, truncate(text, 200))
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
