package answer

import "strings"

// Render flattens a draft to deterministic display text. Citation
// extraction runs over this output, so every field that can carry
// citation markers must appear here.
func Render(d Draft) string {
	switch d.Kind {
	case KindStructured:
		return renderStructured(d.Structured)
	case KindFindings:
		return renderFindings(d.Findings)
	default:
		return d.Text
	}
}

func renderStructured(s Structured) string {
	var parts []string
	if s.Title != "" {
		parts = append(parts, s.Title)
	}
	if s.Summary != "" {
		parts = append(parts, s.Summary)
	}
	if s.Outlook != "" {
		parts = append(parts, "Outlook: "+s.Outlook)
	}
	if len(s.Notes) > 0 {
		parts = append(parts, "Notes:\n"+bullets(s.Notes))
	}
	return strings.Join(parts, "\n\n")
}

func renderFindings(f Findings) string {
	var parts []string
	if len(f.Findings) > 0 {
		parts = append(parts, "Findings:\n"+bullets(f.Findings))
	}
	if len(f.Conclusions) > 0 {
		parts = append(parts, "Conclusions:\n"+bullets(f.Conclusions))
	}
	if len(f.Citations) > 0 {
		parts = append(parts, "Citations: "+strings.Join(f.Citations, ", "))
	}
	return strings.Join(parts, "\n\n")
}

func bullets(items []string) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "- " + item
	}
	return strings.Join(lines, "\n")
}
