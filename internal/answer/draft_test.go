package answer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDraft_RawText(t *testing.T) {
	d := ParseDraft("Revenue grew 12% [e1].")
	assert.Equal(t, KindRawText, d.Kind)
	assert.Equal(t, "Revenue grew 12% [e1].", d.Text)
}

func TestParseDraft_MalformedJSONFallsBackToRawText(t *testing.T) {
	d := ParseDraft(`{"summary": "broken`)
	assert.Equal(t, KindRawText, d.Kind)
	assert.Contains(t, d.Text, "summary")
}

func TestParseDraft_Structured(t *testing.T) {
	d := ParseDraft(`{
		"title": "Q3 Report",
		"summary": "Revenue grew [e1].",
		"outlook": "Stable [e2].",
		"notes": ["margin flat", "fx headwind"]
	}`)
	require.Equal(t, KindStructured, d.Kind)
	assert.Equal(t, "Q3 Report", d.Structured.Title)
	assert.Equal(t, "Revenue grew [e1].", d.Structured.Summary)
	assert.Equal(t, "Stable [e2].", d.Structured.Outlook)
	assert.Equal(t, []string{"margin flat", "fx headwind"}, d.Structured.Notes)
}

func TestParseDraft_Findings(t *testing.T) {
	d := ParseDraft(`{
		"findings": ["growth accelerated [e1]"],
		"conclusions": ["buy more servers"],
		"citations": ["e1", "e3"]
	}`)
	require.Equal(t, KindFindings, d.Kind)
	assert.Equal(t, []string{"growth accelerated [e1]"}, d.Findings.Findings)
	assert.Equal(t, []string{"buy more servers"}, d.Findings.Conclusions)
	assert.Equal(t, []string{"e1", "e3"}, d.Findings.Citations)
}

func TestParseDraft_FindingsPrecedenceOverStructured(t *testing.T) {
	// Findings-style keys win even when structured keys are present.
	d := ParseDraft(`{"summary": "s", "key_findings": ["f1", "f2"]}`)
	require.Equal(t, KindFindings, d.Kind)
	assert.Equal(t, []string{"f1", "f2"}, d.Findings.Findings)
}

func TestParseDraft_KeyFindingsAlias(t *testing.T) {
	d := ParseDraft(`{"key_findings": ["a"]}`)
	require.Equal(t, KindFindings, d.Kind)
	assert.Equal(t, []string{"a"}, d.Findings.Findings)
}

func TestParseDraft_CodeFencedJSON(t *testing.T) {
	d := ParseDraft("```json\n{\"summary\": \"fenced\"}\n```")
	require.Equal(t, KindStructured, d.Kind)
	assert.Equal(t, "fenced", d.Structured.Summary)
}

func TestParseDraft_ToleratesDuckTypedFields(t *testing.T) {
	// A bare string where a list is expected, and a number title.
	d := ParseDraft(`{"title": 3, "notes": "single note"}`)
	require.Equal(t, KindStructured, d.Kind)
	assert.Equal(t, "3", d.Structured.Title)
	assert.Equal(t, []string{"single note"}, d.Structured.Notes)
}

func TestParseDraft_JSONObjectWithoutKnownKeys(t *testing.T) {
	d := ParseDraft(`{"unrelated": true}`)
	assert.Equal(t, KindRawText, d.Kind)
}

func TestRender(t *testing.T) {
	t.Run("raw text", func(t *testing.T) {
		assert.Equal(t, "plain", Render(RawTextDraft("plain")))
	})

	t.Run("structured", func(t *testing.T) {
		d := Draft{Kind: KindStructured, Structured: Structured{
			Title:   "Title",
			Summary: "Summary [e1].",
			Outlook: "Up.",
			Notes:   []string{"n1", "n2"},
		}}
		got := Render(d)
		assert.Equal(t, "Title\n\nSummary [e1].\n\nOutlook: Up.\n\nNotes:\n- n1\n- n2", got)
	})

	t.Run("structured skips empty fields", func(t *testing.T) {
		d := Draft{Kind: KindStructured, Structured: Structured{Summary: "only summary"}}
		assert.Equal(t, "only summary", Render(d))
	})

	t.Run("findings includes citations line", func(t *testing.T) {
		d := Draft{Kind: KindFindings, Findings: Findings{
			Findings:    []string{"f1 [e2]"},
			Conclusions: []string{"c1"},
			Citations:   []string{"e1", "e2"},
		}}
		got := Render(d)
		assert.Equal(t, "Findings:\n- f1 [e2]\n\nConclusions:\n- c1\n\nCitations: e1, e2", got)
	})

	t.Run("deterministic", func(t *testing.T) {
		d := ParseDraft(`{"summary": "s", "notes": ["a", "b"]}`)
		assert.Equal(t, Render(d), Render(d))
	})
}

func TestStructuredDraftNormalization(t *testing.T) {
	// A summary plus key_findings and no citations field still yields a
	// well-formed flattened text for citation extraction.
	d := ParseDraft(`{"summary": "overview", "key_findings": ["growth [e1]", "risk [e2]"]}`)
	text := Render(d)
	assert.NotEmpty(t, text)
	assert.Equal(t, []string{"e1", "e2"}, ExtractCitations(text))
}
