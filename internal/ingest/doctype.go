package ingest

import (
	"regexp"
	"strings"
)

// Profile holds the chunking parameters tuned per document type.
type Profile struct {
	ChunkChars   int
	OverlapChars int
}

const (
	DocTypeGeneric   = "generic"
	DocTypeScholarly = "scholarly"
	DocTypeFinancial = "financial"
	DocTypeLegal     = "legal"
	DocTypeScan      = "scan"
)

// ProfileFor returns the chunking profile for a document type, falling
// back to the configured defaults for unknown types.
func ProfileFor(docType string, defaults Profile) Profile {
	switch docType {
	case DocTypeScholarly:
		return Profile{ChunkChars: 3200, OverlapChars: 320}
	case DocTypeFinancial:
		return Profile{ChunkChars: 2400, OverlapChars: 240}
	case DocTypeLegal:
		return Profile{ChunkChars: 1600, OverlapChars: 120}
	case DocTypeScan:
		return Profile{ChunkChars: 1400, OverlapChars: 200}
	default:
		return defaults
	}
}

var (
	scholarlyHeadingRe = regexp.MustCompile(`\b(?:introduction|methods?|results?|discussion|conclusion)\b`)
	legalSectionRefRe  = regexp.MustCompile(`\bsection\s+\d+(\.\d+)*\b`)
	numberedClauseRe   = regexp.MustCompile(`\b\d+(\.\d+)+\b`)
)

const (
	sampleMaxChars = 50000
	// Sparse pages with little text are the scan signature.
	scanMinPages      = 3
	scanAvgCharsLimit = 450
	// Minimum keyword score before committing to a specific type.
	minTypeScore = 2
)

// DetectDocType classifies a document from its blocks using cheap keyword
// heuristics over a bounded sample. Misclassification only changes the
// chunking profile, never correctness.
func DetectDocType(blocks []Block) string {
	if len(blocks) == 0 {
		return DocTypeGeneric
	}

	pages := make(map[int]struct{})
	totalChars := 0
	for _, b := range blocks {
		if b.Page > 0 {
			pages[b.Page] = struct{}{}
		}
		totalChars += len(b.Text)
	}
	pageCount := len(pages)
	if pageCount == 0 {
		pageCount = 1
	}
	if pageCount >= scanMinPages && totalChars/pageCount < scanAvgCharsLimit {
		return DocTypeScan
	}

	sample := lowerSample(blocks, sampleMaxChars)

	scores := map[string]int{}
	bump := func(docType string, points int, present bool) {
		if present {
			scores[docType] += points
		}
	}

	bump(DocTypeScholarly, 2, strings.Contains(sample, "abstract"))
	bump(DocTypeScholarly, 2, strings.Contains(sample, "references") || strings.Contains(sample, "bibliography"))
	bump(DocTypeScholarly, 2, strings.Contains(sample, "arxiv") || strings.Contains(sample, "doi"))
	bump(DocTypeScholarly, 1, scholarlyHeadingRe.MatchString(sample))

	bump(DocTypeFinancial, 3, strings.Contains(sample, "consolidated financial statements"))
	bump(DocTypeFinancial, 2, strings.Contains(sample, "balance sheet"))
	bump(DocTypeFinancial, 2, strings.Contains(sample, "income statement") || strings.Contains(sample, "statement of income"))
	bump(DocTypeFinancial, 2, strings.Contains(sample, "cash flow"))
	bump(DocTypeFinancial, 2, strings.Contains(sample, "notes to the financial statements"))
	bump(DocTypeFinancial, 1, strings.Contains(sample, "fair value"))
	bump(DocTypeFinancial, 1, strings.Contains(sample, "assets") && strings.Contains(sample, "liabilit"))

	bump(DocTypeLegal, 2, strings.Contains(sample, "agreement"))
	bump(DocTypeLegal, 2, strings.Contains(sample, "governing law"))
	bump(DocTypeLegal, 2, strings.Contains(sample, "indemnif"))
	bump(DocTypeLegal, 1, strings.Contains(sample, "whereas"))
	bump(DocTypeLegal, 2, legalSectionRefRe.MatchString(sample))
	bump(DocTypeLegal, 1, numberedClauseRe.MatchString(sample))

	best, bestScore := DocTypeGeneric, 0
	for _, docType := range []string{DocTypeScholarly, DocTypeFinancial, DocTypeLegal} {
		if scores[docType] > bestScore {
			best, bestScore = docType, scores[docType]
		}
	}
	if bestScore < minTypeScore {
		return DocTypeGeneric
	}
	return best
}

// lowerSample joins block text and section labels, lowercased, capped at
// maxChars.
func lowerSample(blocks []Block, maxChars int) string {
	var sb strings.Builder
	for _, b := range blocks {
		if b.Text != "" {
			sb.WriteString(b.Text)
			sb.WriteByte('\n')
		}
		if b.Section != "" {
			sb.WriteString(b.Section)
			sb.WriteByte('\n')
		}
		if sb.Len() >= maxChars {
			break
		}
	}
	s := sb.String()
	if len(s) > maxChars {
		s = s[:maxChars]
	}
	return strings.ToLower(s)
}
