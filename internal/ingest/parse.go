package ingest

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseBlocks converts raw file content into blocks. Files ending in
// .json must contain a JSON array of block objects; anything else is
// treated as plain text.
func ParseBlocks(filename string, data []byte) ([]Block, error) {
	if strings.HasSuffix(strings.ToLower(filename), ".json") {
		var blocks []Block
		if err := json.Unmarshal(data, &blocks); err != nil {
			return nil, fmt.Errorf("parsing block file %q: %w", filename, err)
		}
		for i := range blocks {
			if blocks[i].Page <= 0 {
				blocks[i].Page = 1
			}
		}
		return blocks, nil
	}
	return parseText(string(data)), nil
}

// parseText splits plain text into paragraph blocks. Form feeds mark page
// breaks, markdown-style "#" headings set the section label, and
// paragraphs where most lines are pipe-delimited become table blocks.
func parseText(text string) []Block {
	var blocks []Block
	page := 1
	section := ""

	for _, pageText := range strings.Split(text, "\f") {
		for _, para := range strings.Split(pageText, "\n\n") {
			para = strings.TrimSpace(para)
			if para == "" {
				continue
			}
			if heading, ok := parseHeading(para); ok {
				section = heading
				continue
			}
			blockType := "para"
			if looksLikeTable(para) {
				blockType = "table"
			}
			blocks = append(blocks, Block{
				Page:      page,
				Section:   section,
				Text:      para,
				BlockType: blockType,
			})
		}
		page++
	}
	return blocks
}

// parseHeading recognizes a single "# Title" line.
func parseHeading(para string) (string, bool) {
	if strings.Contains(para, "\n") || !strings.HasPrefix(para, "#") {
		return "", false
	}
	heading := strings.TrimSpace(strings.TrimLeft(para, "#"))
	if heading == "" {
		return "", false
	}
	return heading, true
}

func looksLikeTable(para string) bool {
	lines := strings.Split(para, "\n")
	piped := 0
	for _, line := range lines {
		if strings.Count(line, "|") >= 2 {
			piped++
		}
	}
	return piped*2 > len(lines)
}
