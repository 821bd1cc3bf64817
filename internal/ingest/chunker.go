package ingest

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/citeseek/citeseek/internal/index"
	"github.com/citeseek/citeseek/internal/textutil"
)

// Block types that stand alone as chunks: splitting them mid-way destroys
// their meaning, and merging them with prose pollutes both.
func standaloneBlock(blockType string) bool {
	switch strings.ToLower(blockType) {
	case "table", "footnote", "reference", "clause":
		return true
	}
	return false
}

// chunker packs blocks into overlapping windows without crossing section
// boundaries. One instance per document; not safe for concurrent use.
type chunker struct {
	docID        string
	docType      string
	source       string
	chunkChars   int
	overlapChars int

	chunks  []index.Chunk
	dropped int

	buf         []string
	bufLen      int
	pageStart   int
	pageEnd     int
	section     string
	contextType string

	// tailSeeded marks a buffer holding only the overlap carried from the
	// previous chunk. Such a buffer must never be emitted on its own: it
	// would duplicate the previous chunk's tail under reset page metadata.
	tailSeeded bool
}

// chunkBlocks runs the full chunking pass. Flagged (injection-suspicious)
// chunks are counted in dropped and never emitted.
func chunkBlocks(docID, docType, source string, blocks []Block, profile Profile) ([]index.Chunk, int) {
	c := &chunker{
		docID:        docID,
		docType:      docType,
		source:       source,
		chunkChars:   profile.ChunkChars,
		overlapChars: profile.OverlapChars,
	}

	for _, b := range blocks {
		text := textutil.NormalizeWhitespace(b.Text)
		if text == "" {
			continue
		}
		sec := b.Section
		if sec == "" {
			sec = c.section
		}

		// A section change or a standalone block closes the open window.
		if c.section != "" && sec != "" && sec != c.section && len(c.buf) > 0 {
			c.flush(false)
		}
		if standaloneBlock(b.BlockType) && len(c.buf) > 0 {
			c.flush(false)
		}

		if c.pageStart == 0 {
			c.pageStart = b.Page
		}
		c.pageEnd = b.Page
		c.section = sec

		if standaloneBlock(b.BlockType) && len(text) <= c.chunkChars {
			c.buf = []string{text}
			c.bufLen = len(text)
			c.tailSeeded = false
			c.contextType = strings.ToLower(b.BlockType)
			c.flush(true)
			continue
		}

		addLen := len(text)
		if len(c.buf) > 0 {
			addLen += 2 // "\n\n" separator
		}

		if c.bufLen+addLen <= c.chunkChars {
			c.buf = append(c.buf, text)
			c.bufLen += addLen
			c.tailSeeded = false
			continue
		}

		c.flush(false)
		if c.pageStart == 0 {
			c.pageStart = b.Page
		}
		c.pageEnd = b.Page
		c.section = sec

		if len(text) > c.chunkChars {
			c.sliceOversize(text, b.Page, sec)
			continue
		}
		c.buf = append(c.buf, text)
		c.bufLen += len(text)
		c.tailSeeded = false
	}

	c.flush(true)
	return c.chunks, c.dropped
}

// sliceOversize splits a block longer than one window into overlapping
// pieces that all carry the block's own page and section.
func (c *chunker) sliceOversize(text string, page int, section string) {
	step := c.chunkChars - c.overlapChars
	if step < 1 {
		step = 1
	}
	for start := 0; start < len(text); start += step {
		end := start + c.chunkChars
		if end > len(text) {
			end = len(text)
		}
		c.pageStart = page
		c.pageEnd = page
		c.section = section
		c.buf = []string{text[start:end]}
		c.bufLen = end - start
		c.tailSeeded = false
		c.flush(false)
	}
}

func (c *chunker) flush(final bool) {
	if len(c.buf) == 0 {
		return
	}
	if c.tailSeeded {
		// Nothing was added after the overlap carry; discard it.
		c.tailSeeded = false
		c.reset(final)
		return
	}
	text := textutil.NormalizeWhitespace(strings.Join(c.buf, "\n\n"))
	if text == "" {
		c.reset(final)
		return
	}

	if textutil.Suspicious(text) {
		c.dropped++
		c.buf = nil
		c.bufLen = 0
		c.pageStart = 0
		c.pageEnd = 0
		c.contextType = ""
		return
	}

	pageStart := c.pageStart
	if pageStart == 0 {
		pageStart = 1
	}
	pageEnd := c.pageEnd
	if pageEnd == 0 {
		pageEnd = pageStart
	}

	c.chunks = append(c.chunks, index.Chunk{
		ChunkID:     chunkID(c.docID, pageStart, pageEnd, c.section, text),
		DocID:       c.docID,
		Content:     text,
		PageStart:   pageStart,
		PageEnd:     pageEnd,
		Section:     c.section,
		DocType:     c.docType,
		Source:      c.source,
		ContextType: c.contextType,
	})

	c.reset(final)
	if !final && c.overlapChars > 0 && c.contextType == "" {
		tail := text
		if len(tail) > c.overlapChars {
			tail = tail[len(tail)-c.overlapChars:]
		}
		c.buf = []string{tail}
		c.bufLen = len(tail)
		c.tailSeeded = true
	}
	c.contextType = ""
}

// reset clears the window but keeps section as the last-known label.
func (c *chunker) reset(final bool) {
	c.buf = nil
	c.bufLen = 0
	c.pageStart = 0
	c.pageEnd = 0
	if final {
		c.contextType = ""
	}
}

// chunkID derives a stable id from the chunk's identity: position plus a
// prefix of its content. Re-ingesting identical content reuses ids.
func chunkID(docID string, pageStart, pageEnd int, section, text string) string {
	head := text
	if len(head) > 2000 {
		head = head[:2000]
	}
	sum := sha1.Sum([]byte(fmt.Sprintf("%s|%d|%d|%s|%s", docID, pageStart, pageEnd, section, head)))
	return docID + "-" + hex.EncodeToString(sum[:])[:12]
}
