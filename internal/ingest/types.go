// Package ingest turns pre-extracted document blocks into indexed chunks.
//
// Input is a sequence of text blocks carrying page, section, and block
// type metadata. The chunker packs blocks into overlapping windows that
// never cross a section boundary, embeds them, and writes them to the
// chunk index together with per-namespace lexical stats.
package ingest

import (
	"context"

	"github.com/citeseek/citeseek/internal/index"
)

// Block is one pre-extracted unit of document text. PDF extraction is out
// of scope; callers supply blocks from plain text or a JSON block file.
type Block struct {
	Page      int    `json:"page"`
	Section   string `json:"section,omitempty"`
	Text      string `json:"text"`
	BlockType string `json:"block_type,omitempty"`
}

// Request describes one document to ingest. DocID defaults to a content
// hash so re-ingesting identical bytes is idempotent.
type Request struct {
	DocID     string
	Filename  string
	Namespace string
	Blocks    []Block

	// DocType overrides heuristic detection when set.
	DocType string

	// ChunkChars and OverlapChars override the doc-type profile when > 0.
	ChunkChars   int
	OverlapChars int
}

// Result reports what an ingestion run produced.
type Result struct {
	DocID     string
	Filename  string
	Namespace string
	DocType   string
	Pages     int
	Chunks    int
	Dropped   int
}

// Embedder computes embeddings for chunk texts. Satisfied by the llm
// client.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Store is the index surface ingestion writes to. Satisfied by
// *index.Store.
type Store interface {
	UpsertChunks(ctx context.Context, namespace string, chunks []index.Chunk) error
	RecordDocument(ctx context.Context, doc index.Document) error
	RefreshStats(ctx context.Context, namespace string) error
	DeleteDocument(ctx context.Context, namespace, docID string) error
}
