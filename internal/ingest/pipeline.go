package ingest

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	"github.com/citeseek/citeseek/internal/index"
)

// ErrNoContent is returned when a request produces no indexable chunks.
var ErrNoContent = errors.New("ingest: no indexable content")

// Chunk texts sent to the embedder per call. Keeps request payloads well
// under provider limits.
const embedBatchSize = 32

// Ingestor runs the chunk-embed-upsert pipeline for one namespace
// configuration.
type Ingestor struct {
	embedder Embedder
	store    Store
	defaults Profile
	logger   *slog.Logger
}

// NewIngestor wires an Ingestor. defaults supplies the chunking profile
// for generic documents.
func NewIngestor(embedder Embedder, store Store, defaults Profile, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{embedder: embedder, store: store, defaults: defaults, logger: logger}
}

// Ingest chunks, embeds, and indexes one document, then refreshes the
// namespace lexical stats. The document row is written last so a document
// only becomes listed once its chunks are queryable.
func (ing *Ingestor) Ingest(ctx context.Context, req Request) (Result, error) {
	if len(req.Blocks) == 0 {
		return Result{}, ErrNoContent
	}
	if req.Namespace == "" {
		return Result{}, errors.New("ingest: namespace is required")
	}

	docID := req.DocID
	if docID == "" {
		docID = stableDocID(req.Blocks)
	}

	docType := req.DocType
	if docType == "" {
		docType = DetectDocType(req.Blocks)
	}
	profile := ProfileFor(docType, ing.defaults)
	if req.ChunkChars > 0 {
		profile.ChunkChars = req.ChunkChars
	}
	if req.OverlapChars > 0 {
		profile.OverlapChars = req.OverlapChars
	}

	chunks, dropped := chunkBlocks(docID, docType, req.Filename, req.Blocks, profile)
	if len(chunks) == 0 {
		return Result{}, ErrNoContent
	}

	for start := 0; start < len(chunks); start += embedBatchSize {
		end := min(start+embedBatchSize, len(chunks))
		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.Content)
		}
		embeddings, err := ing.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return Result{}, fmt.Errorf("embedding chunks [%d:%d]: %w", start, end, err)
		}
		if len(embeddings) != end-start {
			return Result{}, fmt.Errorf("embedder returned %d vectors for %d texts", len(embeddings), end-start)
		}
		for i := start; i < end; i++ {
			chunks[i].Embedding = embeddings[i-start]
		}
	}

	// Replace any previous version of this document before writing.
	if err := ing.store.DeleteDocument(ctx, req.Namespace, docID); err != nil {
		return Result{}, fmt.Errorf("replacing document %q: %w", docID, err)
	}
	if err := ing.store.UpsertChunks(ctx, req.Namespace, chunks); err != nil {
		return Result{}, fmt.Errorf("indexing chunks: %w", err)
	}
	if err := ing.store.RefreshStats(ctx, req.Namespace); err != nil {
		return Result{}, fmt.Errorf("refreshing stats: %w", err)
	}

	pages := pageCount(req.Blocks)
	if err := ing.store.RecordDocument(ctx, documentRecord(docID, req, docType, pages, len(chunks))); err != nil {
		return Result{}, fmt.Errorf("recording document: %w", err)
	}

	ing.logger.Info("document ingested",
		"doc_id", docID,
		"namespace", req.Namespace,
		"doc_type", docType,
		"pages", pages,
		"chunks", len(chunks),
		"dropped", dropped,
	)

	return Result{
		DocID:     docID,
		Filename:  req.Filename,
		Namespace: req.Namespace,
		DocType:   docType,
		Pages:     pages,
		Chunks:    len(chunks),
		Dropped:   dropped,
	}, nil
}

func documentRecord(docID string, req Request, docType string, pages, chunkCount int) index.Document {
	return index.Document{
		DocID:      docID,
		Namespace:  req.Namespace,
		Filename:   req.Filename,
		DocType:    docType,
		Pages:      pages,
		ChunkCount: chunkCount,
	}
}

func pageCount(blocks []Block) int {
	pages := make(map[int]struct{})
	for _, b := range blocks {
		if b.Page > 0 {
			pages[b.Page] = struct{}{}
		}
	}
	if len(pages) == 0 {
		return 1
	}
	return len(pages)
}

// stableDocID hashes block content so identical input yields the same id.
func stableDocID(blocks []Block) string {
	h := sha1.New()
	for _, b := range blocks {
		fmt.Fprintf(h, "%d|%s|%s\n", b.Page, b.Section, b.Text)
	}
	return hex.EncodeToString(h.Sum(nil))
}
