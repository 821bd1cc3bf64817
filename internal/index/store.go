// Package index implements the chunk index over PostgreSQL + pgvector.
//
// Dense similarity uses cosine distance on the embedding column; the
// lexical (sparse) signal is full-text ts_rank_cd over a generated
// tsvector column on the same rows. Both query paths push metadata filters
// into SQL, but callers must treat that filtering as best-effort and
// re-validate returned metadata.
package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// matchColumns are the metadata columns selected with every query hit.
const matchColumns = `chunk_id, doc_id, content, page_start, page_end,
	coalesce(section, ''), doc_type, source, coalesce(context_type, '')`

// Store provides vector and lexical queries over the chunks table.
// Safe for concurrent use; all state lives in the pool.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// New creates a Store. A nil logger falls back to slog.Default().
func New(pool *pgxpool.Pool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}
}

// buildFilterSQL renders filter conditions as parameterized SQL fragments.
// args already holds the leading positional parameters; returned args
// include any appended filter values.
func buildFilterSQL(f Filter, args []any) (string, []any) {
	var conds []string
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.DocID != "" {
		add("doc_id = $%d", f.DocID)
	}
	if f.Section != "" {
		add("section = $%d", f.Section)
	}
	if f.PageStart > 0 {
		add("page_end >= $%d", f.PageStart)
	}
	if f.PageEnd > 0 {
		add("page_start <= $%d", f.PageEnd)
	}
	if len(f.ContextTypes) > 0 {
		add("context_type = ANY($%d)", f.ContextTypes)
	}

	if len(conds) == 0 {
		return "", args
	}
	return " AND " + strings.Join(conds, " AND "), args
}

// QueryDense runs a cosine-similarity query. Scores are 1 - distance, so
// higher is better. Results are ordered by similarity descending with
// chunk_id as a deterministic tiebreak.
func (s *Store) QueryDense(ctx context.Context, namespace string, embedding []float32, f Filter, topK int) ([]Match, error) {
	vec := pgvector.NewVector(embedding)
	args := []any{namespace, vec}
	filterSQL, args := buildFilterSQL(f, args)
	args = append(args, topK)

	query := fmt.Sprintf(`
		SELECT %s, 1 - (embedding <=> $2) AS score
		FROM chunks
		WHERE namespace = $1%s
		ORDER BY embedding <=> $2, chunk_id
		LIMIT $%d`, matchColumns, filterSQL, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("dense query: %w", err)
	}
	defer rows.Close()

	return scanMatches(rows)
}

// QueryLexical runs a full-text query using websearch syntax. Scores are
// ts_rank_cd values; they share no scale with dense scores, which is why
// fusion normalizes both sides independently.
func (s *Store) QueryLexical(ctx context.Context, namespace, query string, f Filter, topK int) ([]Match, error) {
	args := []any{namespace, query}
	filterSQL, args := buildFilterSQL(f, args)
	args = append(args, topK)

	sql := fmt.Sprintf(`
		SELECT %s, ts_rank_cd(tsv, websearch_to_tsquery('english', $2))::float8 AS score
		FROM chunks
		WHERE namespace = $1 AND tsv @@ websearch_to_tsquery('english', $2)%s
		ORDER BY score DESC, chunk_id
		LIMIT $%d`, matchColumns, filterSQL, len(args))

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("lexical query: %w", err)
	}
	defer rows.Close()

	return scanMatches(rows)
}

func scanMatches(rows pgx.Rows) ([]Match, error) {
	var matches []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(
			&m.ChunkID, &m.Meta.DocID, &m.Meta.Content,
			&m.Meta.PageStart, &m.Meta.PageEnd, &m.Meta.Section,
			&m.Meta.DocType, &m.Meta.Source, &m.Meta.ContextType,
			&m.Score,
		); err != nil {
			return nil, fmt.Errorf("scanning match: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading matches: %w", err)
	}
	return matches, nil
}

// Stats returns the lexical stats row for a namespace. A missing row is
// not an error; it returns a zero-count LexicalStats, which callers read
// as "sparse path unavailable".
func (s *Store) Stats(ctx context.Context, namespace string) (LexicalStats, error) {
	stats := LexicalStats{Namespace: namespace}
	err := s.pool.QueryRow(ctx,
		`SELECT chunk_count, avg_chunk_len, updated_at FROM lexical_stats WHERE namespace = $1`,
		namespace,
	).Scan(&stats.ChunkCount, &stats.AvgChunkLen, &stats.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return LexicalStats{Namespace: namespace}, nil
	}
	if err != nil {
		return LexicalStats{}, fmt.Errorf("reading lexical stats: %w", err)
	}
	return stats, nil
}

// UpsertChunks writes a batch of chunks. Ingestion-side only; retrieval
// never calls this.
func (s *Store) UpsertChunks(ctx context.Context, namespace string, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, c := range chunks {
		batch.Queue(`
			INSERT INTO chunks (chunk_id, namespace, doc_id, content, page_start, page_end,
				section, doc_type, source, context_type, embedding)
			VALUES ($1, $2, $3, $4, $5, $6, nullif($7, ''), $8, $9, nullif($10, ''), $11)
			ON CONFLICT (chunk_id) DO UPDATE SET
				content = excluded.content,
				page_start = excluded.page_start,
				page_end = excluded.page_end,
				section = excluded.section,
				doc_type = excluded.doc_type,
				source = excluded.source,
				context_type = excluded.context_type,
				embedding = excluded.embedding`,
			c.ChunkID, namespace, c.DocID, c.Content, c.PageStart, c.PageEnd,
			c.Section, c.DocType, c.Source, c.ContextType, pgvector.NewVector(c.Embedding),
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer func() {
		if err := results.Close(); err != nil {
			s.logger.Warn("closing upsert batch", "error", err)
		}
	}()

	for range chunks {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("upserting chunk batch: %w", err)
		}
	}

	s.logger.Debug("upserted chunks", "namespace", namespace, "count", len(chunks))
	return nil
}

// RecordDocument upserts the ingestion completion row for a document.
// This is the signal callers watch for queryability of a fresh upload.
func (s *Store) RecordDocument(ctx context.Context, doc Document) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO documents (doc_id, namespace, filename, doc_type, pages, chunk_count)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (doc_id) DO UPDATE SET
			namespace = excluded.namespace,
			filename = excluded.filename,
			doc_type = excluded.doc_type,
			pages = excluded.pages,
			chunk_count = excluded.chunk_count`,
		doc.DocID, doc.Namespace, doc.Filename, doc.DocType, doc.Pages, doc.ChunkCount,
	)
	if err != nil {
		return fmt.Errorf("recording document %q: %w", doc.DocID, err)
	}
	return nil
}

// ListDocuments returns indexed documents in a namespace, newest first.
func (s *Store) ListDocuments(ctx context.Context, namespace string, limit int) ([]Document, error) {
	const maxListLimit = 1000
	if limit <= 0 || limit > maxListLimit {
		return nil, fmt.Errorf("limit must be between 1 and %d, got %d", maxListLimit, limit)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT doc_id, namespace, filename, doc_type, coalesce(pages, 0), chunk_count, created_at
		FROM documents
		WHERE namespace = $1
		ORDER BY created_at DESC
		LIMIT $2`, namespace, limit)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.DocID, &d.Namespace, &d.Filename, &d.DocType, &d.Pages, &d.ChunkCount, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading documents: %w", err)
	}
	return docs, nil
}

// DeleteDocument removes a document and its chunks, then refreshes the
// namespace lexical stats.
func (s *Store) DeleteDocument(ctx context.Context, namespace, docID string) error {
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM chunks WHERE namespace = $1 AND doc_id = $2`, namespace, docID); err != nil {
		return fmt.Errorf("deleting chunks for %q: %w", docID, err)
	}
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM documents WHERE doc_id = $1`, docID); err != nil {
		return fmt.Errorf("deleting document %q: %w", docID, err)
	}
	if err := s.RefreshStats(ctx, namespace); err != nil {
		return err
	}
	s.logger.Debug("deleted document", "namespace", namespace, "doc_id", docID)
	return nil
}

// RefreshStats recomputes the lexical stats row from the chunks table.
// Ingestion calls this after every upsert so the sparse availability
// signal tracks reality.
func (s *Store) RefreshStats(ctx context.Context, namespace string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO lexical_stats (namespace, chunk_count, avg_chunk_len, updated_at)
		SELECT $1, count(*), coalesce(avg(length(content)), 0), now()
		FROM chunks WHERE namespace = $1
		ON CONFLICT (namespace) DO UPDATE SET
			chunk_count = excluded.chunk_count,
			avg_chunk_len = excluded.avg_chunk_len,
			updated_at = excluded.updated_at`, namespace)
	if err != nil {
		return fmt.Errorf("refreshing lexical stats: %w", err)
	}
	return nil
}
