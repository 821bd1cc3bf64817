package index

import "time"

// Chunk is a contiguous passage of a document with positional metadata,
// the unit of indexing and retrieval. Chunks are immutable once indexed;
// re-ingesting a document replaces its chunks wholesale.
type Chunk struct {
	ChunkID     string
	DocID       string
	Content     string
	PageStart   int
	PageEnd     int
	Section     string
	DocType     string
	Source      string
	ContextType string
	Embedding   []float32
}

// Document records ingestion completion for a doc_id. Retrieval reads it
// only to report indexed documents; it never writes here.
type Document struct {
	DocID      string
	Namespace  string
	Filename   string
	DocType    string
	Pages      int
	ChunkCount int
	CreatedAt  time.Time
}

// Match is a single similarity query hit.
type Match struct {
	ChunkID string
	Score   float64
	Meta    ChunkMeta
}

// ChunkMeta carries the metadata columns returned with each match. The
// retriever re-validates these against the requested filter because index
// filtering is treated as best-effort.
type ChunkMeta struct {
	DocID       string
	Content     string
	PageStart   int
	PageEnd     int
	Section     string
	DocType     string
	Source      string
	ContextType string
}

// Filter restricts a similarity query. Zero values mean "no restriction".
type Filter struct {
	DocID        string
	Section      string
	PageStart    int
	PageEnd      int
	ContextTypes []string
}

// Matches reports whether meta satisfies the filter. Used by the retriever
// for defensive re-validation of server-side filtering.
func (f Filter) Matches(meta ChunkMeta) bool {
	if f.DocID != "" && meta.DocID != f.DocID {
		return false
	}
	if f.Section != "" && meta.Section != f.Section {
		return false
	}
	if f.PageStart > 0 && meta.PageEnd < f.PageStart {
		return false
	}
	if f.PageEnd > 0 && meta.PageStart > f.PageEnd {
		return false
	}
	if len(f.ContextTypes) > 0 {
		ok := false
		for _, ct := range f.ContextTypes {
			if meta.ContextType == ct {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

// LexicalStats summarizes the lexical signal for one namespace. A zero
// ChunkCount means the sparse retrieval path is unavailable there.
type LexicalStats struct {
	Namespace   string
	ChunkCount  int64
	AvgChunkLen float64
	UpdatedAt   time.Time
}
