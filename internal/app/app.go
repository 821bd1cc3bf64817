// Package app provides application initialization and dependency wiring.
//
// App is the container that builds the full answering stack: database
// pool, Genkit provider, model client, index store, ingest pipeline,
// retriever, reranker, and the answer pipeline.
package app

import (
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/citeseek/citeseek/internal/config"
	"github.com/citeseek/citeseek/internal/index"
	"github.com/citeseek/citeseek/internal/ingest"
	"github.com/citeseek/citeseek/internal/llm"
	"github.com/citeseek/citeseek/internal/pipeline"
	"github.com/citeseek/citeseek/internal/retrieval"
)

// App is the application container.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	Genkit   *genkit.Genkit
	Embedder ai.Embedder
	DBPool   *pgxpool.Pool

	LLM       *llm.Client
	Store     *index.Store
	Ingestor  *ingest.Ingestor
	Retriever *retrieval.Retriever
	Reranker  *retrieval.Reranker
	Pipeline  *pipeline.Pipeline
}

// Close releases held resources.
func (a *App) Close() error {
	if a.DBPool != nil {
		a.DBPool.Close()
		a.Logger.Debug("database pool closed")
	}
	return nil
}
