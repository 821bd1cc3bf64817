package config

import (
	"fmt"
	"os"
	"slices"
)

// Validate checks configuration values. Returns sentinel errors checkable
// with errors.Is().
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	validProviders := []string{ProviderGemini, ProviderOllama, ProviderOpenAI, ProviderGoogleAI}
	if !slices.Contains(validProviders, c.Provider) {
		return fmt.Errorf("%w: %q (must be one of %v)", ErrInvalidProvider, c.Provider, validProviders)
	}

	// Provider API keys are read by the Genkit plugins directly; fail fast
	// here so a missing key doesn't surface mid-pipeline.
	switch c.Provider {
	case ProviderGemini, ProviderGoogleAI:
		if os.Getenv("GEMINI_API_KEY") == "" {
			return fmt.Errorf("%w: GEMINI_API_KEY environment variable is required", ErrMissingAPIKey)
		}
	case ProviderOpenAI:
		if os.Getenv("OPENAI_API_KEY") == "" {
			return fmt.Errorf("%w: OPENAI_API_KEY environment variable is required", ErrMissingAPIKey)
		}
	}

	if c.ModelName == "" {
		return fmt.Errorf("%w: model_name cannot be empty", ErrInvalidModelName)
	}
	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder_model cannot be empty", ErrInvalidEmbedderModel)
	}

	// Candidate pool bounds. The pool feeds the reranker, so it must cover
	// at least one full evidence set.
	if c.TopK < 1 || c.TopK > 100 {
		return fmt.Errorf("%w: must be between 1 and 100, got %d", ErrInvalidTopK, c.TopK)
	}
	if c.RerankTopN < 1 || c.RerankTopN > 20 {
		return fmt.Errorf("%w: must be between 1 and 20, got %d", ErrInvalidRerankTopN, c.RerankTopN)
	}
	if c.RecallMultiplier < 1 || c.RecallMultiplier > 10 {
		return fmt.Errorf("%w: must be between 1 and 10, got %d", ErrInvalidRecallMultiplier, c.RecallMultiplier)
	}

	if c.DenseWeight < 0 || c.SparseWeight < 0 || c.DenseWeight+c.SparseWeight <= 0 {
		return fmt.Errorf("%w: dense=%.2f sparse=%.2f (must be non-negative and sum > 0)",
			ErrInvalidFusionWeights, c.DenseWeight, c.SparseWeight)
	}

	if c.CallTimeoutSeconds < 1 || c.CallTimeoutSeconds > 300 {
		return fmt.Errorf("%w: must be between 1 and 300 seconds, got %d", ErrInvalidCallTimeout, c.CallTimeoutSeconds)
	}

	if c.ChunkChars < 200 || c.ChunkChars > 20000 {
		return fmt.Errorf("%w: chunk_chars must be between 200 and 20000, got %d", ErrInvalidChunking, c.ChunkChars)
	}
	if c.ChunkOverlapChars < 0 || c.ChunkOverlapChars >= c.ChunkChars {
		return fmt.Errorf("%w: chunk_overlap_chars must be in [0, chunk_chars), got %d", ErrInvalidChunking, c.ChunkOverlapChars)
	}

	if c.PostgresHost == "" {
		return fmt.Errorf("%w: host cannot be empty", ErrInvalidPostgresHost)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: must be between 1 and 65535, got %d", ErrInvalidPostgresPort, c.PostgresPort)
	}
	if c.PostgresDBName == "" {
		return fmt.Errorf("%w: database name cannot be empty", ErrInvalidPostgresDBName)
	}

	return nil
}
