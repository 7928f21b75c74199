package config

import (
	"fmt"
	"math"
	"os"
)

// Validate checks the configuration for invalid or inconsistent values.
// It returns the first error found; all errors wrap a package sentinel so
// callers can match with errors.Is.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI:
		if os.Getenv("OPENAI_API_KEY") == "" {
			return fmt.Errorf("%w: OPENAI_API_KEY not set", ErrMissingAPIKey)
		}
	case ProviderGemini:
		if os.Getenv("GEMINI_API_KEY") == "" {
			return fmt.Errorf("%w: GEMINI_API_KEY not set", ErrMissingAPIKey)
		}
	default:
		return fmt.Errorf("%w: %q (expected %q or %q)", ErrInvalidProvider, c.Provider, ProviderOpenAI, ProviderGemini)
	}

	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("%w: %v (expected 0.0-2.0)", ErrInvalidTemperature, c.Temperature)
	}
	if c.MaxTokens < 1 || c.MaxTokens > 1<<20 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxTokens, c.MaxTokens)
	}

	if c.EmbedDimensions < 1 || c.EmbedDimensions > 1<<15 {
		return fmt.Errorf("%w: %d", ErrInvalidEmbedDimensions, c.EmbedDimensions)
	}
	if c.EmbedBatchSize < 1 {
		return fmt.Errorf("%w: embed_batch_size must be positive, got %d", ErrInvalidChunking, c.EmbedBatchSize)
	}

	if c.ChunkSize < 1 {
		return fmt.Errorf("%w: chunk_size must be positive, got %d", ErrInvalidChunking, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap %d must be in [0, chunk_size)", ErrInvalidChunking, c.ChunkOverlap)
	}

	if c.TopK < 1 || c.TopK > 100 {
		return fmt.Errorf("%w: %d (expected 1-100)", ErrInvalidTopK, c.TopK)
	}
	if c.MinSimilarity < -1 || c.MinSimilarity > 1 {
		return fmt.Errorf("%w: %v (expected -1.0-1.0)", ErrInvalidMinSimilarity, c.MinSimilarity)
	}

	if c.RerankSimilarityWeight < 0 || c.RerankLexicalWeight < 0 {
		return fmt.Errorf("%w: weights must be non-negative", ErrInvalidRerankWeights)
	}
	if sum := c.RerankSimilarityWeight + c.RerankLexicalWeight; math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("%w: weights must sum to 1.0, got %v", ErrInvalidRerankWeights, sum)
	}

	if c.PostgresHost == "" {
		return fmt.Errorf("%w: host is empty", ErrInvalidPostgresHost)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPostgresPort, c.PostgresPort)
	}

	return nil
}
