// Package embedding converts text into fixed-dimension vectors via a
// provider client and provides the cosine similarity helper used across
// retrieval.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/manna-labs/manna/internal/log"
	"github.com/manna-labs/manna/internal/provider"
)

// ErrDimensionMismatch indicates two vectors of different lengths were
// compared. This points at a configuration bug (embedding dimension changed
// without re-indexing) and should be treated as fatal, never coerced.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// DefaultBatchSize is the number of texts sent per provider request.
const DefaultBatchSize = 100

// Embedder batches embedding requests against a provider client.
// Batches are issued sequentially to respect provider rate limits; results
// are concatenated in input order, so output[i] always corresponds to
// input[i].
type Embedder struct {
	client    provider.Client
	batchSize int
	logger    log.Logger
}

// New creates an Embedder. batchSize <= 0 selects DefaultBatchSize;
// a nil logger discards output.
func New(client provider.Client, batchSize int, logger log.Logger) *Embedder {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Embedder{
		client:    client,
		batchSize: batchSize,
		logger:    logger,
	}
}

// EmbedText embeds a single text.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("expected 1 embedding, got %d", len(vectors))
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts in provider-sized batches and concatenates the
// results in original order. Any provider error aborts the whole call; no
// partial results are returned.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))

		batch, err := e.client.Embed(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embedding batch %d-%d: %w", start, end, err)
		}
		if len(batch) != end-start {
			return nil, fmt.Errorf("embedding batch %d-%d: got %d vectors for %d inputs", start, end, len(batch), end-start)
		}
		vectors = append(vectors, batch...)
	}

	e.logger.Debug("embedded texts", "count", len(texts), "batch_size", e.batchSize)
	return vectors, nil
}

// CosineSimilarity computes dot(a,b) / (|a|*|b|). It is defined only for
// equal-length non-zero vectors; mismatched lengths return
// ErrDimensionMismatch rather than silently truncating.
func CosineSimilarity(a, b []float32) (float32, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("%w: empty vectors", ErrDimensionMismatch)
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB))), nil
}
