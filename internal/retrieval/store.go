package retrieval

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/manna-labs/manna/internal/log"
)

// Default search parameters.
const (
	DefaultTopK          = 5
	DefaultMinSimilarity = 0.25
)

// Querier is the database surface Store depends on. The interface lives
// with its consumer so tests can substitute a mock; *Queries is the
// production implementation.
type Querier interface {
	UpsertChunk(ctx context.Context, arg UpsertChunkParams) error
	SearchChunks(ctx context.Context, embedding pgvector.Vector, filter []byte, limit int32) ([]SearchChunksRow, error)
	SearchChunksAll(ctx context.Context, embedding pgvector.Vector, limit int32) ([]SearchChunksRow, error)
	CountChunks(ctx context.Context, filter []byte) (int64, error)
	DeleteChunks(ctx context.Context, filter []byte) (int64, error)
}

// Embedder turns a query string into a vector. *embedding.Embedder
// satisfies it.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// Store searches embedded chunks by cosine similarity.
// Store is safe for concurrent use.
type Store struct {
	queries  Querier
	embedder Embedder
	logger   log.Logger
}

// NewStore creates a Store. A nil logger discards output.
func NewStore(queries Querier, embedder Embedder, logger log.Logger) *Store {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Store{
		queries:  queries,
		embedder: embedder,
		logger:   logger,
	}
}

// searchOptions collects the optional Search parameters.
type searchOptions struct {
	topK          int
	filter        Filter
	minSimilarity float32
}

// SearchOption customises a Search call.
type SearchOption func(*searchOptions)

// WithTopK sets the maximum number of results.
func WithTopK(k int) SearchOption {
	return func(o *searchOptions) {
		if k > 0 {
			o.topK = k
		}
	}
}

// WithFilter restricts results to chunks whose metadata contains filter.
func WithFilter(filter Filter) SearchOption {
	return func(o *searchOptions) { o.filter = filter }
}

// WithMinSimilarity drops results below the given cosine similarity.
func WithMinSimilarity(min float32) SearchOption {
	return func(o *searchOptions) { o.minSimilarity = min }
}

// Upsert embeds nothing; chunks arrive pre-embedded from the ingest
// pipeline and are written one statement per chunk.
func (s *Store) Upsert(ctx context.Context, chunks []Chunk) error {
	for _, chunk := range chunks {
		metadata, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata for chunk %s: %w", chunk.ID, err)
		}
		err = s.queries.UpsertChunk(ctx, UpsertChunkParams{
			ID:        chunk.ID,
			Text:      chunk.Text,
			Metadata:  metadata,
			Embedding: pgvector.NewVector(chunk.Embedding),
		})
		if err != nil {
			return err
		}
	}
	s.logger.Debug("upserted chunks", "count", len(chunks))
	return nil
}

// Search embeds the query and returns the nearest chunks, most similar
// first. Results below the minimum similarity are dropped after the
// database query, so fewer than topK results can come back.
func (s *Store) Search(ctx context.Context, query string, opts ...SearchOption) ([]Result, error) {
	options := searchOptions{
		topK:          DefaultTopK,
		minSimilarity: DefaultMinSimilarity,
	}
	for _, opt := range opts {
		opt(&options)
	}

	vector, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	embedding := pgvector.NewVector(vector)

	var rows []SearchChunksRow
	if len(options.filter) > 0 {
		filterJSON, err := json.Marshal(options.filter)
		if err != nil {
			return nil, fmt.Errorf("marshal filter: %w", err)
		}
		rows, err = s.queries.SearchChunks(ctx, embedding, filterJSON, int32(options.topK))
		if err != nil {
			return nil, err
		}
	} else {
		rows, err = s.queries.SearchChunksAll(ctx, embedding, int32(options.topK))
		if err != nil {
			return nil, err
		}
	}

	results := make([]Result, 0, len(rows))
	for _, row := range rows {
		similarity := float32(row.Similarity)
		if similarity < options.minSimilarity {
			continue
		}
		var metadata map[string]any
		if len(row.Metadata) > 0 {
			if err := json.Unmarshal(row.Metadata, &metadata); err != nil {
				return nil, fmt.Errorf("unmarshal metadata for chunk %s: %w", row.ID, err)
			}
		}
		results = append(results, Result{
			ID:         row.ID,
			Text:       row.Text,
			Metadata:   metadata,
			Similarity: similarity,
		})
	}

	s.logger.Debug("vector search",
		"hits", len(results),
		"fetched", len(rows),
		"top_k", options.topK,
		"filtered", len(options.filter) > 0,
	)
	return results, nil
}

// Count reports how many chunks match the filter; nil counts everything.
func (s *Store) Count(ctx context.Context, filter Filter) (int64, error) {
	var filterJSON []byte
	if len(filter) > 0 {
		var err error
		filterJSON, err = json.Marshal(filter)
		if err != nil {
			return 0, fmt.Errorf("marshal filter: %w", err)
		}
	}
	return s.queries.CountChunks(ctx, filterJSON)
}

// Delete removes chunks matching the filter and returns the count.
func (s *Store) Delete(ctx context.Context, filter Filter) (int64, error) {
	if len(filter) == 0 {
		return 0, fmt.Errorf("delete requires a non-empty filter")
	}
	filterJSON, err := json.Marshal(filter)
	if err != nil {
		return 0, fmt.Errorf("marshal filter: %w", err)
	}
	deleted, err := s.queries.DeleteChunks(ctx, filterJSON)
	if err != nil {
		return 0, err
	}
	s.logger.Info("deleted chunks", "count", deleted, "filter", filter)
	return deleted, nil
}
