// Package retrieval stores embedded chunks in PostgreSQL and searches
// them by vector similarity, with optional metadata filtering and
// lexical reranking.
package retrieval

import (
	"github.com/google/uuid"
)

// Chunk is an embedded piece of source text ready for storage.
type Chunk struct {
	ID        uuid.UUID
	Text      string
	Metadata  map[string]any
	Embedding []float32
}

// Result is a search hit. Similarity is cosine similarity in [-1, 1]
// derived from the pgvector cosine distance. RerankScore is populated
// only when the result passed through the reranker.
type Result struct {
	ID          uuid.UUID
	Text        string
	Metadata    map[string]any
	Similarity  float32
	RerankScore float32
}

// Filter restricts search to chunks whose metadata contains all the
// given key/value pairs (JSONB containment, AND semantics).
type Filter map[string]any
