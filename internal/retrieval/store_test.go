package retrieval

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// mockQuerier records calls and serves canned rows.
type mockQuerier struct {
	rows         []SearchChunksRow
	err          error
	lastFilter   []byte
	lastLimit    int32
	filtered     bool
	unfiltered   bool
	upserted     []UpsertChunkParams
	deletedCount int64
}

func (m *mockQuerier) UpsertChunk(_ context.Context, arg UpsertChunkParams) error {
	m.upserted = append(m.upserted, arg)
	return m.err
}

func (m *mockQuerier) SearchChunks(_ context.Context, _ pgvector.Vector, filter []byte, limit int32) ([]SearchChunksRow, error) {
	m.filtered = true
	m.lastFilter = filter
	m.lastLimit = limit
	return m.rows, m.err
}

func (m *mockQuerier) SearchChunksAll(_ context.Context, _ pgvector.Vector, limit int32) ([]SearchChunksRow, error) {
	m.unfiltered = true
	m.lastLimit = limit
	return m.rows, m.err
}

func (m *mockQuerier) CountChunks(_ context.Context, filter []byte) (int64, error) {
	m.lastFilter = filter
	return int64(len(m.rows)), m.err
}

func (m *mockQuerier) DeleteChunks(_ context.Context, filter []byte) (int64, error) {
	m.lastFilter = filter
	return m.deletedCount, m.err
}

// mockEmbedder returns a fixed vector.
type mockEmbedder struct {
	err error
}

func (m *mockEmbedder) EmbedText(context.Context, string) ([]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func row(similarity float64, metadata string) SearchChunksRow {
	return SearchChunksRow{
		ID:         uuid.New(),
		Text:       "chunk text",
		Metadata:   []byte(metadata),
		Similarity: similarity,
	}
}

func TestSearch_Unfiltered(t *testing.T) {
	querier := &mockQuerier{rows: []SearchChunksRow{
		row(0.9, `{"source":"devotional"}`),
		row(0.8, `{"source":"bible"}`),
	}}
	store := NewStore(querier, &mockEmbedder{}, nil)

	results, err := store.Search(context.Background(), "grace", WithTopK(7))
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}

	if !querier.unfiltered || querier.filtered {
		t.Error("expected the unfiltered query path")
	}
	if querier.lastLimit != 7 {
		t.Errorf("limit = %d, want 7", querier.lastLimit)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Similarity != 0.9 {
		t.Errorf("similarity = %v", results[0].Similarity)
	}
	if results[0].Metadata["source"] != "devotional" {
		t.Errorf("metadata = %v", results[0].Metadata)
	}
}

func TestSearch_FilterUsesContainmentQuery(t *testing.T) {
	querier := &mockQuerier{rows: []SearchChunksRow{row(0.9, `{"source":"bible","book":"John"}`)}}
	store := NewStore(querier, &mockEmbedder{}, nil)

	_, err := store.Search(context.Background(), "light of the world",
		WithFilter(Filter{"source": "bible", "book": "John"}))
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}

	if !querier.filtered {
		t.Fatal("expected the filtered query path")
	}
	var got map[string]any
	if err := json.Unmarshal(querier.lastFilter, &got); err != nil {
		t.Fatalf("filter is not valid JSON: %v", err)
	}
	if got["source"] != "bible" || got["book"] != "John" {
		t.Errorf("filter = %v", got)
	}
}

func TestSearch_MinSimilarityDropsWeakHits(t *testing.T) {
	querier := &mockQuerier{rows: []SearchChunksRow{
		row(0.92, `{}`),
		row(0.40, `{}`),
		row(0.10, `{}`),
	}}
	store := NewStore(querier, &mockEmbedder{}, nil)

	results, err := store.Search(context.Background(), "q", WithMinSimilarity(0.35))
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2 above threshold", len(results))
	}
	for _, r := range results {
		if r.Similarity < 0.35 {
			t.Errorf("result below threshold survived: %v", r.Similarity)
		}
	}
}

func TestSearch_EmbedErrorSurfaces(t *testing.T) {
	wantErr := errors.New("provider down")
	store := NewStore(&mockQuerier{}, &mockEmbedder{err: wantErr}, nil)

	if _, err := store.Search(context.Background(), "q"); !errors.Is(err, wantErr) {
		t.Fatalf("Search() error = %v, want wrapped %v", err, wantErr)
	}
}

func TestSearch_QuerierErrorSurfaces(t *testing.T) {
	wantErr := errors.New("connection reset")
	store := NewStore(&mockQuerier{err: wantErr}, &mockEmbedder{}, nil)

	if _, err := store.Search(context.Background(), "q"); !errors.Is(err, wantErr) {
		t.Fatalf("Search() error = %v, want %v", err, wantErr)
	}
}

func TestUpsert(t *testing.T) {
	querier := &mockQuerier{}
	store := NewStore(querier, &mockEmbedder{}, nil)

	chunks := []Chunk{
		{ID: uuid.New(), Text: "a", Metadata: map[string]any{"source": "devotional"}, Embedding: []float32{1, 0}},
		{ID: uuid.New(), Text: "b", Metadata: map[string]any{"source": "bible"}, Embedding: []float32{0, 1}},
	}
	if err := store.Upsert(context.Background(), chunks); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}
	if len(querier.upserted) != 2 {
		t.Fatalf("upserted %d chunks, want 2", len(querier.upserted))
	}
	if querier.upserted[0].ID != chunks[0].ID {
		t.Error("upsert order does not match input")
	}
}

func TestDelete_RequiresFilter(t *testing.T) {
	store := NewStore(&mockQuerier{}, &mockEmbedder{}, nil)
	if _, err := store.Delete(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty filter")
	}
}

func TestDelete(t *testing.T) {
	querier := &mockQuerier{deletedCount: 12}
	store := NewStore(querier, &mockEmbedder{}, nil)

	deleted, err := store.Delete(context.Background(), Filter{"source": "devotional"})
	if err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if deleted != 12 {
		t.Errorf("deleted = %d, want 12", deleted)
	}
}
