package retrieval

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"
)

// DBTX is the subset of pgx used by Queries. Both *pgxpool.Pool and
// pgx.Tx satisfy it, so queries run the same inside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries runs the chunk SQL against a pgx connection source.
type Queries struct {
	db DBTX
}

// NewQueries creates a Queries bound to db.
func NewQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

// UpsertChunkParams are the column values for an insert-or-update.
type UpsertChunkParams struct {
	ID        uuid.UUID
	Text      string
	Metadata  []byte
	Embedding pgvector.Vector
}

// SearchChunksRow is one raw vector search hit.
type SearchChunksRow struct {
	ID         uuid.UUID
	Text       string
	Metadata   []byte
	Similarity float64
}

const upsertChunkSQL = `
INSERT INTO chunks (id, text_content, metadata, embedding)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE
SET text_content = EXCLUDED.text_content,
    metadata     = EXCLUDED.metadata,
    embedding    = EXCLUDED.embedding`

// UpsertChunk inserts a chunk or replaces it when the id exists.
func (q *Queries) UpsertChunk(ctx context.Context, arg UpsertChunkParams) error {
	_, err := q.db.Exec(ctx, upsertChunkSQL, arg.ID, arg.Text, arg.Metadata, arg.Embedding)
	if err != nil {
		return fmt.Errorf("upsert chunk %s: %w", arg.ID, err)
	}
	return nil
}

// Similarity is computed from the cosine distance operator so the same
// expression drives both the returned score and the index-backed order.
// The id tie-break makes equal-distance orderings deterministic.
const searchChunksSQL = `
SELECT id, text_content, metadata, 1 - (embedding <=> $1) AS similarity
FROM chunks
WHERE metadata @> $2
ORDER BY embedding <=> $1, id
LIMIT $3`

const searchChunksAllSQL = `
SELECT id, text_content, metadata, 1 - (embedding <=> $1) AS similarity
FROM chunks
ORDER BY embedding <=> $1, id
LIMIT $2`

// SearchChunks returns the limit nearest chunks whose metadata contains
// the filter document, ordered by ascending cosine distance.
func (q *Queries) SearchChunks(ctx context.Context, embedding pgvector.Vector, filter []byte, limit int32) ([]SearchChunksRow, error) {
	rows, err := q.db.Query(ctx, searchChunksSQL, embedding, filter, limit)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}
	return scanSearchRows(rows)
}

// SearchChunksAll returns the limit nearest chunks with no filter.
func (q *Queries) SearchChunksAll(ctx context.Context, embedding pgvector.Vector, limit int32) ([]SearchChunksRow, error) {
	rows, err := q.db.Query(ctx, searchChunksAllSQL, embedding, limit)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}
	return scanSearchRows(rows)
}

func scanSearchRows(rows pgx.Rows) ([]SearchChunksRow, error) {
	defer rows.Close()

	var results []SearchChunksRow
	for rows.Next() {
		var row SearchChunksRow
		if err := rows.Scan(&row.ID, &row.Text, &row.Metadata, &row.Similarity); err != nil {
			return nil, fmt.Errorf("scan chunk row: %w", err)
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read chunk rows: %w", err)
	}
	return results, nil
}

// CountChunks counts chunks matching the filter; a nil filter counts all.
func (q *Queries) CountChunks(ctx context.Context, filter []byte) (int64, error) {
	var count int64
	var err error
	if filter == nil {
		err = q.db.QueryRow(ctx, `SELECT count(*) FROM chunks`).Scan(&count)
	} else {
		err = q.db.QueryRow(ctx, `SELECT count(*) FROM chunks WHERE metadata @> $1`, filter).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return count, nil
}

// DeleteChunks removes chunks matching the filter and reports how many
// rows went away. Re-ingesting a source deletes its old chunks first.
func (q *Queries) DeleteChunks(ctx context.Context, filter []byte) (int64, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM chunks WHERE metadata @> $1`, filter)
	if err != nil {
		return 0, fmt.Errorf("delete chunks: %w", err)
	}
	return tag.RowsAffected(), nil
}
