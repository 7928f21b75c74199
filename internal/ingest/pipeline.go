// Package ingest loads source content, chunks it, embeds the chunks,
// and writes them to the retrieval store.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/manna-labs/manna/internal/chunker"
	"github.com/manna-labs/manna/internal/log"
	"github.com/manna-labs/manna/internal/retrieval"
	"github.com/manna-labs/manna/internal/source"
)

// Embedder batches texts into vectors. *embedding.Embedder satisfies it.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Store is the persistence surface the pipeline writes through.
// *retrieval.Store satisfies it.
type Store interface {
	Upsert(ctx context.Context, chunks []retrieval.Chunk) error
	Delete(ctx context.Context, filter retrieval.Filter) (int64, error)
}

// Pipeline runs chunk, embed, store for each content type.
// Re-ingesting an item first removes its previous chunks, so runs are
// idempotent even when chunk boundaries move.
type Pipeline struct {
	chunker  *chunker.Chunker
	embedder Embedder
	store    Store
	logger   log.Logger
}

// New creates a Pipeline. A nil logger discards output.
func New(c *chunker.Chunker, embedder Embedder, store Store, logger log.Logger) *Pipeline {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Pipeline{
		chunker:  c,
		embedder: embedder,
		store:    store,
		logger:   logger,
	}
}

// IngestDevotionals indexes devotional entries and returns the number
// of chunks written.
func (p *Pipeline) IngestDevotionals(ctx context.Context, devotionals []chunker.Devotional) (int, error) {
	total := 0
	for _, d := range devotionals {
		filter := retrieval.Filter{"source": string(source.KindDevotional), "id": d.ID}
		n, err := p.ingest(ctx, p.chunker.DevotionalChunks(d), filter)
		if err != nil {
			return total, fmt.Errorf("ingest devotional %q: %w", d.ID, err)
		}
		total += n
	}
	p.logger.Info("ingested devotionals", "entries", len(devotionals), "chunks", total)
	return total, nil
}

// IngestLessonDays indexes quarterly lesson days and returns the number
// of chunks written.
func (p *Pipeline) IngestLessonDays(ctx context.Context, days []chunker.LessonDay) (int, error) {
	total := 0
	for _, d := range days {
		filter := retrieval.Filter{
			"source":      string(source.KindQuarterly),
			"quarterlyId": d.QuarterlyID,
			"lessonId":    d.LessonID,
			"day":         d.Day,
		}
		n, err := p.ingest(ctx, p.chunker.LessonDayChunks(d), filter)
		if err != nil {
			return total, fmt.Errorf("ingest lesson %d day %d: %w", d.LessonID, d.Day, err)
		}
		total += n
	}
	p.logger.Info("ingested lesson days", "entries", len(days), "chunks", total)
	return total, nil
}

// IngestVerses indexes scripture verses, one chunk per verse, and
// returns the number of chunks written. The whole batch shares one
// delete per book to keep re-ingest idempotent.
func (p *Pipeline) IngestVerses(ctx context.Context, verses []chunker.Verse) (int, error) {
	byBook := make(map[string][]chunker.Verse)
	var books []string
	for _, v := range verses {
		if _, ok := byBook[v.Book]; !ok {
			books = append(books, v.Book)
		}
		byBook[v.Book] = append(byBook[v.Book], v)
	}

	total := 0
	for _, book := range books {
		filter := retrieval.Filter{"source": string(source.KindBible), "book": book}
		n, err := p.ingest(ctx, chunker.VerseChunks(byBook[book]), filter)
		if err != nil {
			return total, fmt.Errorf("ingest verses for %q: %w", book, err)
		}
		total += n
	}
	p.logger.Info("ingested verses", "verses", len(verses), "chunks", total)
	return total, nil
}

// ingest embeds the documents and replaces whatever the filter matched.
// Embedding happens before the delete so a provider failure leaves the
// previous chunks in place.
func (p *Pipeline) ingest(ctx context.Context, docs []chunker.Document, replace retrieval.Filter) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	started := time.Now()
	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Text
	}

	vectors, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, err
	}

	chunks := make([]retrieval.Chunk, len(docs))
	for i, doc := range docs {
		chunks[i] = retrieval.Chunk{
			ID:        uuid.New(),
			Text:      doc.Text,
			Metadata:  doc.Metadata,
			Embedding: vectors[i],
		}
	}

	if _, err := p.store.Delete(ctx, replace); err != nil {
		return 0, err
	}
	if err := p.store.Upsert(ctx, chunks); err != nil {
		return 0, err
	}

	p.logger.Debug("ingested documents",
		"chunks", len(chunks),
		"elapsed_ms", time.Since(started).Milliseconds(),
	)
	return len(chunks), nil
}
