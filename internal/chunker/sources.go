package chunker

import (
	"unicode/utf8"

	"github.com/manna-labs/manna/internal/source"
)

// Document is a chunk paired with the metadata it will be stored under.
// Metadata carries the source discriminator plus the chunk's position
// within its parent document: its ordinal (chunk, chunkTotal) and its
// rune offsets (startIndex, endIndex) into the parent text.
type Document struct {
	Text     string
	Metadata map[string]any
}

// Devotional is a single daily devotional entry to be chunked.
type Devotional struct {
	ID    string
	Title string
	Date  string // ISO date (YYYY-MM-DD)
	Body  string
}

// LessonDay is one day of a quarterly lesson.
type LessonDay struct {
	QuarterlyID int
	LessonID    int
	Day         int
	Title       string
	Content     string // markdown
}

// Verse is a single scripture verse.
type Verse struct {
	Book    string
	Chapter int
	Number  int
	Text    string
}

// DevotionalChunks splits a devotional body and stamps each chunk with
// its devotional metadata and position.
func (c *Chunker) DevotionalChunks(d Devotional) []Document {
	meta := source.DevotionalMeta{ID: d.ID, Title: d.Title, Date: d.Date}
	return stamp(c.Split(d.Body), meta)
}

// LessonDayChunks splits a lesson day's markdown content and stamps each
// chunk with its quarterly metadata and position.
func (c *Chunker) LessonDayChunks(d LessonDay) []Document {
	meta := source.QuarterlyMeta{
		QuarterlyID: d.QuarterlyID,
		LessonID:    d.LessonID,
		Day:         d.Day,
		Title:       d.Title,
	}
	return stamp(c.SplitMarkdown(d.Content), meta)
}

// VerseChunks maps verses to documents one-to-one. Verses are atomic:
// a verse is never split or merged regardless of length, so a citation
// always points at exactly one verse.
func VerseChunks(verses []Verse) []Document {
	docs := make([]Document, 0, len(verses))
	for _, v := range verses {
		if v.Text == "" {
			continue
		}
		meta := source.BibleMeta{Book: v.Book, Chapter: v.Chapter, Verse: v.Number}
		m := meta.Map()
		m["chunk"] = 0
		m["chunkTotal"] = 1
		m["startIndex"] = 0
		m["endIndex"] = utf8.RuneCountInString(v.Text)
		docs = append(docs, Document{Text: v.Text, Metadata: m})
	}
	return docs
}

// stamp attaches source metadata plus chunk position to each piece.
func stamp(chunks []Chunk, meta source.Meta) []Document {
	docs := make([]Document, 0, len(chunks))
	for i, ch := range chunks {
		m := meta.Map()
		m["chunk"] = i
		m["chunkTotal"] = len(chunks)
		m["startIndex"] = ch.Start
		m["endIndex"] = ch.End
		docs = append(docs, Document{Text: ch.Text, Metadata: m})
	}
	return docs
}
