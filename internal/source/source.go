// Package source defines the metadata attached to chunks: a discriminated
// union keyed by the "source" field, with an explicit unknown variant for
// forward compatibility. Metadata is persisted as JSONB alongside each chunk
// and is used both as a retrieval filter key and to render citation labels.
package source

import (
	"fmt"
)

// Kind discriminates the metadata variants.
type Kind string

// Known source kinds.
const (
	KindDevotional Kind = "devotional"
	KindQuarterly  Kind = "quarterly"
	KindBible      Kind = "bible"
	KindUnknown    Kind = "unknown"
)

// unknownLabel is rendered for source kinds this version does not know.
const unknownLabel = "Unknown source"

// Meta is one variant of the chunk metadata union.
type Meta interface {
	// Kind returns the source discriminator.
	Kind() Kind

	// Label renders the human-readable citation label.
	Label() string

	// Map returns the flat map persisted as JSONB. It always includes the
	// "source" discriminator.
	Map() map[string]any
}

// DevotionalMeta identifies a daily devotional entry.
type DevotionalMeta struct {
	ID    string
	Title string
	Date  string // ISO date (YYYY-MM-DD)
}

func (DevotionalMeta) Kind() Kind { return KindDevotional }

func (m DevotionalMeta) Label() string {
	return fmt.Sprintf("Devotional: %s (%s)", m.Title, m.Date)
}

func (m DevotionalMeta) Map() map[string]any {
	return map[string]any{
		"source": string(KindDevotional),
		"id":     m.ID,
		"title":  m.Title,
		"date":   m.Date,
	}
}

// QuarterlyMeta identifies a day's worth of a Sabbath School quarterly lesson.
type QuarterlyMeta struct {
	QuarterlyID int
	LessonID    int
	Day         int
	Title       string
}

func (QuarterlyMeta) Kind() Kind { return KindQuarterly }

func (m QuarterlyMeta) Label() string {
	return fmt.Sprintf("Quarterly %d, Lesson %d, Day %d: %s", m.QuarterlyID, m.LessonID, m.Day, m.Title)
}

func (m QuarterlyMeta) Map() map[string]any {
	return map[string]any{
		"source":      string(KindQuarterly),
		"quarterlyId": m.QuarterlyID,
		"lessonId":    m.LessonID,
		"day":         m.Day,
		"title":       m.Title,
	}
}

// BibleMeta identifies a single verse.
type BibleMeta struct {
	Book    string
	Chapter int
	Verse   int
}

func (BibleMeta) Kind() Kind { return KindBible }

func (m BibleMeta) Label() string {
	return fmt.Sprintf("%s %d:%d", m.Book, m.Chapter, m.Verse)
}

func (m BibleMeta) Map() map[string]any {
	return map[string]any{
		"source":  string(KindBible),
		"book":    m.Book,
		"chapter": m.Chapter,
		"verse":   m.Verse,
	}
}

// UnknownMeta is the forward-compatibility variant: metadata whose source
// kind this version does not recognise renders a fixed label instead of
// failing.
type UnknownMeta struct {
	Raw map[string]any
}

func (UnknownMeta) Kind() Kind    { return KindUnknown }
func (UnknownMeta) Label() string { return unknownLabel }

func (m UnknownMeta) Map() map[string]any {
	if m.Raw == nil {
		return map[string]any{"source": string(KindUnknown)}
	}
	return m.Raw
}

// Parse decodes a metadata map (as read back from JSONB) into its union
// variant. Unrecognised or missing source kinds decode to UnknownMeta;
// Parse never fails.
func Parse(raw map[string]any) Meta {
	kind, _ := raw["source"].(string)
	switch Kind(kind) {
	case KindDevotional:
		return DevotionalMeta{
			ID:    asString(raw["id"]),
			Title: asString(raw["title"]),
			Date:  asString(raw["date"]),
		}
	case KindQuarterly:
		return QuarterlyMeta{
			QuarterlyID: asInt(raw["quarterlyId"]),
			LessonID:    asInt(raw["lessonId"]),
			Day:         asInt(raw["day"]),
			Title:       asString(raw["title"]),
		}
	case KindBible:
		return BibleMeta{
			Book:    asString(raw["book"]),
			Chapter: asInt(raw["chapter"]),
			Verse:   asInt(raw["verse"]),
		}
	default:
		return UnknownMeta{Raw: raw}
	}
}

// asString tolerates the types JSON decoding produces.
func asString(v any) string {
	s, _ := v.(string)
	return s
}

// asInt tolerates the numeric types JSON decoding produces (float64 from
// encoding/json, plus native ints when the map was built in-process).
func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
