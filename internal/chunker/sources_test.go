package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestDevotionalChunks(t *testing.T) {
	c := New(Config{ChunkSize: 60, Overlap: 10})
	docs := c.DevotionalChunks(Devotional{
		ID:    "dev-042",
		Title: "Patience in Trials",
		Date:  "2024-03-01",
		Body:  strings.Repeat("Consider it pure joy whenever you face trials of many kinds. ", 5),
	})

	if len(docs) < 2 {
		t.Fatalf("got %d documents, want at least 2", len(docs))
	}
	for i, doc := range docs {
		if doc.Metadata["source"] != "devotional" {
			t.Errorf("doc %d source = %v", i, doc.Metadata["source"])
		}
		if doc.Metadata["title"] != "Patience in Trials" || doc.Metadata["date"] != "2024-03-01" {
			t.Errorf("doc %d metadata = %v", i, doc.Metadata)
		}
		if doc.Metadata["chunk"] != i {
			t.Errorf("doc %d chunk index = %v", i, doc.Metadata["chunk"])
		}
		if doc.Metadata["chunkTotal"] != len(docs) {
			t.Errorf("doc %d chunkTotal = %v, want %d", i, doc.Metadata["chunkTotal"], len(docs))
		}
		start, ok := doc.Metadata["startIndex"].(int)
		if !ok {
			t.Fatalf("doc %d startIndex = %v", i, doc.Metadata["startIndex"])
		}
		end := doc.Metadata["endIndex"].(int)
		if end <= start {
			t.Errorf("doc %d offsets = [%d, %d)", i, start, end)
		}
		if i > 0 && start <= docs[i-1].Metadata["startIndex"].(int) {
			t.Errorf("doc %d startIndex %d not after predecessor", i, start)
		}
	}
}

func TestLessonDayChunks(t *testing.T) {
	c := New(Config{ChunkSize: 200, Overlap: 20})
	docs := c.LessonDayChunks(LessonDay{
		QuarterlyID: 3,
		LessonID:    7,
		Day:         2,
		Title:       "The Sabbath Rest",
		Content:     "## Memory Text\n\nRemember the sabbath day, to keep it holy.\n\n## Study\n\nSix days shalt thou labour, and do all thy work.",
	})

	if len(docs) == 0 {
		t.Fatal("no documents produced")
	}
	for i, doc := range docs {
		if doc.Metadata["source"] != "quarterly" {
			t.Errorf("doc %d source = %v", i, doc.Metadata["source"])
		}
		if doc.Metadata["lessonId"] != 7 || doc.Metadata["day"] != 2 {
			t.Errorf("doc %d metadata = %v", i, doc.Metadata)
		}
	}
}

func TestVerseChunks_Atomic(t *testing.T) {
	long := strings.Repeat("and God saw that it was good ", 100)
	docs := VerseChunks([]Verse{
		{Book: "Genesis", Chapter: 1, Number: 1, Text: "In the beginning God created the heaven and the earth."},
		{Book: "Genesis", Chapter: 1, Number: 2, Text: long},
		{Book: "Genesis", Chapter: 1, Number: 3, Text: ""},
	})

	// Empty verses are dropped; long verses stay whole.
	if len(docs) != 2 {
		t.Fatalf("got %d documents, want 2", len(docs))
	}
	if docs[1].Text != long {
		t.Error("long verse was split; verses must stay atomic")
	}
	if docs[0].Metadata["book"] != "Genesis" || docs[0].Metadata["verse"] != 1 {
		t.Errorf("metadata = %v", docs[0].Metadata)
	}
	if docs[0].Metadata["chunkTotal"] != 1 {
		t.Errorf("chunkTotal = %v, want 1", docs[0].Metadata["chunkTotal"])
	}
	// A verse spans itself: offsets cover the whole text.
	if docs[1].Metadata["startIndex"] != 0 || docs[1].Metadata["endIndex"] != utf8.RuneCountInString(long) {
		t.Errorf("offsets = [%v, %v)", docs[1].Metadata["startIndex"], docs[1].Metadata["endIndex"])
	}
}
