package ingest

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/manna-labs/manna/internal/chunker"
)

// File formats for the ingest command. Each file carries one content
// type; the top-level key names it so a file can't be fed to the wrong
// loader silently.

type devotionalFile struct {
	Devotionals []struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		Date  string `json:"date"`
		Body  string `json:"body"`
	} `json:"devotionals"`
}

type quarterlyFile struct {
	Lessons []struct {
		QuarterlyID int    `json:"quarterlyId"`
		LessonID    int    `json:"lessonId"`
		Day         int    `json:"day"`
		Title       string `json:"title"`
		Content     string `json:"content"`
	} `json:"lessons"`
}

type bibleFile struct {
	Verses []struct {
		Book    string `json:"book"`
		Chapter int    `json:"chapter"`
		Verse   int    `json:"verse"`
		Text    string `json:"text"`
	} `json:"verses"`
}

// LoadDevotionals reads a devotional content file.
func LoadDevotionals(path string) ([]chunker.Devotional, error) {
	var file devotionalFile
	if err := readJSON(path, &file); err != nil {
		return nil, err
	}
	if file.Devotionals == nil {
		return nil, fmt.Errorf("%s: missing \"devotionals\" key", path)
	}

	devotionals := make([]chunker.Devotional, len(file.Devotionals))
	for i, d := range file.Devotionals {
		devotionals[i] = chunker.Devotional{ID: d.ID, Title: d.Title, Date: d.Date, Body: d.Body}
	}
	return devotionals, nil
}

// LoadLessonDays reads a quarterly lesson content file.
func LoadLessonDays(path string) ([]chunker.LessonDay, error) {
	var file quarterlyFile
	if err := readJSON(path, &file); err != nil {
		return nil, err
	}
	if file.Lessons == nil {
		return nil, fmt.Errorf("%s: missing \"lessons\" key", path)
	}

	days := make([]chunker.LessonDay, len(file.Lessons))
	for i, l := range file.Lessons {
		days[i] = chunker.LessonDay{
			QuarterlyID: l.QuarterlyID,
			LessonID:    l.LessonID,
			Day:         l.Day,
			Title:       l.Title,
			Content:     l.Content,
		}
	}
	return days, nil
}

// LoadVerses reads a scripture content file.
func LoadVerses(path string) ([]chunker.Verse, error) {
	var file bibleFile
	if err := readJSON(path, &file); err != nil {
		return nil, err
	}
	if file.Verses == nil {
		return nil, fmt.Errorf("%s: missing \"verses\" key", path)
	}

	verses := make([]chunker.Verse, len(file.Verses))
	for i, v := range file.Verses {
		verses[i] = chunker.Verse{Book: v.Book, Chapter: v.Chapter, Number: v.Verse, Text: v.Text}
	}
	return verses, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the operator's command line
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
