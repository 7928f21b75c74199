package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitMarkdown_SectionsByHeading(t *testing.T) {
	c := New(Config{ChunkSize: 500, Overlap: 50})
	content := `# Lesson 7

Opening thought for the week.

## Sunday

Sunday's study content goes here.

## Monday

Monday's study content goes here.
`

	got := c.SplitMarkdown(content)
	if len(got) != 3 {
		t.Fatalf("got %d chunks, want 3 (one per heading section): %+v", len(got), got)
	}
	if !strings.HasPrefix(got[1].Text, "Sunday") {
		t.Errorf("section does not start with its heading: %q", got[1].Text)
	}
	if strings.Contains(got[1].Text, "Monday") {
		t.Errorf("section bleeds into the next heading: %q", got[1].Text)
	}
	// Offsets advance through the flattened document.
	for i := 1; i < len(got); i++ {
		if got[i].Start <= got[i-1].Start {
			t.Errorf("chunk %d start %d not after chunk %d start %d",
				i, got[i].Start, i-1, got[i-1].Start)
		}
	}
}

func TestSplitMarkdown_LongSectionIsWindowed(t *testing.T) {
	c := New(Config{ChunkSize: 80, Overlap: 10})
	content := "## Study\n\n" + strings.Repeat("Line upon line, precept upon precept. ", 20)

	got := c.SplitMarkdown(content)
	if len(got) < 2 {
		t.Fatalf("got %d chunks, want the long section windowed", len(got))
	}
	for i, chunk := range got {
		if n := utf8.RuneCountInString(chunk.Text); n > 80 {
			t.Errorf("chunk %d is %d runes", i, n)
		}
	}
}

func TestSplitMarkdown_NoHeadings(t *testing.T) {
	c := New(Config{ChunkSize: 1000, Overlap: 100})
	content := "Just a plain paragraph without any structure."

	got := c.SplitMarkdown(content)
	if len(got) != 1 {
		t.Fatalf("got %d chunks, want 1", len(got))
	}
	if got[0].Text != content {
		t.Errorf("chunk = %q", got[0].Text)
	}
	if got[0].Start != 0 || got[0].End != utf8.RuneCountInString(content) {
		t.Errorf("offsets = [%d, %d)", got[0].Start, got[0].End)
	}
}

func TestSplitMarkdown_StripsFormatting(t *testing.T) {
	c := New(Config{ChunkSize: 1000, Overlap: 0})
	content := "## Title\n\nSome **bold** and *italic* text.\n\n- first point\n- second point"

	got := c.SplitMarkdown(content)
	if len(got) != 1 {
		t.Fatalf("got %d chunks: %+v", len(got), got)
	}
	if strings.Contains(got[0].Text, "**") || strings.Contains(got[0].Text, "##") {
		t.Errorf("markdown syntax leaked into chunk: %q", got[0].Text)
	}
	if !strings.Contains(got[0].Text, "first point") || !strings.Contains(got[0].Text, "second point") {
		t.Errorf("list items missing: %q", got[0].Text)
	}
}

func TestSplitMarkdown_Empty(t *testing.T) {
	c := New(Config{ChunkSize: 100, Overlap: 10})
	if got := c.SplitMarkdown(""); got != nil {
		t.Errorf("SplitMarkdown(\"\") = %v, want nil", got)
	}
}
