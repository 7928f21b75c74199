package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplit_ShortTextSingleChunk(t *testing.T) {
	c := New(Config{ChunkSize: 100, Overlap: 20})
	got := c.Split("  A short devotional thought.  ")
	if len(got) != 1 {
		t.Fatalf("got %d chunks, want 1", len(got))
	}
	if got[0].Text != "A short devotional thought." {
		t.Errorf("chunk = %q, want trimmed input", got[0].Text)
	}
	// Offsets point past the trimmed whitespace, into the original text.
	if got[0].Start != 2 || got[0].End != 29 {
		t.Errorf("offsets = [%d, %d), want [2, 29)", got[0].Start, got[0].End)
	}
}

func TestSplit_Empty(t *testing.T) {
	c := New(Config{ChunkSize: 100, Overlap: 20})
	for _, input := range []string{"", "   ", "\n\n\t"} {
		if got := c.Split(input); got != nil {
			t.Errorf("Split(%q) = %v, want nil", input, got)
		}
	}
}

func TestSplit_PrefersParagraphBreak(t *testing.T) {
	c := New(Config{ChunkSize: 50, Overlap: 0})
	text := "First paragraph here.\n\nSecond one. It keeps going well past the window."

	got := c.Split(text)
	if len(got) < 2 {
		t.Fatalf("got %d chunks, want at least 2", len(got))
	}
	// The paragraph break inside the first window wins over the later
	// sentence end and spaces.
	if got[0].Text != "First paragraph here." {
		t.Errorf("first chunk = %q, want cut at paragraph break", got[0].Text)
	}
}

func TestSplit_FallsBackToSentenceThenSpace(t *testing.T) {
	c := New(Config{ChunkSize: 30, Overlap: 0})
	text := "One sentence ends here. Another follows it without any paragraph breaks at all."

	got := c.Split(text)
	if got[0].Text != "One sentence ends here." {
		t.Errorf("first chunk = %q, want cut after sentence end", got[0].Text)
	}
}

func TestSplit_ChunksWithinSize(t *testing.T) {
	c := New(Config{ChunkSize: 40, Overlap: 10})
	text := strings.Repeat("Blessed are the peacemakers, for they shall be called children of God. ", 20)

	for i, chunk := range c.Split(text) {
		if n := utf8.RuneCountInString(chunk.Text); n > 40 {
			t.Errorf("chunk %d is %d runes, exceeds chunk size", i, n)
		}
		if strings.TrimSpace(chunk.Text) != chunk.Text || chunk.Text == "" {
			t.Errorf("chunk %d not trimmed: %q", i, chunk.Text)
		}
	}
}

func TestSplit_OverlapCarriesContext(t *testing.T) {
	c := New(Config{ChunkSize: 40, Overlap: 15})
	text := strings.Repeat("walk humbly with your God and love mercy ", 10)

	got := c.Split(text)
	if len(got) < 2 {
		t.Fatalf("got %d chunks, want at least 2", len(got))
	}
	for i := 1; i < len(got); i++ {
		// The start of each chunk must appear in its predecessor.
		head := got[i].Text
		if utf8.RuneCountInString(head) > 10 {
			head = string([]rune(head)[:10])
		}
		if !strings.Contains(got[i-1].Text, head) {
			t.Errorf("chunk %d start %q not found in previous chunk %q", i, head, got[i-1].Text)
		}
	}
}

func TestSplit_OffsetsLocateChunksInSource(t *testing.T) {
	c := New(Config{ChunkSize: 40, Overlap: 15})
	text := "  " + strings.Repeat("walk humbly with your God and love mercy ", 10)
	runes := []rune(text)

	got := c.Split(text)
	if len(got) < 2 {
		t.Fatalf("got %d chunks, want at least 2", len(got))
	}
	if got[0].Start != 2 {
		t.Errorf("first chunk starts at %d, want 2 (past leading whitespace)", got[0].Start)
	}
	for i, ch := range got {
		if ch.Start >= ch.End {
			t.Fatalf("chunk %d has empty range [%d, %d)", i, ch.Start, ch.End)
		}
		if string(runes[ch.Start:ch.End]) != ch.Text {
			t.Errorf("chunk %d text does not match source[%d:%d]", i, ch.Start, ch.End)
		}
	}
	for i := 1; i < len(got); i++ {
		if got[i].Start <= got[i-1].Start {
			t.Errorf("chunk %d start %d not after chunk %d start %d",
				i, got[i].Start, i-1, got[i-1].Start)
		}
		// Every cut lands on a separator here, so the overlap carries
		// back into the previous chunk.
		if got[i].Start >= got[i-1].End {
			t.Errorf("chunk %d range [%d, %d) does not overlap chunk %d end %d",
				i, got[i].Start, got[i].End, i-1, got[i-1].End)
		}
	}
}

func TestSplit_NoSeparatorsTerminates(t *testing.T) {
	// One unbroken token longer than several windows. Hard cuts apply
	// and the degenerate overlap must not stall the loop.
	c := New(Config{ChunkSize: 10, Overlap: 9})
	text := strings.Repeat("x", 95)

	got := c.Split(text)
	if len(got) == 0 {
		t.Fatal("no chunks produced")
	}
	var total int
	for _, chunk := range got {
		total += len(chunk.Text)
	}
	if total < len(text) {
		t.Errorf("chunks cover %d runes of %d", total, len(text))
	}
}

func TestSplit_RuneSafe(t *testing.T) {
	c := New(Config{ChunkSize: 12, Overlap: 3})
	text := strings.Repeat("愛は寛容であり愛は情深い ", 10)

	for i, chunk := range c.Split(text) {
		if !utf8.ValidString(chunk.Text) {
			t.Fatalf("chunk %d is not valid UTF-8: %q", i, chunk.Text)
		}
		if n := utf8.RuneCountInString(chunk.Text); n > 12 {
			t.Errorf("chunk %d is %d runes", i, n)
		}
	}
}

func TestNew_Defaults(t *testing.T) {
	c := New(Config{})
	if c.chunkSize != DefaultChunkSize {
		t.Errorf("chunkSize = %d", c.chunkSize)
	}
	// Overlap at or above chunk size is clamped, not honoured.
	c = New(Config{ChunkSize: 100, Overlap: 100})
	if c.overlap >= c.chunkSize {
		t.Errorf("overlap %d not clamped below chunk size %d", c.overlap, c.chunkSize)
	}
}

func FuzzSplit(f *testing.F) {
	f.Add("Simple seed text with a sentence. And another one here.", 40, 10)
	f.Add("para one\n\npara two\n\npara three", 20, 5)
	f.Add(strings.Repeat("無", 50), 10, 3)
	f.Add("", 10, 2)

	f.Fuzz(func(t *testing.T, text string, size, overlap int) {
		if size < 1 || size > 1000 || overlap < 0 {
			t.Skip()
		}
		c := New(Config{ChunkSize: size, Overlap: overlap})
		runes := []rune(text)
		prevStart := -1
		for i, chunk := range c.Split(text) {
			if chunk.Text == "" {
				t.Errorf("chunk %d is empty", i)
			}
			if utf8.RuneCountInString(chunk.Text) > c.chunkSize {
				t.Errorf("chunk %d exceeds size %d: %q", i, c.chunkSize, chunk.Text)
			}
			if !utf8.ValidString(chunk.Text) {
				t.Errorf("chunk %d invalid UTF-8", i)
			}
			if chunk.Start < 0 || chunk.End > len(runes) || chunk.Start >= chunk.End {
				t.Fatalf("chunk %d has bad range [%d, %d)", i, chunk.Start, chunk.End)
			}
			if string(runes[chunk.Start:chunk.End]) != chunk.Text {
				t.Errorf("chunk %d text does not match its source range", i)
			}
			if chunk.Start <= prevStart {
				t.Errorf("chunk %d start %d not increasing", i, chunk.Start)
			}
			prevStart = chunk.Start
		}
	})
}
