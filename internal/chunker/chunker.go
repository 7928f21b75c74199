// Package chunker splits source documents into overlapping text chunks
// sized for embedding. Splitting is rune-based so multi-byte scripture
// text never breaks inside a character.
package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Default splitting parameters, tuned for ~300 token chunks.
const (
	DefaultChunkSize = 1200
	DefaultOverlap   = 200
)

// DefaultSeparators lists cut-point candidates in preference order:
// paragraph break, line break, sentence end, word boundary.
var DefaultSeparators = []string{"\n\n", "\n", ". ", "! ", "? ", " "}

// Chunk is one piece of a split text together with its position in the
// source. Start and End are rune offsets into the text given to Split,
// with End exclusive, so source[Start:End] (in runes) is exactly Text.
type Chunk struct {
	Text  string
	Start int
	End   int
}

// Config controls the windowed splitter.
type Config struct {
	// ChunkSize is the maximum chunk length in runes.
	ChunkSize int

	// Overlap is how many runes consecutive chunks share. Must be
	// smaller than ChunkSize.
	Overlap int

	// Separators overrides DefaultSeparators when non-nil.
	Separators []string
}

// Chunker performs windowed splitting with separator backtracking.
type Chunker struct {
	chunkSize  int
	overlap    int
	separators []string
}

// New creates a Chunker. Non-positive sizes select the defaults; an
// overlap at or above the chunk size is clamped to the default ratio.
func New(cfg Config) *Chunker {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.Overlap < 0 || cfg.Overlap >= cfg.ChunkSize {
		cfg.Overlap = cfg.ChunkSize / 6
	}
	if cfg.Separators == nil {
		cfg.Separators = DefaultSeparators
	}
	return &Chunker{
		chunkSize:  cfg.ChunkSize,
		overlap:    cfg.Overlap,
		separators: cfg.Separators,
	}
}

// Split cuts text into overlapping chunks of at most ChunkSize runes.
// Each window is cut at the rightmost preferred separator inside it; the
// next window starts Overlap runes before the cut. Chunks are
// whitespace-trimmed with their offsets adjusted inward, and empty
// chunks are dropped. Start offsets are strictly increasing; with a
// positive overlap, consecutive chunks cut at a separator share text.
// Text that already fits in one window is returned as a single chunk.
func (c *Chunker) Split(text string) []Chunk {
	runes := []rune(text)
	start, last := trimRange(runes, 0, len(runes))
	if start >= last {
		return nil
	}
	if last-start <= c.chunkSize {
		return []Chunk{{Text: string(runes[start:last]), Start: start, End: last}}
	}

	var chunks []Chunk
	for start < last {
		end := min(start+c.chunkSize, last)
		if end < last {
			end = c.backtrack(runes, start, end)
		}

		if s, e := trimRange(runes, start, end); s < e {
			chunks = append(chunks, Chunk{Text: string(runes[s:e]), Start: s, End: e})
		}
		if end >= last {
			break
		}

		floor := start
		if n := len(chunks); n > 0 && chunks[n-1].Start > floor {
			floor = chunks[n-1].Start
		}
		next := end - c.overlap
		if next <= floor {
			// Overlap would restart at or before the previous chunk;
			// advance past the cut instead so progress is guaranteed
			// and start offsets stay strictly increasing.
			next = end
		}
		start = next
	}
	return chunks
}

// backtrack moves the window end left to just after the rightmost
// occurrence of the most preferred separator. A separator only counts
// when cutting there still leaves content in the window; when no
// separator qualifies the hard window end stands.
func (c *Chunker) backtrack(runes []rune, start, end int) int {
	window := string(runes[start:end])
	for _, sep := range c.separators {
		idx := strings.LastIndex(window, sep)
		if idx <= 0 {
			continue
		}
		cut := start + utf8.RuneCountInString(window[:idx+len(sep)])
		if cut > start {
			return cut
		}
	}
	return end
}

// trimRange shrinks [start, end) past any leading and trailing
// whitespace runes.
func trimRange(runes []rune, start, end int) (int, int) {
	for start < end && unicode.IsSpace(runes[start]) {
		start++
	}
	for end > start && unicode.IsSpace(runes[end-1]) {
		end--
	}
	return start, end
}
