// Package answer turns retrieval results into grounded, citable answers.
// It assembles the numbered context block, frames the prompt for the
// requested mode, and drives batch or streaming generation.
package answer

import (
	"fmt"
	"strings"

	"github.com/manna-labs/manna/internal/retrieval"
	"github.com/manna-labs/manna/internal/source"
)

// NoContextFound is the context block used when retrieval returned
// nothing. The model sees it instead of an empty string.
const NoContextFound = "No relevant context found."

// Source describes one context entry as presented to the model and to
// the client. Index matches the [n] markers the model is asked to emit.
type Source struct {
	Index      int            `json:"index"`
	Label      string         `json:"label"`
	Similarity float32        `json:"similarity"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// BuildContext renders results as a numbered context block and the
// matching source list. Entries are numbered from 1 in the order given,
// which is the post-rerank order. Empty results yield the sentinel
// block and no sources.
func BuildContext(results []retrieval.Result) (string, []Source) {
	if len(results) == 0 {
		return NoContextFound, nil
	}

	var sb strings.Builder
	sources := make([]Source, 0, len(results))
	for i, r := range results {
		label := source.Parse(r.Metadata).Label()
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "[%d] %s\n%s", i+1, label, r.Text)
		sources = append(sources, Source{
			Index:      i + 1,
			Label:      label,
			Similarity: r.Similarity,
			Metadata:   r.Metadata,
		})
	}
	return sb.String(), sources
}
