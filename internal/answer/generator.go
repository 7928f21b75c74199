package answer

import (
	"context"
	"fmt"
	"iter"
	"regexp"
	"sort"
	"strconv"

	"github.com/manna-labs/manna/internal/log"
	"github.com/manna-labs/manna/internal/provider"
	"github.com/manna-labs/manna/internal/retrieval"
)

// NoContextAnswer is returned without calling the model when retrieval
// found nothing to ground an answer on.
const NoContextAnswer = "I could not find any relevant material for that question. " +
	"Try rephrasing it, or ask about a specific devotional, lesson, or passage."

// Answer is a complete generated response with its supporting sources.
type Answer struct {
	Text      string   `json:"text"`
	Sources   []Source `json:"sources"`
	Citations []int    `json:"citations,omitempty"`
}

// Generator produces grounded answers through a provider client.
type Generator struct {
	client      provider.Client
	temperature float32
	maxTokens   int
	logger      log.Logger
}

// NewGenerator creates a Generator. A nil logger discards output.
func NewGenerator(client provider.Client, temperature float32, maxTokens int, logger log.Logger) *Generator {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Generator{
		client:      client,
		temperature: temperature,
		maxTokens:   maxTokens,
		logger:      logger,
	}
}

// buildMessages assembles the provider conversation: system prompt with
// the context block, then prior history, then the user's query.
func buildMessages(query string, mode Mode, history []provider.Message, contextBlock string) []provider.Message {
	messages := make([]provider.Message, 0, len(history)+2)
	messages = append(messages, provider.Message{
		Role:    provider.RoleSystem,
		Content: systemPrompt(mode, contextBlock),
	})
	messages = append(messages, history...)
	messages = append(messages, provider.Message{
		Role:    provider.RoleUser,
		Content: query,
	})
	return messages
}

// Generate produces a complete answer from the retrieval results. Empty
// results short-circuit to the canned answer without a model call.
func (g *Generator) Generate(ctx context.Context, query string, mode Mode, history []provider.Message, results []retrieval.Result) (Answer, error) {
	if len(results) == 0 {
		g.logger.Debug("no retrieval results, returning canned answer")
		return Answer{Text: NoContextAnswer, Sources: []Source{}}, nil
	}

	contextBlock, sources := BuildContext(results)
	messages := buildMessages(query, mode, history, contextBlock)

	text, err := g.client.Complete(ctx, messages, provider.GenerateOptions{
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
	})
	if err != nil {
		return Answer{}, fmt.Errorf("generate answer: %w", err)
	}

	return Answer{
		Text:      text,
		Sources:   sources,
		Citations: ExtractCitations(text, len(sources)),
	}, nil
}

// Stream produces a streaming answer. Sources are returned up front so
// callers can emit them before the first text fragment; the sequence
// then yields fragments in arrival order, ending with a terminal error
// on provider failure. Empty results yield the canned answer as a
// single fragment.
func (g *Generator) Stream(ctx context.Context, query string, mode Mode, history []provider.Message, results []retrieval.Result) ([]Source, iter.Seq2[string, error]) {
	if len(results) == 0 {
		return []Source{}, func(yield func(string, error) bool) {
			yield(NoContextAnswer, nil)
		}
	}

	contextBlock, sources := BuildContext(results)
	messages := buildMessages(query, mode, history, contextBlock)

	return sources, g.client.StreamComplete(ctx, messages, provider.GenerateOptions{
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
	})
}

var citationPattern = regexp.MustCompile(`\[(\d+)\]`)

// ExtractCitations returns the distinct [n] markers in text that point
// at a valid source index (1..max), sorted ascending.
func ExtractCitations(text string, max int) []int {
	matches := citationPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[int]struct{})
	for _, m := range matches {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 || n > max {
			continue
		}
		seen[n] = struct{}{}
	}
	if len(seen) == 0 {
		return nil
	}

	citations := make([]int, 0, len(seen))
	for n := range seen {
		citations = append(citations, n)
	}
	sort.Ints(citations)
	return citations
}
