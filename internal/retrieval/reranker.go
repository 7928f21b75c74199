package retrieval

import (
	"sort"
	"strings"
)

// Default blend weights. Vector similarity dominates; the lexical score
// nudges results that literally contain the query terms.
const (
	DefaultSimilarityWeight = 0.7
	DefaultLexicalWeight    = 0.3

	// OverfetchFactor is how many times topK candidates the caller
	// should fetch before reranking.
	OverfetchFactor = 2
)

// Reranker reorders vector search results by blending cosine similarity
// with a lexical overlap score.
type Reranker struct {
	similarityWeight float32
	lexicalWeight    float32
}

// NewReranker creates a Reranker with the given blend weights.
// Non-positive weight pairs select the defaults.
func NewReranker(similarityWeight, lexicalWeight float32) *Reranker {
	if similarityWeight <= 0 && lexicalWeight <= 0 {
		similarityWeight = DefaultSimilarityWeight
		lexicalWeight = DefaultLexicalWeight
	}
	return &Reranker{
		similarityWeight: similarityWeight,
		lexicalWeight:    lexicalWeight,
	}
}

// Rerank scores candidates against the query, sorts them by blended
// score descending, and returns at most topK. Ties keep their incoming
// order, which is the database's similarity order. The input slice is
// not modified.
func (r *Reranker) Rerank(query string, candidates []Result, topK int) []Result {
	if len(candidates) == 0 || topK <= 0 {
		return nil
	}

	terms := queryTerms(query)

	scored := make([]Result, len(candidates))
	copy(scored, candidates)
	for i := range scored {
		lexical := lexicalScore(terms, scored[i].Text)
		scored[i].RerankScore = scored[i].Similarity*r.similarityWeight + lexical*r.lexicalWeight
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].RerankScore > scored[j].RerankScore
	})

	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored
}

// Truncate returns at most topK candidates in their incoming order.
// It is the pass-through used when reranking is disabled.
func Truncate(candidates []Result, topK int) []Result {
	if topK <= 0 || len(candidates) == 0 {
		return nil
	}
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	return candidates
}

// queryTerms lowercases the query and returns its distinct terms.
func queryTerms(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	seen := make(map[string]struct{}, len(fields))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		terms = append(terms, f)
	}
	return terms
}

// lexicalScore is the fraction of distinct query terms appearing as
// substrings of the lowercased candidate text. A query with no terms
// scores zero everywhere, leaving pure similarity order.
func lexicalScore(terms []string, text string) float32 {
	if len(terms) == 0 {
		return 0
	}
	lower := strings.ToLower(text)
	matched := 0
	for _, term := range terms {
		if strings.Contains(lower, term) {
			matched++
		}
	}
	return float32(matched) / float32(len(terms))
}
