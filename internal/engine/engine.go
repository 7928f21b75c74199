// Package engine orchestrates the question answering pipeline: request
// validation, vector retrieval with overfetch, reranking, and grounded
// generation.
package engine

import (
	"context"
	"iter"
	"time"

	"github.com/manna-labs/manna/internal/answer"
	"github.com/manna-labs/manna/internal/log"
	"github.com/manna-labs/manna/internal/provider"
	"github.com/manna-labs/manna/internal/retrieval"
)

// Searcher is the retrieval surface the engine depends on.
// *retrieval.Store satisfies it.
type Searcher interface {
	Search(ctx context.Context, query string, opts ...retrieval.SearchOption) ([]retrieval.Result, error)
}

// Generator is the answer surface the engine depends on.
// *answer.Generator satisfies it.
type Generator interface {
	Generate(ctx context.Context, query string, mode answer.Mode, history []provider.Message, results []retrieval.Result) (answer.Answer, error)
	Stream(ctx context.Context, query string, mode answer.Mode, history []provider.Message, results []retrieval.Result) ([]answer.Source, iter.Seq2[string, error])
}

// Config tunes the retrieval stage.
type Config struct {
	TopK          int
	MinSimilarity float32
	RerankEnabled bool

	// Blend weights for the reranker; ignored when reranking is off.
	SimilarityWeight float32
	LexicalWeight    float32
}

// Engine answers questions against the indexed corpus.
// Engine is safe for concurrent use.
type Engine struct {
	searcher  Searcher
	generator Generator
	reranker  *retrieval.Reranker
	cfg       Config
	logger    log.Logger
}

// New creates an Engine. A nil logger discards output.
func New(searcher Searcher, generator Generator, cfg Config, logger log.Logger) *Engine {
	if cfg.TopK <= 0 {
		cfg.TopK = retrieval.DefaultTopK
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Engine{
		searcher:  searcher,
		generator: generator,
		reranker:  retrieval.NewReranker(cfg.SimilarityWeight, cfg.LexicalWeight),
		cfg:       cfg,
		logger:    logger,
	}
}

// Ask runs the full pipeline and returns a complete answer.
func (e *Engine) Ask(ctx context.Context, req Request) (answer.Answer, error) {
	mode, err := req.validate()
	if err != nil {
		return answer.Answer{}, err
	}

	results, err := e.retrieve(ctx, req)
	if err != nil {
		return answer.Answer{}, err
	}

	started := time.Now()
	ans, err := e.generator.Generate(ctx, req.Query, mode, req.History, results)
	if err != nil {
		return answer.Answer{}, err
	}

	e.logger.Info("answered question",
		"mode", mode,
		"results", len(results),
		"citations", len(ans.Citations),
		"generate_ms", time.Since(started).Milliseconds(),
	)
	return ans, nil
}

// AskStream runs the pipeline with streaming generation. Validation and
// retrieval errors are returned eagerly; once the stream starts, errors
// arrive as the terminal element of the sequence.
func (e *Engine) AskStream(ctx context.Context, req Request) ([]answer.Source, iter.Seq2[string, error], error) {
	mode, err := req.validate()
	if err != nil {
		return nil, nil, err
	}

	results, err := e.retrieve(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	e.logger.Info("streaming answer", "mode", mode, "results", len(results))
	sources, stream := e.generator.Stream(ctx, req.Query, mode, req.History, results)
	return sources, stream, nil
}

// retrieve searches with overfetch when reranking is on, then reranks
// or truncates back down to topK.
func (e *Engine) retrieve(ctx context.Context, req Request) ([]retrieval.Result, error) {
	fetchK := e.cfg.TopK
	if e.cfg.RerankEnabled {
		fetchK *= retrieval.OverfetchFactor
	}

	opts := []retrieval.SearchOption{
		retrieval.WithTopK(fetchK),
		retrieval.WithMinSimilarity(e.cfg.MinSimilarity),
	}
	if filter := req.filter(); len(filter) > 0 {
		opts = append(opts, retrieval.WithFilter(filter))
	}

	candidates, err := e.searcher.Search(ctx, req.Query, opts...)
	if err != nil {
		return nil, err
	}

	// Reranking only matters when there are more candidates than slots;
	// a set already within topK keeps its similarity order.
	if e.cfg.RerankEnabled && len(candidates) > e.cfg.TopK {
		return e.reranker.Rerank(req.Query, candidates, e.cfg.TopK), nil
	}
	return retrieval.Truncate(candidates, e.cfg.TopK), nil
}
