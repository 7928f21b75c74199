package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/manna-labs/manna/db"
	"github.com/manna-labs/manna/internal/answer"
	"github.com/manna-labs/manna/internal/chunker"
	"github.com/manna-labs/manna/internal/config"
	"github.com/manna-labs/manna/internal/database"
	"github.com/manna-labs/manna/internal/embedding"
	"github.com/manna-labs/manna/internal/engine"
	"github.com/manna-labs/manna/internal/ingest"
	"github.com/manna-labs/manna/internal/log"
	"github.com/manna-labs/manna/internal/provider"
	"github.com/manna-labs/manna/internal/provider/gemini"
	"github.com/manna-labs/manna/internal/provider/openai"
	"github.com/manna-labs/manna/internal/retrieval"
)

// app holds the wired application components shared by the commands.
type app struct {
	cfg      *config.Config
	logger   log.Logger
	pool     *pgxpool.Pool
	store    *retrieval.Store
	engine   *engine.Engine
	pipeline *ingest.Pipeline
}

// setup loads configuration, runs migrations, and wires the pipeline.
func setup(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger := log.New(log.Config{Level: logLevel(), JSON: true})

	if err := db.Migrate(cfg.ConnURL()); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	pool, err := database.Open(ctx, cfg.ConnURL())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	client, err := newProviderClient(ctx, cfg)
	if err != nil {
		pool.Close()
		return nil, err
	}

	embedder := embedding.New(client, cfg.EmbedBatchSize, logger)
	store := retrieval.NewStore(retrieval.NewQueries(pool), embedder, logger)
	generator := answer.NewGenerator(client, cfg.Temperature, cfg.MaxTokens, logger)

	eng := engine.New(store, generator, engine.Config{
		TopK:             cfg.TopK,
		MinSimilarity:    cfg.MinSimilarity,
		RerankEnabled:    cfg.RerankEnabled,
		SimilarityWeight: float32(cfg.RerankSimilarityWeight),
		LexicalWeight:    float32(cfg.RerankLexicalWeight),
	}, logger)

	pipeline := ingest.New(
		chunker.New(chunker.Config{ChunkSize: cfg.ChunkSize, Overlap: cfg.ChunkOverlap}),
		embedder,
		store,
		logger,
	)

	return &app{
		cfg:      cfg,
		logger:   logger,
		pool:     pool,
		store:    store,
		engine:   eng,
		pipeline: pipeline,
	}, nil
}

func (a *app) close() {
	a.pool.Close()
}

// logLevel reads MANNA_LOG_LEVEL; unknown values fall back to info.
func logLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(os.Getenv("MANNA_LOG_LEVEL"))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// newProviderClient builds the configured provider client. API keys come
// straight from the environment, never from the config file.
func newProviderClient(ctx context.Context, cfg *config.Config) (provider.Client, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		client, err := openai.New(openai.Config{
			APIKey:     os.Getenv("OPENAI_API_KEY"),
			BaseURL:    cfg.OpenAIBaseURL,
			EmbedModel: cfg.EmbedModel,
			ChatModel:  cfg.ChatModel,
			Dimensions: cfg.EmbedDimensions,
		})
		if err != nil {
			return nil, fmt.Errorf("creating OpenAI client: %w", err)
		}
		return client, nil
	case config.ProviderGemini:
		client, err := gemini.New(ctx, gemini.Config{
			APIKey:     os.Getenv("GEMINI_API_KEY"),
			EmbedModel: cfg.EmbedModel,
			ChatModel:  cfg.ChatModel,
			Dimensions: cfg.EmbedDimensions,
		})
		if err != nil {
			return nil, fmt.Errorf("creating Gemini client: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrInvalidProvider, cfg.Provider)
	}
}
