// Package gemini implements provider.Client using the Google Gen AI SDK.
package gemini

import (
	"context"
	"fmt"
	"iter"

	"google.golang.org/genai"

	"github.com/manna-labs/manna/internal/provider"
)

// Ensure Client implements the interface.
var _ provider.Client = (*Client)(nil)

// Default model identifiers.
const (
	DefaultEmbedModel = "gemini-embedding-001"
	DefaultChatModel  = "gemini-2.5-flash"
)

// Config holds configuration for the Gemini client.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// EmbedModel is the embedding model (default: gemini-embedding-001).
	EmbedModel string

	// ChatModel is the generation model (default: gemini-2.5-flash).
	ChatModel string

	// Dimensions truncates embeddings to the given dimension via
	// OutputDimensionality (Matryoshka representation). Must match the
	// pgvector column width.
	Dimensions int
}

// Client calls the Gemini API for embeddings and generation.
type Client struct {
	client     *genai.Client
	embedModel string
	chatModel  string
	dimensions int
}

// New creates a new Gemini client. A missing API key is a configuration
// error detected here, before any network call.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: %w", provider.ErrMissingAPIKey)
	}
	if cfg.EmbedModel == "" {
		cfg.EmbedModel = DefaultEmbedModel
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = DefaultChatModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: creating client: %w", err)
	}

	return &Client{
		client:     client,
		embedModel: cfg.EmbedModel,
		chatModel:  cfg.ChatModel,
		dimensions: cfg.Dimensions,
	}, nil
}

// Embed generates one embedding per input text, order-preserving.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	var embedCfg *genai.EmbedContentConfig
	if c.dimensions > 0 {
		embedCfg = &genai.EmbedContentConfig{
			OutputDimensionality: genai.Ptr(int32(c.dimensions)),
		}
	}

	resp, err := c.client.Models.EmbedContent(ctx, c.embedModel, contents, embedCfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: embed content: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini: got %d embeddings for %d inputs", len(resp.Embeddings), len(texts))
	}

	embeddings := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, fmt.Errorf("gemini: empty embedding at index %d", i)
		}
		embeddings[i] = emb.Values
	}
	return embeddings, nil
}

// Complete performs a single generation call and returns the full text.
func (c *Client) Complete(ctx context.Context, messages []provider.Message, opts provider.GenerateOptions) (string, error) {
	contents, genCfg := c.buildRequest(messages, opts)

	resp, err := c.client.Models.GenerateContent(ctx, c.chatModel, contents, genCfg)
	if err != nil {
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("gemini: empty response")
	}
	return text, nil
}

// StreamComplete opens a streaming generation and yields text fragments in
// arrival order. A mid-stream error is yielded as a terminal error.
func (c *Client) StreamComplete(ctx context.Context, messages []provider.Message, opts provider.GenerateOptions) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		contents, genCfg := c.buildRequest(messages, opts)

		for resp, err := range c.client.Models.GenerateContentStream(ctx, c.chatModel, contents, genCfg) {
			if err != nil {
				yield("", fmt.Errorf("gemini: stream: %w", err))
				return
			}
			text := resp.Text()
			if text == "" {
				continue
			}
			if !yield(text, nil) {
				return
			}
		}
	}
}

// buildRequest maps provider messages onto Gemini contents. System messages
// become the system instruction; assistant messages map to the model role.
func (c *Client) buildRequest(messages []provider.Message, opts provider.GenerateOptions) ([]*genai.Content, *genai.GenerateContentConfig) {
	genCfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(opts.Temperature),
	}
	if opts.MaxTokens > 0 {
		genCfg.MaxOutputTokens = int32(opts.MaxTokens)
	}

	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case provider.RoleSystem:
			genCfg.SystemInstruction = genai.NewContentFromText(msg.Content, genai.RoleUser)
		case provider.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}
	return contents, genCfg
}
