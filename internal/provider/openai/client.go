// Package openai implements provider.Client against the OpenAI REST API.
// The BaseURL can be pointed at any OpenAI-compatible endpoint.
package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"
	"time"

	"github.com/manna-labs/manna/internal/provider"
)

// Ensure Client implements the interface.
var _ provider.Client = (*Client)(nil)

// Default configuration values.
const (
	DefaultBaseURL     = "https://api.openai.com/v1"
	DefaultEmbedModel  = "text-embedding-3-small"
	DefaultChatModel   = "gpt-4o-mini"
	DefaultTimeout     = 60 * time.Second
	DefaultChatTimeout = 120 * time.Second
)

// Config holds configuration for the OpenAI client.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	BaseURL string

	// EmbedModel is the embedding model (default: text-embedding-3-small).
	EmbedModel string

	// ChatModel is the generation model (default: gpt-4o-mini).
	ChatModel string

	// Dimensions requests a specific embedding dimension.
	// Only applicable to text-embedding-3-* models.
	Dimensions int

	// Timeout is the request timeout for non-streaming calls (default: 60s
	// for embeddings, 120s for completions). Streaming requests rely on
	// context cancellation instead of a transport timeout.
	Timeout time.Duration
}

// Client calls the OpenAI embeddings and chat completions endpoints.
type Client struct {
	httpClient   *http.Client
	streamClient *http.Client
	baseURL      string
	apiKey       string
	embedModel   string
	chatModel    string
	dimensions   int
}

// New creates a new OpenAI client. A missing API key is a configuration
// error detected here, before any network call.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: %w", provider.ErrMissingAPIKey)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.EmbedModel == "" {
		cfg.EmbedModel = DefaultEmbedModel
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = DefaultChatModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultChatTimeout
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		// No client timeout for streams: a slow generation would be cut
		// mid-stream. Cancellation comes from the request context.
		streamClient: &http.Client{},
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		embedModel:   cfg.EmbedModel,
		chatModel:    cfg.ChatModel,
		dimensions:   cfg.Dimensions,
	}, nil
}

// embeddingRequest is the OpenAI /embeddings request format.
type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

// embeddingResponse is the OpenAI /embeddings response format.
type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Embed generates one embedding per input text, order-preserving.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	reqBody := embeddingRequest{
		Model: c.embedModel,
		Input: texts,
	}
	// The dimensions parameter is only supported by text-embedding-3-*.
	if c.dimensions > 0 && strings.HasPrefix(c.embedModel, "text-embedding-3") {
		reqBody.Dimensions = c.dimensions
	}

	body, err := c.post(ctx, c.httpClient, "/embeddings", reqBody)
	if err != nil {
		return nil, err
	}

	var embedResp embeddingResponse
	if err := json.Unmarshal(body, &embedResp); err != nil {
		return nil, fmt.Errorf("openai: decode response: %w", err)
	}
	if embedResp.Error != nil {
		return nil, fmt.Errorf("openai error: %s", embedResp.Error.Message)
	}
	if len(embedResp.Data) != len(texts) {
		return nil, fmt.Errorf("openai: got %d embeddings for %d inputs", len(embedResp.Data), len(texts))
	}

	// The API reports an index per embedding; order by it rather than
	// trusting response order.
	embeddings := make([][]float32, len(texts))
	for _, data := range embedResp.Data {
		if data.Index < 0 || data.Index >= len(texts) {
			return nil, fmt.Errorf("openai: embedding index %d out of range", data.Index)
		}
		embeddings[data.Index] = data.Embedding
	}
	return embeddings, nil
}

// chatCompletionRequest is the OpenAI /chat/completions request format.
type chatCompletionRequest struct {
	Model       string             `json:"model"`
	Messages    []provider.Message `json:"messages"`
	MaxTokens   int                `json:"max_tokens,omitempty"`
	Temperature float32            `json:"temperature,omitempty"`
	Stream      bool               `json:"stream,omitempty"`
}

// chatCompletionResponse is the non-streaming response format.
type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

// Complete performs a single chat completion and returns the full text.
func (c *Client) Complete(ctx context.Context, messages []provider.Message, opts provider.GenerateOptions) (string, error) {
	reqBody := chatCompletionRequest{
		Model:       c.chatModel,
		Messages:    messages,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}

	body, err := c.post(ctx, c.httpClient, "/chat/completions", reqBody)
	if err != nil {
		return "", err
	}

	var chatResp chatCompletionResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("openai: decode response: %w", err)
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("openai error: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("openai: no response choices returned")
	}

	return chatResp.Choices[0].Message.Content, nil
}

// streamChunk is one server-sent event payload of a streaming completion.
type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

// StreamComplete opens a streaming chat completion and yields text deltas
// in arrival order. A mid-stream provider error is yielded as a terminal
// error; the "[DONE]" marker ends iteration cleanly.
func (c *Client) StreamComplete(ctx context.Context, messages []provider.Message, opts provider.GenerateOptions) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		reqBody := chatCompletionRequest{
			Model:       c.chatModel,
			Messages:    messages,
			MaxTokens:   opts.MaxTokens,
			Temperature: opts.Temperature,
			Stream:      true,
		}

		jsonBody, err := json.Marshal(reqBody)
		if err != nil {
			yield("", fmt.Errorf("openai: marshal request: %w", err))
			return
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
		if err != nil {
			yield("", fmt.Errorf("openai: create request: %w", err))
			return
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Accept", "text/event-stream")

		resp, err := c.streamClient.Do(req)
		if err != nil {
			yield("", fmt.Errorf("openai: send request: %w", err))
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			yield("", fmt.Errorf("openai error (status %d): %s", resp.StatusCode, string(body)))
			return
		}

		scanner := bufio.NewScanner(resp.Body)
		// Deltas are small, but allow for oversized metadata lines.
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || !strings.HasPrefix(line, "data:") {
				continue
			}
			payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if payload == "[DONE]" {
				return
			}

			var chunk streamChunk
			if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
				yield("", fmt.Errorf("openai: decode stream chunk: %w", err))
				return
			}
			if chunk.Error != nil {
				yield("", fmt.Errorf("openai error: %s", chunk.Error.Message))
				return
			}
			if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
				continue
			}
			if !yield(chunk.Choices[0].Delta.Content, nil) {
				return
			}
		}

		if err := scanner.Err(); err != nil {
			yield("", fmt.Errorf("openai: read stream: %w", err))
		}
	}
}

// post sends a JSON POST request and returns the raw response body.
// Non-2xx statuses are returned as errors including the body.
func (c *Client) post(ctx context.Context, client *http.Client, path string, reqBody any) ([]byte, error) {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("openai: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("openai: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai: send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("openai: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openai error (status %d): %s", resp.StatusCode, string(body))
	}
	return body, nil
}
