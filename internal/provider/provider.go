// Package provider defines the provider-client interface the engine consumes.
//
// The core retrieval and generation logic is provider-agnostic: it depends
// only on Client, and tests substitute fakes. Concrete implementations live
// in the openai and gemini subpackages.
package provider

import (
	"context"
	"errors"
	"iter"
)

// ErrMissingAPIKey indicates a provider client was constructed without a
// credential. Raised before any network call.
var ErrMissingAPIKey = errors.New("missing API key")

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single chat message. Conversation history is caller-supplied
// per request and never stored.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerateOptions controls a generation request.
type GenerateOptions struct {
	Temperature float32
	MaxTokens   int
}

// Client is the minimal provider surface the engine needs: order-preserving
// embedding, single-shot completion, and incremental streaming.
//
// StreamComplete returns a pull-based iterator of text fragments. The
// iterator yields fragments in provider arrival order; a non-nil error is
// terminal and is never followed by more fragments. Iteration ends cleanly
// on provider stream end.
type Client interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Complete(ctx context.Context, messages []Message, opts GenerateOptions) (string, error)
	StreamComplete(ctx context.Context, messages []Message, opts GenerateOptions) iter.Seq2[string, error]
}
