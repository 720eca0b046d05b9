package port

import (
	"context"
	"encoding/json"
	"time"

	"aissistant/internal/domain"
)

// Provider is the unified interface to a hosted model endpoint.
// Implementations must be safe for concurrent use.
type Provider interface {
	// Complete sends a request and returns the full response.
	Complete(ctx context.Context, req Request) (*Response, error)

	// Stream sends a request and returns a channel of response chunks.
	// The channel is closed after the final chunk (Done=true); errors
	// during streaming arrive via chunk.Err.
	Stream(ctx context.Context, req Request) (<-chan StreamChunk, error)

	// Name returns the provider name (e.g. "openai").
	Name() string
}

// Request configures one completion call.
type Request struct {
	SystemPrompt string
	Messages     []domain.Message
	Model        string
	MaxTokens    int
	Temperature  float64
	Tools        []Tool
}

// Tool describes a function the model may call.
type Tool struct {
	Name        string
	Description string
	Parameters  json.RawMessage // JSON Schema
}

// TokenUsage reports token consumption for one request.
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Response is the output of a completion call.
type Response struct {
	Content      string
	ToolCalls    []domain.ToolCall
	Usage        TokenUsage
	Model        string
	FinishReason string
	Duration     time.Duration
}

// StreamChunk is one piece of a streaming response.
type StreamChunk struct {
	Content   string
	ToolCalls []domain.ToolCall
	Usage     *TokenUsage // set on the final chunk when the API reports it
	Done      bool
	Err       error
}
