package provider

import (
	"context"
	"strings"
	"sync"

	"aissistant/internal/port"
)

// MockProvider is an in-process provider for tests and offline runs.
// It echoes a canned reply and records every request it receives.
type MockProvider struct {
	mu       sync.Mutex
	Replies  []string
	requests []port.Request
	calls    int
}

// NewMockProvider creates a mock with a single default reply.
func NewMockProvider() *MockProvider {
	return &MockProvider{Replies: []string{"mock reply"}}
}

// Name returns "mock".
func (m *MockProvider) Name() string { return "mock" }

// Requests returns a copy of all requests seen so far.
func (m *MockProvider) Requests() []port.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]port.Request(nil), m.requests...)
}

func (m *MockProvider) nextReply(req port.Request) string {
	m.requests = append(m.requests, req)
	reply := m.Replies[m.calls%len(m.Replies)]
	m.calls++
	return reply
}

// Complete returns the next canned reply with a rough usage estimate.
func (m *MockProvider) Complete(ctx context.Context, req port.Request) (*port.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	reply := m.nextReply(req)
	m.mu.Unlock()

	in := len(req.SystemPrompt) / 4
	for _, msg := range req.Messages {
		in += len(msg.Content) / 4
	}
	out := len(reply) / 4

	return &port.Response{
		Content:      reply,
		Model:        req.Model,
		FinishReason: "stop",
		Usage: port.TokenUsage{
			InputTokens:  in,
			OutputTokens: out,
			TotalTokens:  in + out,
		},
	}, nil
}

// Stream emits the canned reply word by word.
func (m *MockProvider) Stream(ctx context.Context, req port.Request) (<-chan port.StreamChunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	reply := m.nextReply(req)
	m.mu.Unlock()

	out := make(chan port.StreamChunk)
	go func() {
		defer close(out)
		words := strings.SplitAfter(reply, " ")
		for _, w := range words {
			select {
			case out <- port.StreamChunk{Content: w}:
			case <-ctx.Done():
				out <- port.StreamChunk{Err: ctx.Err(), Done: true}
				return
			}
		}
		out <- port.StreamChunk{
			Usage: &port.TokenUsage{OutputTokens: len(reply) / 4, TotalTokens: len(reply) / 4},
			Done:  true,
		}
	}()
	return out, nil
}

var _ port.Provider = (*MockProvider)(nil)
