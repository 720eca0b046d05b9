package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aissistant/config"
	"aissistant/internal/domain"
	"aissistant/internal/port"
)

func testConfig(t *testing.T, baseURL string) config.ProviderConfig {
	t.Helper()
	t.Setenv("TEST_API_KEY", "test-key")
	return config.ProviderConfig{
		Name:       "openai",
		APIKeyEnv:  "TEST_API_KEY",
		BaseURL:    baseURL,
		MaxRetries: 2,
		TimeoutSec: 5,
	}
}

func TestComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "gpt-4o-mini", req.Model)
		require.Len(t, req.Messages, 2) // system + user
		assert.Equal(t, "system", req.Messages[0].Role)

		fmt.Fprint(w, `{
			"model": "gpt-4o-mini",
			"choices": [{"message": {"role": "assistant", "content": "hello there"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 3, "total_tokens": 15}
		}`)
	}))
	defer srv.Close()

	c, err := NewOpenAIClient(testConfig(t, srv.URL), "")
	require.NoError(t, err)

	resp, err := c.Complete(context.Background(), port.Request{
		SystemPrompt: "be helpful",
		Model:        "gpt-4o-mini",
		Messages:     []domain.Message{{Role: domain.RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "hello there", resp.Content)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, 12, resp.Usage.InputTokens)
	assert.Equal(t, 3, resp.Usage.OutputTokens)
}

func TestComplete_ToolCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Tools, 1)
		assert.Equal(t, "function", req.Tools[0].Type)
		assert.Equal(t, "read_file", req.Tools[0].Function.Name)

		fmt.Fprint(w, `{
			"choices": [{
				"message": {
					"role": "assistant",
					"content": "",
					"tool_calls": [{"id": "call_1", "type": "function",
						"function": {"name": "read_file", "arguments": "{\"path\":\"main.go\"}"}}]
				},
				"finish_reason": "tool_calls"
			}]
		}`)
	}))
	defer srv.Close()

	c, err := NewOpenAIClient(testConfig(t, srv.URL), "")
	require.NoError(t, err)

	resp, err := c.Complete(context.Background(), port.Request{
		Model:    "gpt-4o-mini",
		Messages: []domain.Message{{Role: domain.RoleUser, Content: "read main.go"}},
		Tools: []port.Tool{{
			Name:        "read_file",
			Description: "Read a file",
			Parameters:  json.RawMessage(`{"type":"object"}`),
		}},
	})
	require.NoError(t, err)

	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "call_1", resp.ToolCalls[0].ID)
	assert.Equal(t, "read_file", resp.ToolCalls[0].Name)
	assert.JSONEq(t, `{"path":"main.go"}`, string(resp.ToolCalls[0].Arguments))
	assert.Equal(t, "tool_calls", resp.FinishReason)
}

func TestComplete_RetriesOn429(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, `{"error":{"message":"rate limited"}}`)
			return
		}
		fmt.Fprint(w, `{"choices": [{"message": {"content": "ok"}, "finish_reason": "stop"}]}`)
	}))
	defer srv.Close()

	c, err := NewOpenAIClient(testConfig(t, srv.URL), "")
	require.NoError(t, err)

	resp, err := c.Complete(context.Background(), port.Request{
		Model:    "gpt-4o-mini",
		Messages: []domain.Message{{Role: domain.RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, int32(2), calls.Load())
}

func TestComplete_NoRetryOn400(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"bad model"}}`)
	}))
	defer srv.Close()

	c, err := NewOpenAIClient(testConfig(t, srv.URL), "")
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), port.Request{Model: "nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Equal(t, int32(1), calls.Load())
}

func TestStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.True(t, req.Stream)

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"hel\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[],\"usage\":{\"prompt_tokens\":5,\"completion_tokens\":2,\"total_tokens\":7}}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	c, err := NewOpenAIClient(testConfig(t, srv.URL), "")
	require.NoError(t, err)

	ch, err := c.Stream(context.Background(), port.Request{
		Model:    "gpt-4o-mini",
		Messages: []domain.Message{{Role: domain.RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)

	var content string
	var usage *port.TokenUsage
	for chunk := range ch {
		require.NoError(t, chunk.Err)
		content += chunk.Content
		if chunk.Done {
			usage = chunk.Usage
		}
	}

	assert.Equal(t, "hello", content)
	require.NotNil(t, usage)
	assert.Equal(t, 7, usage.TotalTokens)
}

func TestNewOpenAIClient_MissingKey(t *testing.T) {
	t.Setenv("TEST_MISSING_KEY", "")
	_, err := NewOpenAIClient(config.ProviderConfig{APIKeyEnv: "TEST_MISSING_KEY"}, "http://x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TEST_MISSING_KEY")
}

func TestRegistry(t *testing.T) {
	names := Available()
	assert.Contains(t, names, "openai")
	assert.Contains(t, names, "mock")

	p, err := New("mock", config.ProviderConfig{})
	require.NoError(t, err)
	assert.Equal(t, "mock", p.Name())

	_, err = New("nope", config.ProviderConfig{})
	assert.Error(t, err)
}

func TestMockProvider_Stream(t *testing.T) {
	m := NewMockProvider()
	m.Replies = []string{"one two three"}

	ch, err := m.Stream(context.Background(), port.Request{})
	require.NoError(t, err)

	var content string
	for chunk := range ch {
		content += chunk.Content
	}
	assert.Equal(t, "one two three", content)
}
