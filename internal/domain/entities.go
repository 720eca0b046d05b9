package domain

import (
	"encoding/json"
	"time"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Conversation is a persisted chat session.
type Conversation struct {
	ID        string
	Title     string
	Persona   string
	Model     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// Message is a single conversation turn.
type Message struct {
	Role       Role
	Content    string
	Name       string     // tool name for tool-role messages
	ToolCallID string     // links a tool result to the call that produced it
	ToolCalls  []ToolCall // set on assistant messages that requested tools
	Tokens     int
	SentAt     time.Time
}

// Document is an ingested source file.
type Document struct {
	ID      string
	Path    string
	ModTime time.Time
	Kind    string
}

// Chunk is a token-bounded span of an ingested document.
type Chunk struct {
	ID      string
	DocID   string
	Ordinal int
	Tokens  int
	Text    string
}

// ScoredChunk pairs a chunk with a retrieval score.
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// Snippet is a citation-bearing piece of packed context.
type Snippet struct {
	Path  string  `json:"path"`
	Why   string  `json:"why"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// ContextBundle is retrieved context packed under a token budget.
type ContextBundle struct {
	Query        string    `json:"query"`
	BudgetTokens int       `json:"budget_tokens"`
	UsedTokens   int       `json:"used_tokens"`
	Snippets     []Snippet `json:"snippets"`
}

// Stats summarizes the knowledge store.
type Stats struct {
	TotalDocs   int
	TotalChunks int
	AvgChunkLen float64
}
