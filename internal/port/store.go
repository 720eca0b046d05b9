package port

import "aissistant/internal/domain"

// ConversationStore persists chat sessions and their messages.
type ConversationStore interface {
	PutConversation(conv domain.Conversation) error
	GetConversation(id string) (domain.Conversation, error)
	ListConversations() ([]domain.Conversation, error)
	DeleteConversation(id string) error

	// AppendMessage appends a message to a conversation. Order of
	// appended messages is preserved.
	AppendMessage(convID string, msg domain.Message) error
	GetMessages(convID string) ([]domain.Message, error)
}

// KnowledgeStore persists ingested documents and their chunks.
type KnowledgeStore interface {
	PutDocument(doc domain.Document, chunks []domain.Chunk) error
	GetDocument(id string) (domain.Document, error)
	ListDocuments() ([]domain.Document, error)
	DeleteDocument(id string) error
	GetChunk(id string) (domain.Chunk, error)
	GetChunksByDoc(docID string) ([]domain.Chunk, error)
	AllChunks() ([]domain.Chunk, error)
	Stats() (domain.Stats, error)
}

// VectorItem is one embedding to store.
type VectorItem struct {
	ID     string
	Vector []float32
}

// VectorResult is one nearest-neighbor match.
type VectorResult struct {
	ID    string
	Score float64
}

// VectorIndex stores chunk embeddings and answers similarity queries.
type VectorIndex interface {
	Upsert(items []VectorItem) error
	Search(query []float32, k int) ([]VectorResult, error)
	Delete(ids []string) error
	Count() (int, error)
}

// UsageStore persists accumulated token usage across runs.
type UsageStore interface {
	AddUsage(model string, inputTokens, outputTokens int) error
	UsageTotals() (map[string]ModelUsage, error)
}

// ModelUsage is the persisted usage for one model.
type ModelUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	Requests     int `json:"requests"`
}
