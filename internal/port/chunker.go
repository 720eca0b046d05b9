package port

import "aissistant/internal/domain"

// Chunker splits document content into token-bounded chunks.
type Chunker interface {
	Chunk(doc domain.Document, content string) ([]domain.Chunk, error)
}
