package port

import "context"

// Embedder converts text into dense vectors via the hosted API.
type Embedder interface {
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the vector dimension.
	Dimension() int

	// ModelName returns the embedding model name.
	ModelName() string
}
