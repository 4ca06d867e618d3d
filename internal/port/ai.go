package port

import "context"

// Embedder abstracts the embedding backend. Implementations can target
// Ollama or any compatible API.
type Embedder interface {
	// ModelName returns the identifier of the embedding model being used.
	ModelName() string

	// Embed generates a vector embedding for the given text. It returns
	// ErrEmbeddingUnavailable once its internal retries are exhausted and
	// ErrDimensionMismatch when the backend returns a vector of the wrong
	// width; callers must not retry either.
	Embed(ctx context.Context, text string) ([]float32, error)
}
