package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pgvector/pgvector-go"

	"github.com/arturoeanton/go-semantic-codes-ollama/internal/domain"
	"github.com/arturoeanton/go-semantic-codes-ollama/internal/port"
)

const maxQueryLen = 500

// SearchService answers semantic queries over the stored codes.
type SearchService struct {
	store    port.CodeStore
	embedder port.Embedder
	maxLimit int
}

// NewSearchService creates a new search service. maxLimit bounds the number
// of results a single query may request.
func NewSearchService(store port.CodeStore, embedder port.Embedder, maxLimit int) *SearchService {
	if maxLimit < 1 {
		maxLimit = 50
	}
	return &SearchService{store: store, embedder: embedder, maxLimit: maxLimit}
}

// Search embeds the query, retrieves the nearest stored codes, and converts
// each cosine distance to a similarity score (1 - distance). Results keep
// the store's order: nearest first, i.e. highest similarity first.
func (s *SearchService) Search(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query must not be blank", port.ErrValidation)
	}
	if len(query) > maxQueryLen {
		return nil, fmt.Errorf("%w: query must be at most %d characters", port.ErrValidation, maxQueryLen)
	}
	if limit < 1 || limit > s.maxLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", port.ErrValidation, s.maxLimit)
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	neighbors, err := s.store.NearestNeighbors(ctx, pgvector.NewVector(vector), limit)
	if err != nil {
		return nil, fmt.Errorf("nearest neighbors: %w", err)
	}

	results := make([]domain.SearchResult, len(neighbors))
	for i, n := range neighbors {
		results[i] = domain.SearchResult{
			ID:          n.ID,
			Code:        n.Code.Code,
			Description: n.Description,
			Similarity:  1 - n.Distance,
		}
	}

	slog.Info("search completed", "limit", limit, "results", len(results))
	return results, nil
}
