package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arturoeanton/go-semantic-codes-ollama/internal/port"
)

func newSearchFixture(t *testing.T, descriptions map[string]string) (*SearchService, *fakeEmbedder) {
	t.Helper()
	store := newFakeStore()
	embedder := &fakeEmbedder{}
	codes := NewCodeService(store, embedder)

	for code, description := range descriptions {
		_, err := codes.Create(context.Background(), code, description)
		require.NoError(t, err)
	}
	embedder.calls = 0

	return NewSearchService(store, embedder, 50), embedder
}

func TestSearchValidation(t *testing.T) {
	svc, embedder := newSearchFixture(t, nil)
	ctx := context.Background()

	_, err := svc.Search(ctx, "   ", 5)
	assert.ErrorIs(t, err, port.ErrValidation)

	_, err = svc.Search(ctx, strings.Repeat("q", 501), 5)
	assert.ErrorIs(t, err, port.ErrValidation)

	_, err = svc.Search(ctx, "cold", 0)
	assert.ErrorIs(t, err, port.ErrValidation)

	_, err = svc.Search(ctx, "cold", 51)
	assert.ErrorIs(t, err, port.ErrValidation)

	assert.Zero(t, embedder.calls, "validation failures must not reach the embedder")
}

func TestSearchExactTextRanksFirst(t *testing.T) {
	svc, _ := newSearchFixture(t, map[string]string{
		"J00": "Acute nasopharyngitis",
		"J01": "Acute sinusitis",
		"J02": "Acute pharyngitis",
	})

	results, err := svc.Search(context.Background(), "Acute sinusitis", 3)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "J01", results[0].Code)
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-6,
		"identical text must score similarity 1")

	for i := 1; i < len(results); i++ {
		assert.LessOrEqual(t, results[i].Similarity, results[i-1].Similarity,
			"results must be ordered by descending similarity")
	}
}

func TestSearchHonorsLimit(t *testing.T) {
	svc, _ := newSearchFixture(t, map[string]string{
		"J00": "Acute nasopharyngitis",
		"J01": "Acute sinusitis",
		"J02": "Acute pharyngitis",
		"J03": "Acute tonsillitis",
	})

	results, err := svc.Search(context.Background(), "sore throat", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearchPropagatesEmbeddingFailure(t *testing.T) {
	svc, embedder := newSearchFixture(t, map[string]string{"J00": "Acute nasopharyngitis"})
	embedder.err = port.ErrEmbeddingUnavailable

	_, err := svc.Search(context.Background(), "cold", 5)
	assert.ErrorIs(t, err, port.ErrEmbeddingUnavailable)
}

func TestSearchEmptyStore(t *testing.T) {
	svc, _ := newSearchFixture(t, nil)

	results, err := svc.Search(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}
