package port

import (
	"context"

	"github.com/pgvector/pgvector-go"

	"github.com/arturoeanton/go-semantic-codes-ollama/internal/domain"
)

// CodeStore abstracts persistence of code records and nearest-neighbor
// retrieval over their embeddings.
type CodeStore interface {
	// Insert persists a single record. Returns ErrDuplicateCode when the
	// code value already exists.
	Insert(ctx context.Context, rec domain.NewCode) (*domain.Code, error)

	// InsertBatch persists all records in one transaction; either all rows
	// become visible or none do.
	InsertBatch(ctx context.Context, recs []domain.NewCode) (int, error)

	// GetByID returns a record by id, or ErrCodeNotFound.
	GetByID(ctx context.Context, id int64) (*domain.Code, error)

	// GetByCode returns a record by its code value, or ErrCodeNotFound.
	GetByCode(ctx context.Context, code string) (*domain.Code, error)

	// Update persists new code/description values, and a new embedding when
	// one is given. Returns ErrCodeNotFound or ErrDuplicateCode.
	Update(ctx context.Context, id int64, code, description string, embedding *pgvector.Vector) (*domain.Code, error)

	// Delete removes a record permanently. Returns ErrCodeNotFound when the
	// record does not exist, including on repeated deletes.
	Delete(ctx context.Context, id int64) error

	// List returns one page of records ordered by ascending id.
	List(ctx context.Context, page, size int) (*domain.CodePage, error)

	// NearestNeighbors returns at most limit records with a non-null
	// embedding, ordered by ascending cosine distance to the query vector,
	// ties broken by ascending id.
	NearestNeighbors(ctx context.Context, query pgvector.Vector, limit int) ([]domain.Neighbor, error)
}
