package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/arturoeanton/go-semantic-codes-ollama/internal/domain"
	"github.com/arturoeanton/go-semantic-codes-ollama/internal/port"
)

// CodeStore implements port.CodeStore on top of Postgres with pgvector.
type CodeStore struct {
	db *sql.DB
}

// NewCodeStore creates a code store backed by the given Postgres store.
func NewCodeStore(store *PostgresStore) *CodeStore {
	return &CodeStore{db: store.db}
}

const codeColumns = `id, code, description, embedding, created_at, updated_at`

// Insert persists a single record and returns the stored row.
func (s *CodeStore) Insert(ctx context.Context, rec domain.NewCode) (*domain.Code, error) {
	query := `INSERT INTO codes (code, description, embedding)
	          VALUES ($1, $2, $3::vector)
	          RETURNING ` + codeColumns

	row := s.db.QueryRowContext(ctx, query, rec.Code, rec.Description, rec.Embedding)
	code, err := scanCode(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("insert code %q: %w", rec.Code, port.ErrDuplicateCode)
		}
		return nil, fmt.Errorf("insert code: %w", err)
	}
	return code, nil
}

// InsertBatch persists all records inside one transaction. Either every row
// becomes visible or none of them do.
func (s *CodeStore) InsertBatch(ctx context.Context, recs []domain.NewCode) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO codes (code, description, embedding) VALUES ($1, $2, $3::vector)`)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, rec := range recs {
		if _, err := stmt.ExecContext(ctx, rec.Code, rec.Description, rec.Embedding); err != nil {
			if isUniqueViolation(err) {
				return 0, fmt.Errorf("insert code %q: %w", rec.Code, port.ErrDuplicateCode)
			}
			return 0, fmt.Errorf("insert code %q: %w", rec.Code, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(recs), nil
}

// GetByID returns a record by its id.
func (s *CodeStore) GetByID(ctx context.Context, id int64) (*domain.Code, error) {
	query := `SELECT ` + codeColumns + ` FROM codes WHERE id = $1`

	code, err := scanCode(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("code id %d: %w", id, port.ErrCodeNotFound)
		}
		return nil, fmt.Errorf("get code: %w", err)
	}
	return code, nil
}

// GetByCode returns a record by its code value.
func (s *CodeStore) GetByCode(ctx context.Context, codeValue string) (*domain.Code, error) {
	query := `SELECT ` + codeColumns + ` FROM codes WHERE code = $1`

	code, err := scanCode(s.db.QueryRowContext(ctx, query, codeValue))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("code %q: %w", codeValue, port.ErrCodeNotFound)
		}
		return nil, fmt.Errorf("get code: %w", err)
	}
	return code, nil
}

// Update persists new field values as one statement. The embedding column is
// only touched when a new vector is given.
func (s *CodeStore) Update(ctx context.Context, id int64, codeValue, description string, embedding *pgvector.Vector) (*domain.Code, error) {
	var row *sql.Row
	if embedding != nil {
		query := `UPDATE codes SET code = $2, description = $3, embedding = $4::vector, updated_at = NOW()
		          WHERE id = $1 RETURNING ` + codeColumns
		row = s.db.QueryRowContext(ctx, query, id, codeValue, description, *embedding)
	} else {
		query := `UPDATE codes SET code = $2, description = $3, updated_at = NOW()
		          WHERE id = $1 RETURNING ` + codeColumns
		row = s.db.QueryRowContext(ctx, query, id, codeValue, description)
	}

	code, err := scanCode(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("code id %d: %w", id, port.ErrCodeNotFound)
		}
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("update code %q: %w", codeValue, port.ErrDuplicateCode)
		}
		return nil, fmt.Errorf("update code: %w", err)
	}
	return code, nil
}

// Delete removes a record permanently.
func (s *CodeStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM codes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete code: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete code: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("code id %d: %w", id, port.ErrCodeNotFound)
	}
	return nil
}

// List returns one page of records ordered by ascending id.
func (s *CodeStore) List(ctx context.Context, page, size int) (*domain.CodePage, error) {
	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM codes`).Scan(&total); err != nil {
		return nil, fmt.Errorf("count codes: %w", err)
	}

	query := `SELECT ` + codeColumns + ` FROM codes ORDER BY id ASC LIMIT $1 OFFSET $2`
	rows, err := s.db.QueryContext(ctx, query, size, page*size)
	if err != nil {
		return nil, fmt.Errorf("list codes: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Code, 0, size)
	for rows.Next() {
		code, err := scanCode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan code: %w", err)
		}
		items = append(items, *code)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list codes: %w", err)
	}

	totalPages := int((total + int64(size) - 1) / int64(size))
	return &domain.CodePage{
		Items:      items,
		Page:       page,
		Size:       size,
		TotalItems: total,
		TotalPages: totalPages,
	}, nil
}

// NearestNeighbors returns at most limit records with a non-null embedding,
// ordered by ascending cosine distance. Ties break by ascending id so the
// ordering is deterministic for a fixed data set.
func (s *CodeStore) NearestNeighbors(ctx context.Context, query pgvector.Vector, limit int) ([]domain.Neighbor, error) {
	stmt := `SELECT id, code, description, created_at, updated_at,
	                embedding <=> $1::vector AS distance
	         FROM codes
	         WHERE embedding IS NOT NULL
	         ORDER BY embedding <=> $1::vector, id ASC
	         LIMIT $2`

	rows, err := s.db.QueryContext(ctx, stmt, query, limit)
	if err != nil {
		return nil, fmt.Errorf("nearest neighbors: %w", err)
	}
	defer rows.Close()

	var neighbors []domain.Neighbor
	for rows.Next() {
		var n domain.Neighbor
		if err := rows.Scan(
			&n.ID, &n.Code.Code, &n.Description, &n.CreatedAt, &n.UpdatedAt, &n.Distance,
		); err != nil {
			return nil, fmt.Errorf("scan neighbor: %w", err)
		}
		neighbors = append(neighbors, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("nearest neighbors: %w", err)
	}
	return neighbors, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanCode(row scanner) (*domain.Code, error) {
	var (
		code      domain.Code
		embedding sql.Null[pgvector.Vector]
	)
	if err := row.Scan(
		&code.ID, &code.Code, &code.Description, &embedding, &code.CreatedAt, &code.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if embedding.Valid {
		code.Embedding = &embedding.V
	}
	return &code, nil
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
