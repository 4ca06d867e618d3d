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

// Field constraints, matching the store schema.
const (
	maxCodeLen        = 50
	maxDescriptionLen = 2000
	maxPageSize       = 100
)

// CodeService orchestrates single-record CRUD over the embedder and store.
type CodeService struct {
	store    port.CodeStore
	embedder port.Embedder
}

// NewCodeService creates a new code service.
func NewCodeService(store port.CodeStore, embedder port.Embedder) *CodeService {
	return &CodeService{store: store, embedder: embedder}
}

// Create embeds the description and persists a new record. Any failure
// aborts the whole operation; nothing partial becomes visible.
func (s *CodeService) Create(ctx context.Context, codeValue, description string) (*domain.Code, error) {
	if err := validateFields(codeValue, description); err != nil {
		return nil, err
	}

	vector, err := s.embedder.Embed(ctx, description)
	if err != nil {
		return nil, fmt.Errorf("embed description: %w", err)
	}

	code, err := s.store.Insert(ctx, domain.NewCode{
		Code:        codeValue,
		Description: description,
		Embedding:   pgvector.NewVector(vector),
	})
	if err != nil {
		return nil, err
	}

	slog.Info("code created", "id", code.ID, "code", code.Code)
	return code, nil
}

// GetByID returns a record by id.
func (s *CodeService) GetByID(ctx context.Context, id int64) (*domain.Code, error) {
	return s.store.GetByID(ctx, id)
}

// GetByCode returns a record by its code value.
func (s *CodeService) GetByCode(ctx context.Context, codeValue string) (*domain.Code, error) {
	return s.store.GetByCode(ctx, codeValue)
}

// List returns one page of records ordered by ascending id.
func (s *CodeService) List(ctx context.Context, page, size int) (*domain.CodePage, error) {
	if page < 0 {
		return nil, fmt.Errorf("%w: page must not be negative", port.ErrValidation)
	}
	if size < 1 || size > maxPageSize {
		return nil, fmt.Errorf("%w: size must be between 1 and %d", port.ErrValidation, maxPageSize)
	}
	return s.store.List(ctx, page, size)
}

// Update persists new field values; the embedding is regenerated only when
// the description text actually changed.
func (s *CodeService) Update(ctx context.Context, id int64, codeValue, description string) (*domain.Code, error) {
	if err := validateFields(codeValue, description); err != nil {
		return nil, err
	}

	existing, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var embedding *pgvector.Vector
	if existing.Description != description {
		vector, err := s.embedder.Embed(ctx, description)
		if err != nil {
			return nil, fmt.Errorf("embed description: %w", err)
		}
		v := pgvector.NewVector(vector)
		embedding = &v
	}

	code, err := s.store.Update(ctx, id, codeValue, description, embedding)
	if err != nil {
		return nil, err
	}

	slog.Info("code updated", "id", id, "reembedded", embedding != nil)
	return code, nil
}

// Delete removes a record permanently.
func (s *CodeService) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	slog.Info("code deleted", "id", id)
	return nil
}

// validateFields checks the code/description constraints shared by create,
// update, and CSV ingestion rows.
func validateFields(codeValue, description string) error {
	if strings.TrimSpace(codeValue) == "" {
		return fmt.Errorf("%w: code is required", port.ErrValidation)
	}
	if len(codeValue) > maxCodeLen {
		return fmt.Errorf("%w: code must be at most %d characters", port.ErrValidation, maxCodeLen)
	}
	if strings.TrimSpace(description) == "" {
		return fmt.Errorf("%w: description is required", port.ErrValidation)
	}
	if len(description) > maxDescriptionLen {
		return fmt.Errorf("%w: description must be at most %d characters", port.ErrValidation, maxDescriptionLen)
	}
	return nil
}
