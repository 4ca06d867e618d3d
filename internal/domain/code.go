package domain

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

// Code is a classification code with its semantic embedding stored in pgvector.
type Code struct {
	ID          int64            `json:"id"          db:"id"`
	Code        string           `json:"code"        db:"code"`
	Description string           `json:"description" db:"description"`
	Embedding   *pgvector.Vector `json:"-"           db:"embedding"`
	CreatedAt   time.Time        `json:"created_at"  db:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"  db:"updated_at"`
}

// NewCode is a record that has not been persisted yet.
type NewCode struct {
	Code        string
	Description string
	Embedding   pgvector.Vector
}

// Neighbor is a stored code paired with its cosine distance to a query vector.
type Neighbor struct {
	Code
	Distance float64
}

// SearchResult is returned by semantic search, ranked by similarity.
type SearchResult struct {
	ID          int64   `json:"id"`
	Code        string  `json:"code"`
	Description string  `json:"description"`
	Similarity  float64 `json:"similarity"`
}

// UploadResult aggregates the outcome of one CSV ingestion.
type UploadResult struct {
	Succeeded int  `json:"successful"`
	Failed    int  `json:"failed"`
	Truncated bool `json:"truncated"`
}

// Total returns the number of data rows that were processed.
func (r UploadResult) Total() int {
	return r.Succeeded + r.Failed
}

// CodePage is one page of a code listing.
type CodePage struct {
	Items      []Code `json:"items"`
	Page       int    `json:"page"`
	Size       int    `json:"size"`
	TotalItems int64  `json:"total_items"`
	TotalPages int    `json:"total_pages"`
}
