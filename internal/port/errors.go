package port

import "errors"

// Sentinel errors used across ports.
var (
	ErrCodeNotFound         = errors.New("code not found")
	ErrDuplicateCode        = errors.New("a code with this identifier already exists")
	ErrValidation           = errors.New("validation failed")
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
	ErrDimensionMismatch    = errors.New("embedding dimension mismatch")
	ErrMalformedUpload      = errors.New("malformed upload")
)
