package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/pgvector/pgvector-go"

	"github.com/arturoeanton/go-semantic-codes-ollama/internal/domain"
	"github.com/arturoeanton/go-semantic-codes-ollama/internal/port"
)

// IngestConfig tunes the CSV ingestion pipeline.
type IngestConfig struct {
	MaxRows    int           // hard ceiling on data rows per upload
	ChunkSize  int           // rows persisted per transaction
	ChunkDelay time.Duration // pacing delay between chunk submissions
}

// IngestService runs the CSV batch ingestion pipeline: parse rows, embed
// each description, and persist fixed-size chunks in isolated transactions.
type IngestService struct {
	store    port.CodeStore
	embedder port.Embedder
	cfg      IngestConfig
}

// NewIngestService creates a new ingestion service.
func NewIngestService(store port.CodeStore, embedder port.Embedder, cfg IngestConfig) *IngestService {
	if cfg.MaxRows < 1 {
		cfg.MaxRows = 1000
	}
	if cfg.ChunkSize < 1 {
		cfg.ChunkSize = 100
	}
	return &IngestService{store: store, embedder: embedder, cfg: cfg}
}

// tally accumulates per-invocation counters. It is threaded through the row
// loop as a value so concurrent uploads never share state.
type tally struct {
	succeeded int
	failed    int
	truncated bool
}

// UploadCSV ingests a `code,description` CSV whose first line is a header.
// Row-level and chunk-level failures are absorbed into the failure counter;
// the call itself only fails for an invalid file or a broken stream. Chunks
// committed before a mid-stream failure stay committed.
func (s *IngestService) UploadCSV(ctx context.Context, filename string, r io.Reader) (*domain.UploadResult, error) {
	if !strings.HasSuffix(strings.ToLower(filename), ".csv") {
		return nil, fmt.Errorf("%w: file must be a CSV", port.ErrMalformedUpload)
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // field count is validated per row

	// The header line is required; an empty stream has none.
	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: file is empty", port.ErrMalformedUpload)
		}
		return nil, fmt.Errorf("%w: unreadable header: %v", port.ErrMalformedUpload, err)
	}

	var (
		acc   tally
		chunk []domain.NewCode
		rows  int
	)

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				slog.Warn("skipping unparseable row", "line", parseErr.Line, "error", parseErr.Err)
				acc.failed++
				continue
			}
			// The stream itself broke; chunks already committed stay committed.
			return nil, fmt.Errorf("read csv: %w", err)
		}

		rows++
		if rows > s.cfg.MaxRows {
			slog.Warn("row ceiling reached, ignoring remaining rows", "max_rows", s.cfg.MaxRows)
			acc.truncated = true
			break
		}

		codeValue, description, ok := parseRow(record)
		if !ok {
			slog.Warn("skipping malformed row", "row", rows)
			acc.failed++
			continue
		}

		vector, err := s.embedder.Embed(ctx, description)
		if err != nil {
			slog.Warn("embedding failed for row", "row", rows, "code", codeValue, "error", err)
			acc.failed++
			continue
		}

		chunk = append(chunk, domain.NewCode{
			Code:        codeValue,
			Description: description,
			Embedding:   pgvector.NewVector(vector),
		})

		if len(chunk) >= s.cfg.ChunkSize {
			acc = s.persistChunk(ctx, chunk, acc)
			chunk = nil

			// Pacing between chunk submissions; not part of any transaction.
			time.Sleep(s.cfg.ChunkDelay)

			slog.Info("ingestion progress", "succeeded", acc.succeeded, "failed", acc.failed)
		}
	}

	acc = s.persistChunk(ctx, chunk, acc)

	slog.Info("csv upload completed",
		"succeeded", acc.succeeded,
		"failed", acc.failed,
		"truncated", acc.truncated,
	)

	return &domain.UploadResult{
		Succeeded: acc.succeeded,
		Failed:    acc.failed,
		Truncated: acc.truncated,
	}, nil
}

// persistChunk writes one chunk in its own transaction. A failed chunk moves
// all of its rows to the failure counter; earlier chunks are unaffected and
// later chunks still proceed.
func (s *IngestService) persistChunk(ctx context.Context, chunk []domain.NewCode, acc tally) tally {
	if len(chunk) == 0 {
		return acc
	}

	if _, err := s.store.InsertBatch(ctx, chunk); err != nil {
		slog.Error("chunk persist failed", "rows", len(chunk), "error", err)
		acc.failed += len(chunk)
		return acc
	}

	acc.succeeded += len(chunk)
	return acc
}

// parseRow validates one CSV record: exactly two fields, both non-blank
// after trimming, within the column length bounds.
func parseRow(record []string) (codeValue, description string, ok bool) {
	if len(record) != 2 {
		return "", "", false
	}
	codeValue = strings.TrimSpace(record[0])
	description = strings.TrimSpace(record[1])
	if codeValue == "" || description == "" {
		return "", "", false
	}
	if len(codeValue) > maxCodeLen || len(description) > maxDescriptionLen {
		return "", "", false
	}
	return codeValue, description, true
}
