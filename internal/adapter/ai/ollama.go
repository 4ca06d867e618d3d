package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/arturoeanton/go-semantic-codes-ollama/internal/port"
)

// OllamaConfig holds the configuration for the Ollama embeddings endpoint.
type OllamaConfig struct {
	BaseURL   string // e.g. http://localhost:11434 or https://api.ollama.com
	Model     string // e.g. nomic-embed-text
	Token     string // Bearer token for Ollama Cloud (empty = no auth)
	Dimension int    // expected width of returned vectors

	MaxAttempts int           // total attempts per Embed call
	BaseDelay   time.Duration // delay before the 2nd attempt; doubles each attempt
	Timeout     time.Duration // per-request HTTP timeout
}

// OllamaEmbedder implements port.Embedder against the Ollama REST API.
type OllamaEmbedder struct {
	cfg        OllamaConfig
	httpClient *http.Client
}

// NewOllamaEmbedder creates a new Ollama-backed embedder.
func NewOllamaEmbedder(cfg OllamaConfig) *OllamaEmbedder {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &OllamaEmbedder{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// ModelName returns the embedding model identifier.
func (o *OllamaEmbedder) ModelName() string {
	return o.cfg.Model
}

// Embed generates a vector embedding for the given text, retrying transient
// failures with exponential backoff (1s, 2s, 4s by default). A vector of the
// wrong width fails immediately with port.ErrDimensionMismatch; exhausting
// all attempts fails with port.ErrEmbeddingUnavailable.
func (o *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var lastErr error
	for attempt := 1; attempt <= o.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := o.cfg.BaseDelay << (attempt - 2)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		vector, err := o.embedOnce(ctx, text)
		if err == nil {
			if len(vector) != o.cfg.Dimension {
				return nil, fmt.Errorf("%w: got %d values, want %d",
					port.ErrDimensionMismatch, len(vector), o.cfg.Dimension)
			}
			return vector, nil
		}

		lastErr = err
		slog.Warn("ollama embed attempt failed",
			"attempt", attempt,
			"max_attempts", o.cfg.MaxAttempts,
			"error", err,
		)
	}

	return nil, fmt.Errorf("%w: %v", port.ErrEmbeddingUnavailable, lastErr)
}

// embedOnce performs a single call to the Ollama embeddings API.
func (o *OllamaEmbedder) embedOnce(ctx context.Context, text string) ([]float32, error) {
	payload := map[string]any{
		"model":  o.cfg.Model,
		"prompt": text,
	}

	body, err := o.post(ctx, "/api/embeddings", payload)
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}

	var resp struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("ollama embed decode: %w", err)
	}

	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("ollama embed: empty response")
	}

	return resp.Embedding, nil
}

// post is a helper for POST requests to the Ollama endpoint (with optional bearer token).
func (o *OllamaEmbedder) post(ctx context.Context, path string, payload any) ([]byte, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.BaseURL+path, bytes.NewReader(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if o.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+o.cfg.Token)
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama API error (%d): %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}
