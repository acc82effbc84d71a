// Package embeddings generates vector embeddings via remote providers.
//
// The Client batches texts to the configured provider and validates the
// response against the call contract: one vector per input text, all vectors
// the same length. A provider breaking that contract is a bug, not a
// transient fault, and is reported as ErrContractViolation so callers never
// retry it.
package embeddings

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmptyInput indicates an empty query text.
	ErrEmptyInput = errors.New("empty input text")

	// ErrProvider indicates the remote call failed (network, auth, quota).
	// The run may be retried by an outer policy.
	ErrProvider = errors.New("embedding provider request failed")

	// ErrContractViolation indicates the provider returned malformed or
	// misaligned data. Never retried: retrying a buggy response wastes calls.
	ErrContractViolation = errors.New("embedding provider violated response contract")
)

// Config holds configuration for creating an embedding client.
type Config struct {
	// Provider is the provider type: "gemini" (default) or "tei".
	Provider string
	// Model is the embedding model name.
	Model string
	// BaseURL overrides the provider endpoint. Required for TEI.
	BaseURL string
	// APIKey authenticates against the provider (Gemini only).
	APIKey string
	// BatchSize caps the number of texts per remote call. Default 100.
	BatchSize int
	// HTTPClient overrides the HTTP client, mainly for tests.
	HTTPClient *http.Client
}

// remote is one provider's wire protocol: embed a single bounded batch.
type remote interface {
	embedBatch(ctx context.Context, texts []string) ([][]float32, error)
	dimension() int
}

// Client is the embedding client used by the pipeline and the query service.
type Client struct {
	remote    remote
	batchSize int
}

// NewClient creates an embedding client for the configured provider.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.BatchSize < 0 {
		return nil, fmt.Errorf("%w: batch size must be positive", ErrInvalidConfig)
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}

	var r remote
	var err error
	switch cfg.Provider {
	case "gemini", "":
		r, err = newGeminiRemote(cfg)
	case "tei":
		r, err = newTEIRemote(cfg)
	default:
		err = fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	return &Client{remote: r, batchSize: cfg.BatchSize}, nil
}

// Dimension returns the embedding dimension for the configured model.
func (c *Client) Dimension() int {
	return c.remote.dimension()
}

// EmbedDocuments generates embeddings for the given texts, index-aligned
// with the input.
//
// Texts are sent in batches of at most BatchSize, issued in order, and the
// results concatenated in order. An empty input returns an empty result
// without issuing a remote call. The client does not retry.
func (c *Client) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += c.batchSize {
		end := start + c.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		vecs, err := c.remote.embedBatch(ctx, batch)
		if err != nil {
			return nil, err
		}
		if len(vecs) != len(batch) {
			return nil, fmt.Errorf("%w: got %d vectors for %d texts", ErrContractViolation, len(vecs), len(batch))
		}
		vectors = append(vectors, vecs...)
	}

	// All vectors in one run must share the provider's output dimensionality.
	want := len(vectors[0])
	if want == 0 {
		return nil, fmt.Errorf("%w: provider returned empty vector", ErrContractViolation)
	}
	for i, v := range vectors {
		if len(v) != want {
			return nil, fmt.Errorf("%w: vector %d has length %d, expected %d", ErrContractViolation, i, len(v), want)
		}
	}

	return vectors, nil
}

// EmbedQuery generates an embedding for a single query text.
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyInput
	}
	vectors, err := c.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}
