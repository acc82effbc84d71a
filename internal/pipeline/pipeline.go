// Package pipeline orchestrates one ingestion run: load documents from the
// configured source directories, chunk them, embed the chunks, and upsert
// the resulting points into the vector store.
package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ale-uy/profilerag/internal/document"
	"github.com/ale-uy/profilerag/internal/vectorstore"
)

// Stage names the pipeline stage a failure occurred in.
type Stage string

const (
	StageLoading   Stage = "loading"
	StageChunking  Stage = "chunking"
	StageEmbedding Stage = "embedding"
	StageStoring   Stage = "storing"
)

// StageError wraps a fatal pipeline error with the stage it occurred in,
// so the run outcome always names both the stage and the cause.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Loader produces raw documents from one source directory.
type Loader interface {
	LoadDirectory(ctx context.Context, root string) ([]document.Raw, error)
}

// Chunker splits raw documents into chunks.
type Chunker interface {
	Split(docs []document.Raw) []document.Chunk
}

// Embedder turns chunk texts into index-aligned vectors.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

// Store is the subset of the vector store the pipeline needs.
type Store interface {
	EnsureCollection(ctx context.Context, collectionName string, vectorSize uint64) (created bool, err error)
	UpsertPoints(ctx context.Context, collectionName string, points []vectorstore.Point) error
}

// Config holds the run parameters of the pipeline.
type Config struct {
	// Collection is the target collection name.
	Collection string

	// Sources are the document source directories, in a fixed order.
	// The order matters: point IDs are positional over the concatenated
	// document sequence, so a stable order keeps re-ingestion idempotent.
	Sources []string
}

// Result summarizes one completed ingestion run.
type Result struct {
	// RunID identifies the run in logs.
	RunID string

	// Documents is the number of raw documents loaded across all sources.
	Documents int

	// Chunks is the number of chunks produced (and points written, when
	// the run was not empty).
	Chunks int

	// CollectionCreated reports whether this run created the collection.
	CollectionCreated bool
}

// Empty reports whether the run completed without anything to index.
func (r *Result) Empty() bool {
	return r.Chunks == 0
}

// Pipeline wires the ingestion stages together.
type Pipeline struct {
	loader   Loader
	chunker  Chunker
	embedder Embedder
	store    Store
	config   Config
	logger   *zap.Logger
}

// New creates a Pipeline. All collaborators are required.
func New(cfg Config, loader Loader, chunker Chunker, embedder Embedder, store Store, logger *zap.Logger) (*Pipeline, error) {
	if cfg.Collection == "" {
		return nil, fmt.Errorf("collection name required")
	}
	if loader == nil || chunker == nil || embedder == nil || store == nil {
		return nil, fmt.Errorf("loader, chunker, embedder and store are all required")
	}
	return &Pipeline{
		loader:   loader,
		chunker:  chunker,
		embedder: embedder,
		store:    store,
		config:   cfg,
		logger:   logger.Named("pipeline"),
	}, nil
}

// Run executes one ingestion run.
//
// Per-file and per-directory problems are absorbed inside the loader; an
// empty document or chunk set short-circuits the run as an empty success
// (no collection is created, no remote call is made). Failures in the
// embedding or storing stages abort the run with a StageError naming the
// stage: they mean the provider or the store is unusable for this run.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	result := &Result{RunID: uuid.New().String()}
	logger := p.logger.With(zap.String("run_id", result.RunID))

	logger.Info("ingestion run starting",
		zap.String("collection", p.config.Collection),
		zap.Strings("sources", p.config.Sources))

	// Loading. Sources are processed in their configured order so the
	// concatenated document sequence, and therefore the point IDs, are
	// deterministic for unchanged directory contents.
	var docs []document.Raw
	for _, source := range p.config.Sources {
		loaded, err := p.loader.LoadDirectory(ctx, source)
		if err != nil {
			return nil, &StageError{Stage: StageLoading, Err: err}
		}
		docs = append(docs, loaded...)
	}
	result.Documents = len(docs)

	if len(docs) == 0 {
		logger.Info("no documents found, nothing to ingest")
		return result, nil
	}

	// Chunking.
	chunks := p.chunker.Split(docs)
	if len(chunks) == 0 {
		logger.Info("no chunks after filtering, nothing to ingest",
			zap.Int("documents", len(docs)))
		return result, nil
	}
	logger.Info("documents chunked",
		zap.Int("documents", len(docs)),
		zap.Int("chunks", len(chunks)))

	// Embedding.
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}
	vectors, err := p.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, &StageError{Stage: StageEmbedding, Err: err}
	}
	if len(vectors) != len(chunks) {
		return nil, &StageError{
			Stage: StageEmbedding,
			Err:   fmt.Errorf("got %d vectors for %d chunks", len(vectors), len(chunks)),
		}
	}

	// Storing. The collection is sized to the provider's actual output
	// dimensionality, derived from the run, never configured.
	vectorSize := uint64(len(vectors[0]))
	created, err := p.store.EnsureCollection(ctx, p.config.Collection, vectorSize)
	if err != nil {
		return nil, &StageError{Stage: StageStoring, Err: err}
	}
	result.CollectionCreated = created

	points := make([]vectorstore.Point, len(chunks))
	for i, chunk := range chunks {
		points[i] = vectorstore.Point{
			ID:     uint64(i),
			Vector: vectors[i],
			Payload: vectorstore.Payload{
				PageContent: chunk.Text,
				Metadata:    chunk.Metadata,
			},
		}
	}
	if err := p.store.UpsertPoints(ctx, p.config.Collection, points); err != nil {
		return nil, &StageError{Stage: StageStoring, Err: err}
	}
	result.Chunks = len(chunks)

	logger.Info("ingestion run complete",
		zap.Int("documents", result.Documents),
		zap.Int("points", result.Chunks),
		zap.Bool("collection_created", created))
	return result, nil
}
