package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ale-uy/profilerag/internal/chunker"
	"github.com/ale-uy/profilerag/internal/embeddings"
	"github.com/ale-uy/profilerag/internal/loader"
	"github.com/ale-uy/profilerag/internal/logging"
	"github.com/ale-uy/profilerag/internal/pipeline"
	"github.com/ale-uy/profilerag/internal/vectorstore"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Index the profile documents into Qdrant",
	Long: `Load documents from the configured source directories, split them into
overlapping chunks, embed the chunks, and upsert them into the Qdrant
collection. Re-running replaces the previous index in place.

Examples:
  # Ingest with defaults (data/CV, data/projects, data/repos)
  profilerag ingest

  # Ingest with a config file
  profilerag ingest --config profilerag.yaml`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logging.Sync(logger)

	distance, err := vectorstore.ParseDistance(cfg.Collection.Distance)
	if err != nil {
		return err
	}

	store, err := vectorstore.New(vectorstore.Config{
		Host:     cfg.Qdrant.Host,
		Port:     cfg.Qdrant.Port,
		APIKey:   cfg.Qdrant.APIKey.Value(),
		UseTLS:   cfg.Qdrant.UseTLS,
		Distance: distance,
	}, logger)
	if err != nil {
		return fmt.Errorf("connecting to Qdrant: %w", err)
	}
	defer store.Close()

	embedder, err := embeddings.NewClient(embeddings.Config{
		Provider:  cfg.Embeddings.Provider,
		Model:     cfg.Embeddings.Model,
		BaseURL:   cfg.Embeddings.BaseURL,
		APIKey:    cfg.Embeddings.APIKey.Value(),
		BatchSize: cfg.Embeddings.BatchSize,
	})
	if err != nil {
		return fmt.Errorf("creating embedding client: %w", err)
	}

	splitter, err := chunker.New(chunker.Config{
		WindowSize: cfg.Chunking.WindowSize,
		Overlap:    cfg.Chunking.Overlap,
	})
	if err != nil {
		return fmt.Errorf("creating chunker: %w", err)
	}

	pipe, err := pipeline.New(pipeline.Config{
		Collection: cfg.Collection.Name,
		Sources:    cfg.Sources.Paths(),
	}, loader.New(logger), splitter, embedder, store, logger)
	if err != nil {
		return fmt.Errorf("creating pipeline: %w", err)
	}

	result, err := pipe.Run(ctx)
	if err != nil {
		return err
	}

	if result.Empty() {
		fmt.Printf("No documents to index (checked %d sources).\n", len(cfg.Sources.Dirs))
		return nil
	}
	fmt.Printf("Indexed %d chunks from %d documents into %q.\n",
		result.Chunks, result.Documents, cfg.Collection.Name)
	return nil
}
