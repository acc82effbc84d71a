package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ale-uy/profilerag/internal/config"
	"github.com/ale-uy/profilerag/internal/embeddings"
	"github.com/ale-uy/profilerag/internal/logging"
	"github.com/ale-uy/profilerag/internal/query"
	"github.com/ale-uy/profilerag/internal/vectorstore"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question over the indexed profile",
	Long: `Embed the question, retrieve the nearest chunks from the Qdrant
collection, and answer using only that context.

Examples:
  # Ask a question
  profilerag ask "What databases has this person worked with?"

  # Multi-word questions without quotes work too
  profilerag ask What is their strongest language?`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	question := strings.Join(args, " ")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logging.Sync(logger)

	store, err := vectorstore.New(vectorstore.Config{
		Host:   cfg.Qdrant.Host,
		Port:   cfg.Qdrant.Port,
		APIKey: cfg.Qdrant.APIKey.Value(),
		UseTLS: cfg.Qdrant.UseTLS,
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

	llm, err := query.NewLLMClient(query.LLMConfig{
		Model:   cfg.LLM.Model,
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey.Value(),
		Timeout: cfg.LLM.Timeout.Duration(),
	})
	if err != nil {
		return fmt.Errorf("creating LLM client: %w", err)
	}

	svc, err := query.NewService(query.Config{
		Collection:     cfg.Collection.Name,
		TopK:           uint64(cfg.LLM.TopK),
		PromptTemplate: cfg.LLM.SystemPrompt,
	}, embedder, store, llm, logger)
	if err != nil {
		return fmt.Errorf("creating query service: %w", err)
	}

	answer, err := svc.Ask(ctx, question)
	if err != nil {
		return err
	}

	fmt.Println(answer.Text)
	if len(answer.Sources) > 0 {
		fmt.Println("\nSources:")
		for _, source := range answer.Sources {
			fmt.Println("  -", source)
		}
	}
	return nil
}

// loadConfig reads the config file named by the --config flag (optional)
// and applies environment overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	return cfg, nil
}
