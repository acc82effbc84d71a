// Package query answers questions over the indexed profile: it embeds the
// question, retrieves the nearest chunks from the vector store, and asks a
// chat model to answer using only that retrieved context.
package query

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ale-uy/profilerag/internal/vectorstore"
)

// DefaultTopK is the number of chunks retrieved per question.
const DefaultTopK = 5

const defaultPromptTemplate = `You are an assistant that answers questions about a person's professional profile.
Answer using ONLY the context below. If the context does not contain the
answer, say you don't know. Be concise.

Context:
{context}

Question: {question}

Answer:`

// Embedder produces a query vector for a question.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Searcher retrieves the nearest stored chunks for a query vector.
type Searcher interface {
	Search(ctx context.Context, collectionName string, vector []float32, limit uint64) ([]vectorstore.SearchResult, error)
}

// Config configures the query service.
type Config struct {
	Collection     string
	TopK           uint64
	PromptTemplate string
}

// Answer is the result of one question.
type Answer struct {
	// Text is the model's reply.
	Text string

	// Sources lists the source paths of the retrieved chunks, deduplicated
	// in retrieval order.
	Sources []string
}

// Service wires retrieval and generation together.
type Service struct {
	embedder Embedder
	searcher Searcher
	llm      LLMClient
	config   Config
	logger   *zap.Logger
}

// NewService creates a query Service.
func NewService(cfg Config, embedder Embedder, searcher Searcher, llm LLMClient, logger *zap.Logger) (*Service, error) {
	if cfg.Collection == "" {
		return nil, fmt.Errorf("collection name required")
	}
	if embedder == nil || searcher == nil || llm == nil {
		return nil, fmt.Errorf("embedder, searcher and llm are all required")
	}
	if cfg.TopK == 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.PromptTemplate == "" {
		cfg.PromptTemplate = defaultPromptTemplate
	}
	return &Service{
		embedder: embedder,
		searcher: searcher,
		llm:      llm,
		config:   cfg,
		logger:   logger.Named("query"),
	}, nil
}

// Ask answers one question against the indexed collection.
func (s *Service) Ask(ctx context.Context, question string) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question is empty")
	}

	vector, err := s.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embedding question: %w", err)
	}

	hits, err := s.searcher.Search(ctx, s.config.Collection, vector, s.config.TopK)
	if err != nil {
		return nil, fmt.Errorf("searching collection: %w", err)
	}
	s.logger.Debug("retrieved context",
		zap.String("collection", s.config.Collection),
		zap.Int("hits", len(hits)))

	prompt := s.buildPrompt(question, hits)
	text, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w", err)
	}

	return &Answer{
		Text:    strings.TrimSpace(text),
		Sources: collectSources(hits),
	}, nil
}

// buildPrompt fills the template with the retrieved chunks and the question.
// With no hits the context block says so explicitly rather than staying
// blank, so the model declines instead of improvising.
func (s *Service) buildPrompt(question string, hits []vectorstore.SearchResult) string {
	contextBlock := "(no relevant context found)"
	if len(hits) > 0 {
		parts := make([]string, len(hits))
		for i, hit := range hits {
			parts[i] = hit.PageContent
		}
		contextBlock = strings.Join(parts, "\n\n---\n\n")
	}

	replacer := strings.NewReplacer(
		"{context}", contextBlock,
		"{question}", question,
	)
	return replacer.Replace(s.config.PromptTemplate)
}

func collectSources(hits []vectorstore.SearchResult) []string {
	var sources []string
	seen := make(map[string]bool)
	for _, hit := range hits {
		source := hit.Metadata["source"]
		if source == "" || seen[source] {
			continue
		}
		seen[source] = true
		sources = append(sources, source)
	}
	return sources
}
