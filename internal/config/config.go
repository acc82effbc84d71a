// Package config provides configuration loading for profilerag.
//
// Configuration is read from an optional YAML file and overridden by
// environment variables, with hardcoded defaults for everything else.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"
)

// Config holds the complete profilerag configuration.
type Config struct {
	Collection CollectionConfig `koanf:"collection"`
	Sources    SourcesConfig    `koanf:"sources"`
	Chunking   ChunkingConfig   `koanf:"chunking"`
	Qdrant     QdrantConfig     `koanf:"qdrant"`
	Embeddings EmbeddingsConfig `koanf:"embeddings"`
	LLM        LLMConfig        `koanf:"llm"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// CollectionConfig names the target Qdrant collection.
type CollectionConfig struct {
	Name string `koanf:"name"`
	// Distance is the similarity metric: cosine (default), euclid or dot.
	Distance string `koanf:"distance"`
}

// SourcesConfig locates the document source directories.
//
// Dirs are resolved relative to DataDir. Absent directories are tolerated at
// ingestion time; the pipeline logs a warning and moves on.
type SourcesConfig struct {
	DataDir string   `koanf:"data_dir"`
	Dirs    []string `koanf:"dirs"`
}

// Paths returns the absolute-ish source paths in their configured order.
// The order is significant: point IDs are positional, so a stable directory
// order keeps re-ingestion idempotent.
func (s SourcesConfig) Paths() []string {
	paths := make([]string, len(s.Dirs))
	for i, dir := range s.Dirs {
		paths[i] = filepath.Join(s.DataDir, dir)
	}
	return paths
}

// ChunkingConfig controls the sliding text window.
type ChunkingConfig struct {
	WindowSize int `koanf:"window_size"`
	Overlap    int `koanf:"overlap"`
}

// QdrantConfig holds the Qdrant gRPC connection settings.
type QdrantConfig struct {
	Host   string `koanf:"host"`
	Port   int    `koanf:"port"`
	UseTLS bool   `koanf:"use_tls"`
	APIKey Secret `koanf:"api_key"`
}

// EmbeddingsConfig selects and configures the embedding provider.
type EmbeddingsConfig struct {
	// Provider is "gemini" (default) or "tei".
	Provider string `koanf:"provider"`
	Model    string `koanf:"model"`
	BaseURL  string `koanf:"base_url"`
	APIKey   Secret `koanf:"api_key"`
	// BatchSize caps the number of texts sent per remote call.
	BatchSize int `koanf:"batch_size"`
}

// LLMConfig configures the chat model used to answer questions.
type LLMConfig struct {
	Model   string `koanf:"model"`
	BaseURL string `koanf:"base_url"`
	APIKey  Secret `koanf:"api_key"`
	// TopK is the number of chunks retrieved as context per question.
	TopK int `koanf:"top_k"`
	// SystemPrompt is the answer template. It must contain the {context}
	// and {question} placeholders.
	SystemPrompt string   `koanf:"system_prompt"`
	Timeout      Duration `koanf:"timeout"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Collection.Name == "" {
		cfg.Collection.Name = "career_profile"
	}
	if cfg.Collection.Distance == "" {
		cfg.Collection.Distance = "cosine"
	}

	if cfg.Sources.DataDir == "" {
		cfg.Sources.DataDir = "data"
	}
	if len(cfg.Sources.Dirs) == 0 {
		cfg.Sources.Dirs = []string{"CV", "projects", "repos"}
	}

	// Overlap zero is a valid setting, so it is only defaulted together
	// with an unset window size.
	if cfg.Chunking.WindowSize == 0 {
		if cfg.Chunking.Overlap == 0 {
			cfg.Chunking.Overlap = 200
		}
		cfg.Chunking.WindowSize = 1000
	}

	if cfg.Qdrant.Host == "" {
		cfg.Qdrant.Host = "localhost"
	}
	if cfg.Qdrant.Port == 0 {
		cfg.Qdrant.Port = 6334 // gRPC port, not the 6333 REST port
	}

	if cfg.Embeddings.Provider == "" {
		cfg.Embeddings.Provider = "gemini"
	}
	if cfg.Embeddings.Model == "" {
		cfg.Embeddings.Model = "text-embedding-004"
	}
	if cfg.Embeddings.BatchSize == 0 {
		cfg.Embeddings.BatchSize = 100
	}

	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "openai/gpt-oss-120b"
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "https://api.groq.com/openai"
	}
	if cfg.LLM.TopK == 0 {
		cfg.LLM.TopK = 5
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = Duration(60 * time.Second)
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Collection.Name == "" {
		return errors.New("collection name required")
	}
	switch c.Collection.Distance {
	case "cosine", "euclid", "dot":
	default:
		return fmt.Errorf("unknown distance metric: %q", c.Collection.Distance)
	}

	if c.Chunking.WindowSize <= 0 {
		return fmt.Errorf("chunking window_size must be positive, got %d", c.Chunking.WindowSize)
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.WindowSize {
		return fmt.Errorf("chunking overlap must be in [0, window_size), got %d", c.Chunking.Overlap)
	}

	if c.Qdrant.Port < 1 || c.Qdrant.Port > 65535 {
		return fmt.Errorf("invalid qdrant port: %d", c.Qdrant.Port)
	}

	if c.Embeddings.BatchSize <= 0 {
		return fmt.Errorf("embeddings batch_size must be positive, got %d", c.Embeddings.BatchSize)
	}

	if c.LLM.TopK <= 0 {
		return fmt.Errorf("llm top_k must be positive, got %d", c.LLM.TopK)
	}

	return nil
}
