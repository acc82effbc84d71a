// Package main implements the profilerag CLI: ingest a professional profile
// (CV, project notes, repository docs) into Qdrant and ask questions over it.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	// configPath is the optional YAML config file.
	configPath string
	// version information (set via ldflags during build)
	version = "dev"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "profilerag",
	Short: "RAG over a professional profile backed by Qdrant",
	Long: `profilerag indexes a professional profile (CV, project descriptions,
repository documentation) into a Qdrant collection and answers questions
about it with retrieval-augmented generation.

Configuration is read from an optional YAML file and overridden by
environment variables (EMBEDDINGS_API_KEY, LLM_API_KEY, QDRANT_HOST, ...).`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(askCmd)
}
