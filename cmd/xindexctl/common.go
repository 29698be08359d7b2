package main

import (
	"fmt"
	"os"

	"github.com/minuraashen/synapse-semantic-index/internal/chunker"
	"github.com/minuraashen/synapse-semantic-index/internal/config"
	"github.com/minuraashen/synapse-semantic-index/internal/embed"
	"github.com/minuraashen/synapse-semantic-index/internal/registry"
	"github.com/minuraashen/synapse-semantic-index/internal/scanner"
	"github.com/minuraashen/synapse-semantic-index/internal/storage"
)

// loadProjectConfig loads configuration for the current working
// directory, the same root the teacher's `cortex index` resolves
// against.
func loadProjectConfig() (*config.Config, string, error) {
	rootDir, err := os.Getwd()
	if err != nil {
		return nil, "", fmt.Errorf("working directory: %w", err)
	}
	cfg, err := config.LoadFromDir(rootDir)
	if err != nil {
		return nil, "", fmt.Errorf("load configuration: %w", err)
	}
	return cfg, rootDir, nil
}

// openStore opens the project's SQLite index.
func openStore(cfg *config.Config) (*storage.Store, error) {
	return storage.Open(cfg.Storage.DBPath)
}

// newChunker builds a chunker wired with the default artifact plugins.
func newChunker(cfg *config.Config) *chunker.Chunker {
	return chunker.New(registry.New(), cfg.Chunking.MaxTokens)
}

// newScanner builds a scanner from the project's watch configuration.
func newScanner(cfg *config.Config) (*scanner.Scanner, error) {
	return scanner.New(cfg.Watch.Extensions, cfg.Watch.IgnorePatterns)
}

// newEmbedder returns the embedding provider. The real model-backed
// Embedder is an out-of-scope external collaborator (spec.md §1); the
// CLI drives the index end-to-end against the deterministic mock.
func newEmbedder(cfg *config.Config) embed.Provider {
	return embed.NewMockProvider(cfg.Embedding.Dimensions)
}
