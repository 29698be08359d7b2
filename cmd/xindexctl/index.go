package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/minuraashen/synapse-semantic-index/internal/pipeline"
)

var quietFlag bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index the project's XML configuration for semantic search",
	Long: `Index walks the project directory (the working directory), chunks every
XML artifact into context-rich, token-bounded pieces, embeds the
changed ones, and writes the result into the project's .xindex store.

A second run only re-embeds chunks whose content actually changed —
unchanged chunks keep their id and embedding.`,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", false, "disable progress output")
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\ninterrupted, cancelling...")
		cancel()
	}()

	cfg, rootDir, err := loadProjectConfig()
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	sc, err := newScanner(cfg)
	if err != nil {
		return fmt.Errorf("new scanner: %w", err)
	}

	embedder := newEmbedder(cfg)
	defer embedder.Close()

	pl := pipeline.New(store, sc, newChunker(cfg), embedder)

	progress := newCLIProgress(quietFlag)
	if err := pl.ProcessInitial(ctx, []string{rootDir}, progress.onProgress); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("indexing cancelled")
		}
		return fmt.Errorf("indexing failed: %w", err)
	}

	count, err := store.Count()
	if err == nil && !quietFlag {
		fmt.Printf("%d chunks in store\n", count)
	}
	return nil
}
