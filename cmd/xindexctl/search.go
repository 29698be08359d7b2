package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/minuraashen/synapse-semantic-index/internal/search"
)

var (
	searchTopK      int
	searchThreshold float64
	searchType      string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the project's index with hybrid dense+sparse ranking",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().IntVar(&searchTopK, "top-k", 0, "number of results (default from config)")
	searchCmd.Flags().Float64Var(&searchThreshold, "threshold", 0, "minimum fused score (default from config)")
	searchCmd.Flags().StringVar(&searchType, "type", "", "filter by semantic type")
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadProjectConfig()
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	embedder := newEmbedder(cfg)
	defer embedder.Close()

	engine := search.New(store, embedder)

	k := searchTopK
	if k <= 0 {
		k = cfg.Search.TopK
	}
	threshold := searchThreshold
	if threshold <= 0 {
		threshold = cfg.Search.ScoreThreshold
	}

	results, err := engine.Search(context.Background(), args[0], k, threshold, searchType)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("no results")
		return nil
	}

	for i, r := range results {
		fmt.Printf("%2d. %.3f  %s:%d-%d\n", i+1, r.Score, r.FilePath, r.StartLine, r.EndLine)
		if len(r.Hierarchy) > 0 {
			fmt.Printf("    %s\n", strings.Join(r.Hierarchy, " > "))
		}
	}
	return nil
}
