package main

import (
	"fmt"

	"github.com/dominikbraun/graph"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Diagnostics over the sequence reference graph",
}

var graphCyclesCmd = &cobra.Command{
	Use:   "cycles",
	Short: "Report sequence definitions that call each other in a cycle",
	Long: `Cycles builds a directed graph from every caller-chunk -> callee-chunk
edge recorded by the pipeline's reference resolution and reports each
strongly connected component with more than one member — a cyclic
chain of sequence invocations the project should probably break.`,
	RunE: runGraphCycles,
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.AddCommand(graphCyclesCmd)
}

func runGraphCycles(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadProjectConfig()
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	edges, err := store.AllReferences()
	if err != nil {
		return fmt.Errorf("load references: %w", err)
	}
	if len(edges) == 0 {
		fmt.Println("no reference edges recorded")
		return nil
	}

	chunks, err := store.GetAll()
	if err != nil {
		return fmt.Errorf("load chunks: %w", err)
	}
	labels := make(map[int64]string, len(chunks))
	for _, c := range chunks {
		labels[c.ID] = fmt.Sprintf("%s:%s", c.FilePath, c.SequenceKey)
	}

	g := graph.New(func(id int64) int64 { return id }, graph.Directed())
	seen := map[int64]bool{}
	addVertex := func(id int64) {
		if !seen[id] {
			seen[id] = true
			_ = g.AddVertex(id)
		}
	}
	for _, e := range edges {
		addVertex(e.CallerChunkID)
		addVertex(e.CalleeChunkID)
		_ = g.AddEdge(e.CallerChunkID, e.CalleeChunkID)
	}

	components, err := graph.StronglyConnectedComponents(g)
	if err != nil {
		return fmt.Errorf("compute strongly connected components: %w", err)
	}

	found := false
	for _, comp := range components {
		if len(comp) < 2 {
			continue
		}
		found = true
		fmt.Println("cycle:")
		for _, id := range comp {
			label := labels[id]
			if label == "" {
				label = fmt.Sprintf("chunk#%d", id)
			}
			fmt.Printf("  - %s\n", label)
		}
	}
	if !found {
		fmt.Println("no cycles found")
	}
	return nil
}
