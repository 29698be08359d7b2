package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/minuraashen/synapse-semantic-index/internal/service"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Index the project, then keep it up to date as files change",
	Long: `Watch performs an initial index and then starts a per-project
service that re-indexes individual files as they change, debounced
2 seconds per file path, until interrupted.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, rootDir, err := loadProjectConfig()
	if err != nil {
		return err
	}

	opts := service.Options{
		DBPath:         cfg.Storage.DBPath,
		WatchExt:       cfg.Watch.Extensions,
		IgnorePatterns: cfg.Watch.IgnorePatterns,
		MaxTokens:      cfg.Chunking.MaxTokens,
		PollInterval:   time.Duration(cfg.Watch.PollIntervalMS) * time.Millisecond,
	}

	svc, err := service.Get(rootDir, []string{rootDir}, newEmbedder(cfg), opts)
	if err != nil {
		return fmt.Errorf("get service: %w", err)
	}

	fmt.Println("indexing...")
	if err := svc.Start(context.Background()); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	fmt.Println("watching for changes, press Ctrl+C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	fmt.Println("\nstopping...")
	svc.Stop()
	return nil
}
