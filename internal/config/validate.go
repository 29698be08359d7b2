package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidDimensions   = errors.New("invalid embedding dimensions")
	ErrInvalidMaxTokens    = errors.New("invalid max_tokens")
	ErrInvalidTopK         = errors.New("invalid top_k")
	ErrInvalidThreshold    = errors.New("invalid score_threshold")
	ErrEmptyExtensions     = errors.New("empty watch extensions")
	ErrInvalidPollInterval = errors.New("invalid poll_interval_ms")
)

// Validate checks that cfg is internally consistent.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Embedding.Dimensions <= 0 {
		errs = append(errs, fmt.Errorf("%w: must be positive, got %d", ErrInvalidDimensions, cfg.Embedding.Dimensions))
	}

	if cfg.Chunking.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("%w: must be positive, got %d", ErrInvalidMaxTokens, cfg.Chunking.MaxTokens))
	}

	if len(cfg.Watch.Extensions) == 0 {
		errs = append(errs, ErrEmptyExtensions)
	}

	if cfg.Watch.PollIntervalMS < 0 {
		errs = append(errs, fmt.Errorf("%w: cannot be negative, got %d", ErrInvalidPollInterval, cfg.Watch.PollIntervalMS))
	}

	if cfg.Search.TopK <= 0 {
		errs = append(errs, fmt.Errorf("%w: top_k must be positive, got %d", ErrInvalidTopK, cfg.Search.TopK))
	}
	if cfg.Search.TopKCap > 0 && cfg.Search.TopK > cfg.Search.TopKCap {
		errs = append(errs, fmt.Errorf("%w: top_k (%d) exceeds top_k_cap (%d)", ErrInvalidTopK, cfg.Search.TopK, cfg.Search.TopKCap))
	}

	if cfg.Search.ScoreThreshold < 0 || cfg.Search.ScoreThreshold > 1 {
		errs = append(errs, fmt.Errorf("%w: must be within [0,1], got %f", ErrInvalidThreshold, cfg.Search.ScoreThreshold))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

func joinErrors(errs []error) error {
	if len(errs) == 1 {
		return errs[0]
	}
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return fmt.Errorf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}
