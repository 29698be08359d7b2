// Package config loads per-project xindex configuration from
// .xindex/config.yml with environment variable overrides, per
// spec.md §6 and SPEC_FULL.md's Configuration section.
package config

// Config is the complete xindex configuration for one project.
type Config struct {
	Embedding EmbeddingConfig `yaml:"embedding" mapstructure:"embedding"`
	Chunking  ChunkingConfig  `yaml:"chunking" mapstructure:"chunking"`
	Watch     WatchConfig     `yaml:"watch" mapstructure:"watch"`
	Search    SearchConfig    `yaml:"search" mapstructure:"search"`
	Storage   StorageConfig   `yaml:"storage" mapstructure:"storage"`
}

// EmbeddingConfig is informational only: the real embedding backend
// is the out-of-scope Embedder collaborator, but its endpoint and
// dimensions are still recorded so the CLI can report what a
// configured MockProvider or remote provider will be asked to match.
type EmbeddingConfig struct {
	Endpoint   string `yaml:"endpoint" mapstructure:"endpoint"`
	Dimensions int    `yaml:"dimensions" mapstructure:"dimensions"`
}

// ChunkingConfig bounds the chunker's per-chunk token budget.
type ChunkingConfig struct {
	MaxTokens int `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// WatchConfig controls which files the scanner and file watcher see.
type WatchConfig struct {
	Extensions     []string `yaml:"extensions" mapstructure:"extensions"`
	IgnorePatterns []string `yaml:"ignore_patterns" mapstructure:"ignore_patterns"`
	PollIntervalMS int      `yaml:"poll_interval_ms" mapstructure:"poll_interval_ms"`
}

// SearchConfig holds the search engine's default ranking knobs.
type SearchConfig struct {
	TopK           int     `yaml:"top_k" mapstructure:"top_k"`
	TopKCap        int     `yaml:"top_k_cap" mapstructure:"top_k_cap"`
	ScoreThreshold float64 `yaml:"score_threshold" mapstructure:"score_threshold"`
}

// StorageConfig locates the project's SQLite index file.
type StorageConfig struct {
	DBPath string `yaml:"db_path" mapstructure:"db_path"`
}

// DefaultWatchExtensions matches spec.md §6's watch set.
var DefaultWatchExtensions = []string{".xml", ".yaml", ".yml", ".properties", ".dmc"}

// Default returns the spec's documented defaults.
func Default() *Config {
	return &Config{
		Embedding: EmbeddingConfig{
			Endpoint:   "http://localhost:8121/embed",
			Dimensions: 384,
		},
		Chunking: ChunkingConfig{
			MaxTokens: 512,
		},
		Watch: WatchConfig{
			Extensions: append([]string(nil), DefaultWatchExtensions...),
			IgnorePatterns: []string{
				".git/**", ".xindex/**", "node_modules/**", "target/**", "build/**",
			},
			PollIntervalMS: 0,
		},
		Search: SearchConfig{
			TopK:           10,
			TopKCap:        50,
			ScoreThreshold: 0.25,
		},
		Storage: StorageConfig{
			DBPath: "", // resolved relative to project root by the loader
		},
	}
}
