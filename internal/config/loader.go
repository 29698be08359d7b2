package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader loads configuration for one project root.
type Loader interface {
	Load() (*Config, error)
}

type loader struct {
	rootDir string
}

// NewLoader returns a Loader for the project rooted at rootDir.
func NewLoader(rootDir string) Loader {
	return &loader{rootDir: rootDir}
}

// Load resolves configuration with priority (highest to lowest):
//  1. XINDEX_* environment variables
//  2. .xindex/config.yml in rootDir
//  3. Default()
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	configDir := filepath.Join(l.rootDir, ".xindex")
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	v.SetEnvPrefix("XINDEX")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	bindEnv(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if cfg.Storage.DBPath == "" {
		cfg.Storage.DBPath = filepath.Join(l.rootDir, ".xindex", "index.db")
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config: invalid configuration: %w", err)
	}

	return cfg, nil
}

func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("embedding.endpoint")
	_ = v.BindEnv("embedding.dimensions")
	_ = v.BindEnv("chunking.max_tokens")
	_ = v.BindEnv("watch.poll_interval_ms")
	_ = v.BindEnv("search.top_k")
	_ = v.BindEnv("search.top_k_cap")
	_ = v.BindEnv("search.score_threshold")
	_ = v.BindEnv("storage.db_path")
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("embedding.endpoint", d.Embedding.Endpoint)
	v.SetDefault("embedding.dimensions", d.Embedding.Dimensions)
	v.SetDefault("chunking.max_tokens", d.Chunking.MaxTokens)
	v.SetDefault("watch.extensions", d.Watch.Extensions)
	v.SetDefault("watch.ignore_patterns", d.Watch.IgnorePatterns)
	v.SetDefault("watch.poll_interval_ms", d.Watch.PollIntervalMS)
	v.SetDefault("search.top_k", d.Search.TopK)
	v.SetDefault("search.top_k_cap", d.Search.TopKCap)
	v.SetDefault("search.score_threshold", d.Search.ScoreThreshold)
	v.SetDefault("storage.db_path", d.Storage.DBPath)
}

// LoadFromDir is a convenience wrapper around NewLoader(rootDir).Load().
func LoadFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}
