// Package config loads the server's configuration: defaults, then an
// optional YAML file, then environment variable overrides, matching
// the teacher's file-then-env load order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the semantic search server.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Chunking    ChunkingConfig    `yaml:"chunking"`
	Indexing    IndexingConfig    `yaml:"indexing"`
	Search      SearchConfig      `yaml:"search"`
	Embeddings  EmbeddingsConfig  `yaml:"embeddings"`
	Queue       QueueConfig       `yaml:"queue"`
	FileContext FileContextConfig `yaml:"file_context"`
	Cache       CacheConfig       `yaml:"cache"`
	Logging     LoggingConfig     `yaml:"logging"`
	Projects    ProjectsConfig    `yaml:"projects"`
}

type ServerConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// ChunkingConfig records the sliding-window chunk size and overlap.
// internal/projectindexer.ChunkFile does not read it; it always uses
// its own DefaultWindowLines and DefaultOverlapLines constants.
type ChunkingConfig struct {
	WindowLines  int `yaml:"window_lines"`
	OverlapLines int `yaml:"overlap_lines"`
}

type IndexingConfig struct {
	ParallelWorkers int `yaml:"parallel_workers"`
}

type SearchConfig struct {
	MaxResults int `yaml:"max_results"`
}

// EmbeddingsConfig selects and configures the embedding provider
// (internal/embedproviders).
type EmbeddingsConfig struct {
	Provider string         `yaml:"provider"` // "wordaverage" | "external"
	External ExternalConfig `yaml:"external"`
}

type ExternalConfig struct {
	CandidatePaths   []string `yaml:"candidate_paths"`
	StartupTimeoutS  int      `yaml:"startup_timeout_seconds"`
	HealthPollMillis int      `yaml:"health_poll_millis"`
	RequestTimeoutS  int      `yaml:"request_timeout_seconds"`
}

// QueueConfig bounds the indexing job queue (internal/indexqueue).
type QueueConfig struct {
	MaxConcurrentJobs int `yaml:"max_concurrent_jobs"`
}

// FileContextConfig controls the file_context tool's default widening
// margin (internal/filecontext).
type FileContextConfig struct {
	DefaultContextLines int `yaml:"default_context_lines"`
}

type CacheConfig struct {
	Directory string `yaml:"directory"`
}

type LoggingConfig struct {
	Directory  string `yaml:"directory"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Console    bool   `yaml:"console"`
}

// ProjectsConfig holds the startup project filter and root-path list,
// populated from CODE_SEARCH_PROJECT_NAME / CODE_SEARCH_PROJECTS.
type ProjectsConfig struct {
	DefaultProjectName string   `yaml:"default_project_name"`
	Roots              []string `yaml:"roots"`
}

// Load loads configuration from defaults, an optional file, then
// environment variables, in that order.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if configPath := getConfigPath(); configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	cfg.Cache.Directory = expandPath(cfg.Cache.Directory)
	cfg.Logging.Directory = expandPath(cfg.Logging.Directory)

	return cfg, nil
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Name:    "codesearch-mcp",
			Version: "0.1.0",
		},
		Chunking: ChunkingConfig{
			WindowLines:  50,
			OverlapLines: 10,
		},
		Indexing: IndexingConfig{
			ParallelWorkers: runtime.NumCPU(),
		},
		Search: SearchConfig{
			MaxResults: 10,
		},
		Embeddings: EmbeddingsConfig{
			Provider: "wordaverage",
			External: ExternalConfig{
				CandidatePaths: []string{
					"./embedding-server",
					"/usr/local/bin/embedding-server",
				},
				StartupTimeoutS:  30,
				HealthPollMillis: 500,
				RequestTimeoutS:  60,
			},
		},
		Queue: QueueConfig{
			MaxConcurrentJobs: 1,
		},
		FileContext: FileContextConfig{
			DefaultContextLines: 3,
		},
		Cache: CacheConfig{
			Directory: "~/.codesearch-mcp/index",
		},
		Logging: LoggingConfig{
			Directory:  "~/.codesearch-mcp/logs",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Console:    false,
		},
	}
}

func getConfigPath() string {
	if path := os.Getenv("CODE_SEARCH_CONFIG"); path != "" {
		return path
	}
	if _, err := os.Stat("config.yaml"); err == nil {
		return "config.yaml"
	}
	home, err := os.UserHomeDir()
	if err == nil {
		path := filepath.Join(home, ".codesearch-mcp", "config.yaml")
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides layers CODE_SEARCH_PROJECT_NAME (default project
// filter) and CODE_SEARCH_PROJECTS (colon-separated root paths to
// index at startup) on top of file/defaults, per §6.2.
func applyEnvOverrides(cfg *Config) {
	if name := os.Getenv("CODE_SEARCH_PROJECT_NAME"); name != "" {
		cfg.Projects.DefaultProjectName = name
	}
	if roots := os.Getenv("CODE_SEARCH_PROJECTS"); roots != "" {
		cfg.Projects.Roots = strings.Split(roots, ":")
	}
	if dir := os.Getenv("CODE_SEARCH_INDEX_DIR"); dir != "" {
		cfg.Cache.Directory = dir
	}
}

func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
