// Package config provides configuration loading and structs for the embedd service.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Watch     WatchConfig     `yaml:"watch"`
	Ingest    IngestConfig    `yaml:"ingest"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// MaxTexts caps the number of texts a single API request may carry.
	MaxTexts int `yaml:"max_texts"`
}

// StorageConfig holds the run log location.
type StorageConfig struct {
	RunsDatabasePath string `yaml:"runs_database_path"`
}

// WatchConfig controls reloading the engine when model artifacts change.
type WatchConfig struct {
	Artifacts *bool `yaml:"artifacts"`
}

// ArtifactsOrDefault returns whether to watch the model artifacts; defaults to true when unset.
func (w *WatchConfig) ArtifactsOrDefault() bool {
	if w.Artifacts != nil {
		return *w.Artifacts
	}
	return true
}

// IngestConfig holds passage splitting settings for file embedding.
type IngestConfig struct {
	PassageWords   int `yaml:"passage_words"`
	PassageOverlap int `yaml:"passage_overlap"`
}

// Validate checks the parts of the config that must hold before components are built.
func (c *Config) Validate() error {
	if err := c.Embedding.Validate(); err != nil {
		return err
	}
	switch c.Embedding.Backend {
	case BackendONNX, BackendMock:
	default:
		return fmt.Errorf("%w: unknown embedding backend %q", ErrInvalid, c.Embedding.Backend)
	}
	if c.Server.MaxTexts < 0 {
		return fmt.Errorf("%w: server max_texts must not be negative", ErrInvalid)
	}
	return nil
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	// yaml leaves absent keys untouched, so booleans whose default is true are seeded here;
	// an explicit "use_accelerated: false" still wins.
	cfg := Config{Embedding: EmbeddingConfig{UseAccelerated: DefaultEmbeddingConfig().UseAccelerated}}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.RunsDatabasePath = expandPath(cfg.Storage.RunsDatabasePath, configDir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	cfg.Embedding.TokenizerPath = expandPath(cfg.Embedding.TokenizerPath, configDir)
	if cfg.Embedding.RuntimeLibrary != "" {
		cfg.Embedding.RuntimeLibrary = expandPath(cfg.Embedding.RuntimeLibrary, configDir)
	}

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" or "../" are relative to
// configDir; other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || strings.HasPrefix(path, "../") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
