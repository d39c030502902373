package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
embedding:
  model_path: "/opt/models/bge.onnx"
  tokenizer_path: "/opt/models/tokenizer.json"
  use_accelerated: false
  num_threads: 4
  max_batch_size: 16
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Embedding.ModelPath != "/opt/models/bge.onnx" {
		t.Errorf("model_path = %s", cfg.Embedding.ModelPath)
	}
	if cfg.Embedding.NumThreads != 4 || cfg.Embedding.MaxBatchSize != 16 {
		t.Errorf("unexpected embedding limits: %+v", cfg.Embedding)
	}
	if cfg.Embedding.MaxSeqLength != 512 || cfg.Embedding.EmbeddingDim != 768 {
		t.Errorf("defaults not applied: %+v", cfg.Embedding)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
storage:
  runs_database_path: "./data/runs.db"
embedding:
  model_path: "./models/model.onnx"
  tokenizer_path: "../shared/tokenizer.json"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "data", "runs.db"); cfg.Storage.RunsDatabasePath != want {
		t.Errorf("runs_database_path = %s, want %s", cfg.Storage.RunsDatabasePath, want)
	}
	if want := filepath.Join(dir, "models", "model.onnx"); cfg.Embedding.ModelPath != want {
		t.Errorf("model_path = %s, want %s", cfg.Embedding.ModelPath, want)
	}
	if want := filepath.Join(filepath.Dir(dir), "shared", "tokenizer.json"); cfg.Embedding.TokenizerPath != want {
		t.Errorf("tokenizer_path = %s, want %s", cfg.Embedding.TokenizerPath, want)
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" || cfg.Server.Port != 8090 {
		t.Errorf("default server: %+v", cfg.Server)
	}
	if cfg.Embedding.Backend != BackendONNX {
		t.Errorf("default backend: got %s", cfg.Embedding.Backend)
	}
	if cfg.Embedding.NumThreads != 8 {
		t.Errorf("cpu mode should get default threads, got %d", cfg.Embedding.NumThreads)
	}
	if len(cfg.Embedding.InputNames) != 2 || cfg.Embedding.OutputName != "sentence_embedding" {
		t.Errorf("tensor names: %v %s", cfg.Embedding.InputNames, cfg.Embedding.OutputName)
	}
	if cfg.Ingest.PassageWords != 256 || cfg.Ingest.PassageOverlap != 32 {
		t.Errorf("ingest defaults: %+v", cfg.Ingest)
	}
}

func TestConfig_ValidateBackend(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Embedding.Backend = "tpu"
	err := cfg.Validate()
	if !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}

func TestWatchConfig_ArtifactsOrDefault(t *testing.T) {
	t.Run("nil_returns_true", func(t *testing.T) {
		w := &WatchConfig{}
		if !w.ArtifactsOrDefault() {
			t.Error("want true")
		}
	})
	t.Run("false_returns_false", func(t *testing.T) {
		f := false
		w := &WatchConfig{Artifacts: &f}
		if w.ArtifactsOrDefault() {
			t.Error("want false")
		}
	})
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.yaml")
	cfg := &Config{
		Server:    ServerConfig{Host: "localhost", Port: 9090},
		Embedding: CPUOnlyConfig(2),
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
	if loaded.Embedding.UseAccelerated || loaded.Embedding.NumThreads != 2 {
		t.Errorf("loaded embedding: %+v", loaded.Embedding)
	}
}

func TestLoad_useAcceleratedDefaultsToTrue(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		accelerated bool
		threads     int
	}{
		{"omitted", "embedding:\n  max_batch_size: 8\n", true, 0},
		{"no embedding section", "server:\n  port: 9000\n", true, 0},
		{"explicit false", "embedding:\n  use_accelerated: false\n", false, 8},
		{"explicit true", "embedding:\n  use_accelerated: true\n", true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}
			cfg, err := Load(path)
			if err != nil {
				t.Fatal(err)
			}
			if cfg.Embedding.UseAccelerated != tt.accelerated {
				t.Errorf("use_accelerated = %t, want %t", cfg.Embedding.UseAccelerated, tt.accelerated)
			}
			if cfg.Embedding.NumThreads != tt.threads {
				t.Errorf("num_threads = %d, want %d", cfg.Embedding.NumThreads, tt.threads)
			}
			if got := cfg.Embedding.ExecutionProvider(); tt.accelerated != (got == ProviderCUDA) {
				t.Errorf("provider = %s", got)
			}
		})
	}
}
