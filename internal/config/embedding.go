package config

import (
	"errors"
	"fmt"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Embedding backends.
const (
	BackendONNX = "onnx"
	BackendMock = "mock"
)

// Execution provider names reported for diagnostics.
const (
	ProviderCUDA = "CUDAExecutionProvider"
	ProviderCPU  = "CPUExecutionProvider"
)

// EmbeddingConfig describes the encoder model, its limits and where it runs.
// Treat it as immutable once handed to the engine; the engine keeps its own copy.
type EmbeddingConfig struct {
	Backend        string `yaml:"backend"`
	ModelPath      string `yaml:"model_path"`
	TokenizerPath  string `yaml:"tokenizer_path"`
	RuntimeLibrary string `yaml:"runtime_library,omitempty"`

	MaxBatchSize int `yaml:"max_batch_size"`
	MaxSeqLength int `yaml:"max_seq_length"`

	UseAccelerated bool `yaml:"use_accelerated"`
	DeviceID       int  `yaml:"device_id"`
	NumThreads     int  `yaml:"num_threads"`

	EmbeddingDim int      `yaml:"embedding_dim"`
	InputNames   []string `yaml:"input_names,omitempty"`
	OutputName   string   `yaml:"output_name,omitempty"`

	CacheSize int `yaml:"cache_size"`
}

// DefaultEmbeddingConfig returns settings for bge-base-en-v1.5 on a CUDA device.
func DefaultEmbeddingConfig() EmbeddingConfig {
	return EmbeddingConfig{
		Backend:        BackendONNX,
		ModelPath:      "models/embeddings/bge-base-en-v1.5.onnx",
		TokenizerPath:  "models/embeddings/tokenizer.json",
		MaxBatchSize:   256,
		MaxSeqLength:   512,
		UseAccelerated: true,
		NumThreads:     8,
		EmbeddingDim:   768,
		InputNames:     []string{"input_ids", "attention_mask"},
		OutputName:     "sentence_embedding",
	}
}

// HighThroughputConfig is the default config with a larger batch ceiling for big GPUs.
func HighThroughputConfig() EmbeddingConfig {
	cfg := DefaultEmbeddingConfig()
	cfg.MaxBatchSize = 512
	cfg.UseAccelerated = true
	return cfg
}

// CPUOnlyConfig runs on the CPU provider with exactly threads intra-op threads.
func CPUOnlyConfig(threads int) EmbeddingConfig {
	cfg := DefaultEmbeddingConfig()
	cfg.UseAccelerated = false
	cfg.NumThreads = threads
	cfg.MaxBatchSize = 32
	return cfg
}

// Validate reports the first limit that is not strictly positive.
func (c EmbeddingConfig) Validate() error {
	if c.MaxBatchSize <= 0 {
		return fmt.Errorf("%w: max_batch_size must be greater than 0", ErrInvalid)
	}
	if c.MaxSeqLength <= 0 {
		return fmt.Errorf("%w: max_seq_length must be greater than 0", ErrInvalid)
	}
	if c.EmbeddingDim <= 0 {
		return fmt.Errorf("%w: embedding_dim must be greater than 0", ErrInvalid)
	}
	if !c.UseAccelerated && c.NumThreads <= 0 {
		return fmt.Errorf("%w: num_threads must be greater than 0 for CPU mode", ErrInvalid)
	}
	return nil
}

// ExecutionProvider names the ONNX Runtime provider the config selects. Used for logging only.
func (c EmbeddingConfig) ExecutionProvider() string {
	if c.UseAccelerated {
		return ProviderCUDA
	}
	return ProviderCPU
}
