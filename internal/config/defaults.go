package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8090
	}
	if cfg.Server.MaxTexts == 0 {
		cfg.Server.MaxTexts = 4096
	}
	if cfg.Storage.RunsDatabasePath == "" {
		cfg.Storage.RunsDatabasePath = "/usr/local/var/embedd/data/runs.db"
	}

	def := DefaultEmbeddingConfig()
	e := &cfg.Embedding
	if e.Backend == "" {
		e.Backend = def.Backend
	}
	if e.ModelPath == "" {
		e.ModelPath = "/usr/local/var/embedd/" + def.ModelPath
	}
	if e.TokenizerPath == "" {
		e.TokenizerPath = "/usr/local/var/embedd/" + def.TokenizerPath
	}
	if e.MaxBatchSize == 0 {
		e.MaxBatchSize = def.MaxBatchSize
	}
	if e.MaxSeqLength == 0 {
		e.MaxSeqLength = def.MaxSeqLength
	}
	// CPU mode with no explicit thread count gets the default pool size.
	if !e.UseAccelerated && e.NumThreads == 0 {
		e.NumThreads = def.NumThreads
	}
	if e.EmbeddingDim == 0 {
		e.EmbeddingDim = def.EmbeddingDim
	}
	if len(e.InputNames) == 0 {
		e.InputNames = def.InputNames
	}
	if e.OutputName == "" {
		e.OutputName = def.OutputName
	}

	if cfg.Ingest.PassageWords == 0 {
		cfg.Ingest.PassageWords = 256
	}
	if cfg.Ingest.PassageOverlap == 0 {
		cfg.Ingest.PassageOverlap = 32
	}
}
