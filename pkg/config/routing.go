package config

// RoutingConfig holds the similarity thresholds that drive routing.
type RoutingConfig struct {
	// IncludeThreshold is the minimum score for a capability to be a
	// candidate at all.
	IncludeThreshold float64 `yaml:"include_threshold,omitempty"`
	// ExecThreshold is the minimum top score for direct execution.
	ExecThreshold float64 `yaml:"exec_threshold,omitempty"`
	// GapThreshold is the minimum lead the top candidate needs over the
	// runner-up to avoid disambiguation.
	GapThreshold float64 `yaml:"gap_threshold,omitempty"`
	// TopN caps how many candidates are considered.
	TopN int `yaml:"top_n,omitempty"`
	// MaxDisambiguationOptions caps the choices shown to the user.
	MaxDisambiguationOptions int `yaml:"max_disambiguation_options,omitempty"`
}

// PipelineConfig holds the generate-execute-retry settings.
type PipelineConfig struct {
	// Mode is "capability_first" or "plan_first".
	Mode           string `yaml:"mode,omitempty"`
	MaxRetries     int    `yaml:"max_retries,omitempty"`
	RetrievalK     int    `yaml:"retrieval_k,omitempty"`
	PlanRetrievalK int    `yaml:"plan_retrieval_k,omitempty"`
}

// ExecutionConfig holds program execution settings.
type ExecutionConfig struct {
	TimeoutSeconds int    `yaml:"timeout_seconds,omitempty"`
	Language       string `yaml:"language,omitempty"`
	// DatasetRoot confines program targets; empty disables the check.
	DatasetRoot          string `yaml:"dataset_root,omitempty"`
	MultiTargetWorkerCap int    `yaml:"multi_target_worker_cap,omitempty"`
	TargetTimeoutSeconds int    `yaml:"target_timeout_seconds,omitempty"`
}

// EmbeddingConfig selects the similarity backend.
type EmbeddingConfig struct {
	// Backend is "ollama", "google" or "hash".
	Backend    string `yaml:"backend,omitempty"`
	Endpoint   string `yaml:"endpoint,omitempty"`
	Model      string `yaml:"model,omitempty"`
	Dimensions int    `yaml:"dimensions,omitempty"`
}

// GenerationConfig selects the adapter and model for program generation
// and response phrasing. Model may be an alias from models.yaml.
type GenerationConfig struct {
	Adapter          string `yaml:"adapter,omitempty"`
	Model            string `yaml:"model,omitempty"`
	InterpreterModel string `yaml:"interpreter_model,omitempty"`
}

func applyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Routing.IncludeThreshold == 0 {
		cfg.Routing.IncludeThreshold = 0.4
	}
	if cfg.Routing.ExecThreshold == 0 {
		cfg.Routing.ExecThreshold = 0.4
	}
	if cfg.Routing.GapThreshold == 0 {
		cfg.Routing.GapThreshold = 0.1
	}
	if cfg.Routing.TopN == 0 {
		cfg.Routing.TopN = 3
	}
	if cfg.Routing.MaxDisambiguationOptions == 0 {
		cfg.Routing.MaxDisambiguationOptions = 3
	}

	if cfg.Pipeline.Mode == "" {
		cfg.Pipeline.Mode = "capability_first"
	}
	if cfg.Pipeline.MaxRetries == 0 {
		cfg.Pipeline.MaxRetries = 3
	}
	if cfg.Pipeline.RetrievalK == 0 {
		cfg.Pipeline.RetrievalK = 5
	}
	if cfg.Pipeline.PlanRetrievalK == 0 {
		cfg.Pipeline.PlanRetrievalK = 3
	}

	if cfg.Execution.TimeoutSeconds == 0 {
		cfg.Execution.TimeoutSeconds = 30
	}
	if cfg.Execution.Language == "" {
		cfg.Execution.Language = "python"
	}
	if cfg.Execution.MultiTargetWorkerCap == 0 {
		cfg.Execution.MultiTargetWorkerCap = 8
	}
	if cfg.Execution.TargetTimeoutSeconds == 0 {
		cfg.Execution.TargetTimeoutSeconds = 30
	}

	if cfg.Embedding.Backend == "" {
		cfg.Embedding.Backend = "hash"
	}
	if cfg.Embedding.Endpoint == "" {
		cfg.Embedding.Endpoint = "http://localhost:11434"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "embeddinggemma"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 256
	}

	if cfg.Generation.Adapter == "" {
		cfg.Generation.Adapter = "anthropic"
	}
	if cfg.Generation.Model == "" {
		cfg.Generation.Model = "claude-sonnet-4-20250514"
	}
	if cfg.Generation.InterpreterModel == "" {
		cfg.Generation.InterpreterModel = cfg.Generation.Model
	}
}
