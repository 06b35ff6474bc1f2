package config

import "time"

// Weights are the composite-scoring coefficients feeding the RQS formula
// (spec.md §3, §4.6): RQS = w_accuracy*accuracy + w_completeness*completeness
// + w_safety*safety - w_hallucination*hallucination.
type Weights struct {
	Accuracy      float64 `yaml:"w_accuracy"`
	Completeness  float64 `yaml:"w_completeness"`
	Hallucination float64 `yaml:"w_hallucination"`
	Safety        float64 `yaml:"w_safety"`
}

// CompositeWeights are the alpha/beta/gamma blend coefficients used by the
// tabular path's per-row RQS (spec.md §4.7): alpha weights
// answer_correctness, beta weights faithfulness, gamma weights
// answer_relevancy; context_precision and context_recall carry a fixed
// 0.075 each in metrics.CalculateRQS.
type CompositeWeights struct {
	Alpha float64 `yaml:"alpha"`
	Beta  float64 `yaml:"beta"`
	Gamma float64 `yaml:"gamma"`
}

// Thresholds are the pass/fail and per-metric failure-mode cutoffs.
type Thresholds struct {
	Accuracy      float64 `yaml:"accuracy"`
	Consistency   float64 `yaml:"consistency"`
	Hallucination float64 `yaml:"hallucination"`
	RQS           float64 `yaml:"rqs"`
	Semantic      float64 `yaml:"semantic"`
	Fuzzy         float64 `yaml:"fuzzy"`

	// MetricThresholds are per-RAG-triad-metric cutoffs used by failure-mode
	// classification (spec.md §4.3, §4.7); keyed by metric name
	// (faithfulness, answer_relevancy, context_precision, context_recall,
	// answer_correctness). Defaults to 0.3 for any metric left unset.
	MetricThresholds map[string]float64 `yaml:"metric_thresholds"`
}

// LLMProviderConfig describes one upstream chat-completion backend.
type LLMProviderConfig struct {
	Model       string  `yaml:"model"`
	APIBase     string  `yaml:"api_base"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TimeoutSecs int     `yaml:"timeout_seconds"`
}

// CacheConfig controls the evaluation cache's persistence behavior.
type CacheConfig struct {
	Enabled  bool   `yaml:"enabled"`
	FilePath string `yaml:"file_path"`
}

// ConcurrencyConfig bounds the worker pools used by the tabular evaluator
// and the orchestrator.
type ConcurrencyConfig struct {
	MaxConcurrentBots     int `yaml:"max_concurrent_bots"`
	MaxBatchSize          int `yaml:"max_batch_size"`
	RagTriadBatchSize      int `yaml:"ragtriad_batch_size"`
	EventQueueCapacity    int `yaml:"event_queue_capacity"`
	EventHeartbeatSeconds int `yaml:"event_heartbeat_seconds"`
}

// AllowedPathRoots gates the file-path evaluation collaborator (spec §6):
// paths are rejected unless they resolve under one of these roots.
type AllowedPathRoots struct {
	Roots []string `yaml:"roots"`
}

// EvalctlYAMLConfig is the top-level `evalctl.yaml` shape.
type EvalctlYAMLConfig struct {
	Weights          *Weights           `yaml:"weights"`
	CompositeWeights *CompositeWeights  `yaml:"composite_weights"`
	Thresholds       *Thresholds        `yaml:"thresholds"`
	Cache            *CacheConfig       `yaml:"cache"`
	Concurrency      *ConcurrencyConfig `yaml:"concurrency"`
	AllowedPaths     *AllowedPathRoots  `yaml:"allowed_paths"`
	PromptsDir       string             `yaml:"prompts_dir"`
	EnableSafety     bool               `yaml:"enable_safety"`
	EnableRecommendations bool          `yaml:"enable_recommendations"`
}

// LLMProvidersYAMLConfig is the top-level `llm-providers.yaml` shape.
type LLMProvidersYAMLConfig struct {
	LLMProviders map[string]LLMProviderConfig `yaml:"llm_providers"`
	DefaultModel string                       `yaml:"default_model"`
}

// Config is the fully-resolved, validated, ready-to-use configuration
// returned by Initialize.
type Config struct {
	configDir string

	Weights          Weights
	CompositeWeights CompositeWeights
	Thresholds       Thresholds
	Cache            CacheConfig
	Concurrency      ConcurrencyConfig
	AllowedPaths     AllowedPathRoots
	PromptsDir       string
	EnableSafety     bool
	EnableRecommendations bool

	LLMProviders map[string]LLMProviderConfig
	DefaultModel string
}

// ConfigDir returns the directory Config was loaded from.
func (c *Config) ConfigDir() string {
	return c.configDir
}

// Stats summarizes the loaded configuration for startup logging.
type Stats struct {
	LLMProviders int
	PromptsDir   string
}

// Stats returns a snapshot used only for logging at startup.
func (c *Config) Stats() Stats {
	return Stats{LLMProviders: len(c.LLMProviders), PromptsDir: c.PromptsDir}
}

// DefaultWeights returns the built-in RQS weights: accuracy 0.4,
// completeness 0.3, hallucination 0.2, safety 0.1 (summing to 1).
func DefaultWeights() Weights {
	return Weights{Accuracy: 0.4, Completeness: 0.3, Hallucination: 0.2, Safety: 0.1}
}

func DefaultCompositeWeights() CompositeWeights {
	return CompositeWeights{Alpha: 0.4, Beta: 0.3, Gamma: 0.3}
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		Accuracy:      0.7,
		Consistency:   0.7,
		Hallucination: 0.3,
		RQS:           0.6,
		Semantic:      0.75,
		Fuzzy:         0.8,
		MetricThresholds: map[string]float64{
			"faithfulness":       0.3,
			"answer_relevancy":   0.3,
			"context_precision":  0.3,
			"context_recall":     0.3,
			"answer_correctness": 0.3,
		},
	}
}

func DefaultConcurrency() ConcurrencyConfig {
	return ConcurrencyConfig{
		MaxConcurrentBots:     2,
		MaxBatchSize:          500,
		RagTriadBatchSize:     10,
		EventQueueCapacity:    256,
		EventHeartbeatSeconds: 15,
	}
}

func DefaultCache() CacheConfig {
	return CacheConfig{Enabled: true, FilePath: "eval_cache.json"}
}

// EventHeartbeat returns the configured heartbeat interval as a Duration.
func (c ConcurrencyConfig) EventHeartbeat() time.Duration {
	if c.EventHeartbeatSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.EventHeartbeatSeconds) * time.Second
}
