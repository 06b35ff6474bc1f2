package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// Initialize loads, validates, and returns ready-to-use configuration.
// This is the primary entry point for configuration loading.
//
// Steps performed:
//  1. Load evalctl.yaml and llm-providers.yaml from configDir
//  2. Expand environment variables
//  3. Merge built-in defaults with user-defined overrides
//  4. Validate all configuration
//  5. Return Config ready for use
func Initialize(ctx context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("initializing configuration")

	cfg, err := load(ctx, configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	// Renormalize after validation so the zero-weight warning above still
	// sees the operator's raw input (spec.md §3 invariant: weights sum to 1,
	// falling back to equal shares when all-zero).
	cfg.Weights = NormalizeStructWeights(cfg.Weights)
	cfg.CompositeWeights = NormalizeCompositeWeights(cfg.CompositeWeights)

	stats := cfg.Stats()
	log.Info("configuration initialized",
		"llm_providers", stats.LLMProviders,
		"prompts_dir", stats.PromptsDir)

	return cfg, nil
}

type configLoader struct {
	configDir string
}

func (l *configLoader) loadYAML(filename string, target any) error {
	path := filepath.Join(l.configDir, filename)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return err
	}

	data = ExpandEnv(data)

	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return nil
}

// load is the internal loader (not exported).
func load(_ context.Context, configDir string) (*Config, error) {
	loader := &configLoader{configDir: configDir}

	var userCfg EvalctlYAMLConfig
	if err := loader.loadYAML("evalctl.yaml", &userCfg); err != nil {
		return nil, NewLoadError("evalctl.yaml", err)
	}

	var providersCfg LLMProvidersYAMLConfig
	providersCfg.LLMProviders = make(map[string]LLMProviderConfig)
	if err := loader.loadYAML("llm-providers.yaml", &providersCfg); err != nil {
		return nil, NewLoadError("llm-providers.yaml", err)
	}

	weights := DefaultWeights()
	if userCfg.Weights != nil {
		if err := mergo.Merge(&weights, *userCfg.Weights, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge weights: %w", err)
		}
	}

	composite := DefaultCompositeWeights()
	if userCfg.CompositeWeights != nil {
		if err := mergo.Merge(&composite, *userCfg.CompositeWeights, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge composite weights: %w", err)
		}
	}

	thresholds := DefaultThresholds()
	if userCfg.Thresholds != nil {
		if err := mergo.Merge(&thresholds, *userCfg.Thresholds, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge thresholds: %w", err)
		}
		for k, v := range userCfg.Thresholds.MetricThresholds {
			thresholds.MetricThresholds[k] = v
		}
	}

	cache := DefaultCache()
	if userCfg.Cache != nil {
		if err := mergo.Merge(&cache, *userCfg.Cache, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge cache config: %w", err)
		}
	}

	concurrency := DefaultConcurrency()
	if userCfg.Concurrency != nil {
		if err := mergo.Merge(&concurrency, *userCfg.Concurrency, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge concurrency config: %w", err)
		}
	}

	var allowedPaths AllowedPathRoots
	if userCfg.AllowedPaths != nil {
		allowedPaths = *userCfg.AllowedPaths
	}

	promptsDir := userCfg.PromptsDir
	if promptsDir == "" {
		promptsDir = filepath.Join(configDir, "prompts")
	}

	return &Config{
		configDir:        configDir,
		Weights:          weights,
		CompositeWeights: composite,
		Thresholds:       thresholds,
		Cache:            cache,
		Concurrency:      concurrency,
		AllowedPaths:     allowedPaths,
		PromptsDir:       promptsDir,
		EnableSafety:     userCfg.EnableSafety,
		EnableRecommendations: userCfg.EnableRecommendations,
		LLMProviders:     providersCfg.LLMProviders,
		DefaultModel:     providersCfg.DefaultModel,
	}, nil
}

// validate performs comprehensive validation on loaded configuration.
func validate(cfg *Config) error {
	v := NewValidator(cfg)
	return v.ValidateAll()
}
