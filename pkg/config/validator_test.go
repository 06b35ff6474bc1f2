package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig() *Config {
	return &Config{
		Weights:      DefaultWeights(),
		Thresholds:   DefaultThresholds(),
		Concurrency:  DefaultConcurrency(),
		Cache:        DefaultCache(),
		LLMProviders: map[string]LLMProviderConfig{},
	}
}

func TestValidateAll_ValidConfigPasses(t *testing.T) {
	cfg := baseConfig()
	require.NoError(t, NewValidator(cfg).ValidateAll())
}

func TestValidateAll_RejectsNegativeWeight(t *testing.T) {
	cfg := baseConfig()
	cfg.Weights.Accuracy = -0.1
	err := NewValidator(cfg).ValidateAll()
	assert.Error(t, err)
}

func TestValidateAll_RejectsOutOfRangeThreshold(t *testing.T) {
	cfg := baseConfig()
	cfg.Thresholds.RQS = 1.5
	err := NewValidator(cfg).ValidateAll()
	assert.Error(t, err)
}

func TestValidateAll_RejectsZeroConcurrency(t *testing.T) {
	cfg := baseConfig()
	cfg.Concurrency.MaxConcurrentBots = 0
	err := NewValidator(cfg).ValidateAll()
	assert.Error(t, err)
}

func TestValidateAll_RejectsBatchSizeAboveCap(t *testing.T) {
	cfg := baseConfig()
	cfg.Concurrency.MaxBatchSize = 501
	err := NewValidator(cfg).ValidateAll()
	assert.Error(t, err)
}
