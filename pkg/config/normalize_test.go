package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeWeights_SumsToOne(t *testing.T) {
	got := NormalizeWeights(map[string]float64{"a": 2, "b": 2, "c": 4})
	sum := 0.0
	for _, v := range got {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.InDelta(t, 0.5, got["c"], 1e-9)
}

func TestNormalizeWeights_AllZeroFallsBackToEqualShares(t *testing.T) {
	got := NormalizeWeights(map[string]float64{"a": 0, "b": 0, "c": 0, "d": 0})
	for _, v := range got {
		assert.InDelta(t, 0.25, v, 1e-9)
	}
}

func TestNormalizeStructWeights_RenormalizesToSumOne(t *testing.T) {
	got := NormalizeStructWeights(Weights{Accuracy: 1, Completeness: 1, Hallucination: 0, Safety: 2})
	sum := got.Accuracy + got.Completeness + got.Hallucination + got.Safety
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.InDelta(t, 0.5, got.Safety, 1e-9)
}

func TestNormalizeStructWeights_AllZeroFallsBackToEqualShares(t *testing.T) {
	got := NormalizeStructWeights(Weights{})
	assert.InDelta(t, 0.25, got.Accuracy, 1e-9)
	assert.InDelta(t, 0.25, got.Completeness, 1e-9)
	assert.InDelta(t, 0.25, got.Hallucination, 1e-9)
	assert.InDelta(t, 0.25, got.Safety, 1e-9)
}

func TestNormalizeCompositeWeights_RenormalizesToSumOne(t *testing.T) {
	got := NormalizeCompositeWeights(CompositeWeights{Alpha: 2, Beta: 1, Gamma: 1})
	sum := got.Alpha + got.Beta + got.Gamma
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.InDelta(t, 0.5, got.Alpha, 1e-9)
}
