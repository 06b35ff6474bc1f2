package jsoneval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextgen10/evalctl/pkg/config"
	"github.com/nextgen10/evalctl/pkg/llmgateway"
	"github.com/nextgen10/evalctl/pkg/promptregistry"
)

func newTestGateway(t *testing.T) *llmgateway.Gateway {
	t.Helper()
	reg, err := promptregistry.Load(t.TempDir())
	require.NoError(t, err)
	return llmgateway.New(nil, reg, config.LLMProviderConfig{Model: "gpt"})
}

func TestBatchEvaluate_RanksCandidatesByRQS(t *testing.T) {
	gw := newTestGateway(t)
	gt := map[string]any{"age": 25.0}
	candidates := []BatchCandidate{
		{ID: "worse", AIO: map[string]any{"age": 99.0}},
		{ID: "best", AIO: map[string]any{"age": 25.0}},
	}
	cfg := Config{Weights: config.Weights{Accuracy: 1, Completeness: 0, Hallucination: 0, Safety: 0}}

	result := BatchEvaluate(context.Background(), gw, gt, candidates, cfg)

	require.Len(t, result.Results, 2)
	assert.Equal(t, 1, result.BestResponseIdx)
	require.Len(t, result.Ranking, 2)
	assert.Equal(t, 1, result.Ranking[0])
	assert.Equal(t, 1.0, result.Results[1].RQS)
	assert.Equal(t, 0.0, result.Results[0].RQS)
	assert.InDelta(t, 0.5, result.MeanRQS, 1e-9)
}

func TestBatchEvaluate_EmptyCandidatesYieldsZeroedStats(t *testing.T) {
	gw := newTestGateway(t)
	result := BatchEvaluate(context.Background(), gw, map[string]any{}, nil, Config{})
	assert.Empty(t, result.Results)
	assert.Equal(t, 0.0, result.MeanRQS)
	assert.Equal(t, -1, result.BestResponseIdx)
}
