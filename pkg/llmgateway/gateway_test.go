package llmgateway

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextgen10/evalctl/pkg/config"
	"github.com/nextgen10/evalctl/pkg/promptregistry"
)

type fakeChatClient struct {
	response string
	err      error
}

func (f *fakeChatClient) CreateChatCompletion(_ context.Context, _ string, _ float32, _ int, _, _ string, _ bool) (string, error) {
	return f.response, f.err
}

func newTestRegistry(t *testing.T) *promptregistry.Registry {
	t.Helper()
	reg, err := promptregistry.Load(t.TempDir())
	require.NoError(t, err)
	return reg
}

func TestCompleteJSON_ParsesObject(t *testing.T) {
	g := New(&fakeChatClient{response: `{"score": 0.75}`}, newTestRegistry(t), config.LLMProviderConfig{Model: "gpt"})
	out, err := g.CompleteJSON(context.Background(), "sys", "user", "", 0, 100)
	require.NoError(t, err)
	assert.Equal(t, 0.75, out["score"])
}

func TestCompleteJSON_ExtractsEmbeddedObject(t *testing.T) {
	g := New(&fakeChatClient{response: "sure, here you go: {\"score\": 0.4} thanks"}, newTestRegistry(t), config.LLMProviderConfig{Model: "gpt"})
	out, err := g.CompleteJSON(context.Background(), "sys", "user", "", 0, 100)
	require.NoError(t, err)
	assert.Equal(t, 0.4, out["score"])
}

func TestCompleteJSON_UpstreamErrorWraps(t *testing.T) {
	g := New(&fakeChatClient{err: errors.New("boom")}, newTestRegistry(t), config.LLMProviderConfig{Model: "gpt"})
	_, err := g.CompleteJSON(context.Background(), "sys", "user", "", 0, 100)
	require.Error(t, err)
	var llmErr *LLMError
	assert.ErrorAs(t, err, &llmErr)
}

func TestSemanticSimilarity_FallsBackToZeroOnFailure(t *testing.T) {
	g := New(&fakeChatClient{err: errors.New("down")}, newTestRegistry(t), config.LLMProviderConfig{Model: "gpt"})
	got := g.SemanticSimilarity(context.Background(), "a", "b")
	assert.Equal(t, 0.0, got)
}

func TestToxicity_KeywordScanRaisesScoreAndPromotesTone(t *testing.T) {
	g := New(&fakeChatClient{response: `{"toxicity_score": 0.1, "tone": "neutral", "issues": []}`}, newTestRegistry(t), config.LLMProviderConfig{Model: "gpt"})
	result := g.Toxicity(context.Background(), "you are an idiot")
	assert.Equal(t, 0.5, result.Toxicity)
	assert.Equal(t, "problematic", result.Tone)
	assert.Len(t, result.Issues, 1)
}

func TestToxicity_LLMScoreWinsWhenHigher(t *testing.T) {
	g := New(&fakeChatClient{response: `{"toxicity_score": 0.9, "tone": "problematic", "issues": ["threat"]}`}, newTestRegistry(t), config.LLMProviderConfig{Model: "gpt"})
	result := g.Toxicity(context.Background(), "a perfectly normal sentence")
	assert.Equal(t, 0.9, result.Toxicity)
	assert.Contains(t, result.Issues, "threat")
}

func TestClampScore_ClampsRangeAndCoercesUnparsableToZero(t *testing.T) {
	assert.Equal(t, 0.0, clampScore(nil))
	assert.Equal(t, 1.0, clampScore(1.5))
	assert.Equal(t, 0.0, clampScore(-0.5))
}
