package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextgen10/evalctl/pkg/config"
	"github.com/nextgen10/evalctl/pkg/evalmodel"
	"github.com/nextgen10/evalctl/pkg/promptregistry"
)

type fakeRagBackend struct {
	result map[string]any
	err    error
}

func (f *fakeRagBackend) CompleteJSON(context.Context, string, string, string, float64, int) (map[string]any, error) {
	return f.result, f.err
}

func testPrompts(t *testing.T) *promptregistry.Registry {
	t.Helper()
	prompts, err := promptregistry.Load(t.TempDir())
	require.NoError(t, err)
	return prompts
}

func TestRagTriadBatch_EmptyRowsReturnsNil(t *testing.T) {
	out, err := RagTriadBatch(context.Background(), &fakeRagBackend{}, testPrompts(t), nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestRagTriadBatch_ZerosContextRecallWhenContextEmpty(t *testing.T) {
	backend := &fakeRagBackend{result: map[string]any{
		"results": []map[string]any{
			{"faithfulness": 0.8, "answer_relevancy": 0.7, "context_precision": 0.9, "context_recall": 0.9, "answer_correctness": 0.6},
		},
	}}
	rows := []RagTriadInput{{Query: "q", Answer: "a", Contexts: nil, GroundTruth: "gt", HasGT: true}}

	out, err := RagTriadBatch(context.Background(), backend, testPrompts(t), rows)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.True(t, out[0].EmptyContext)
	assert.Equal(t, 0.0, out[0].ContextPrecision)
	assert.Equal(t, 0.0, out[0].ContextRecall)
	assert.Equal(t, 0.6, out[0].AnswerCorrectness)
}

func TestRagTriadBatch_ZerosGroundTruthFieldsWhenAbsent(t *testing.T) {
	backend := &fakeRagBackend{result: map[string]any{
		"results": []map[string]any{
			{"faithfulness": 0.8, "answer_relevancy": 0.7, "context_precision": 0.9, "context_recall": 0.9, "answer_correctness": 0.6},
		},
	}}
	rows := []RagTriadInput{{Query: "q", Answer: "a", Contexts: []string{"ctx"}, HasGT: false}}

	out, err := RagTriadBatch(context.Background(), backend, testPrompts(t), rows)
	require.NoError(t, err)
	assert.Equal(t, 0.0, out[0].ContextRecall)
	assert.Equal(t, 0.0, out[0].AnswerCorrectness)
	assert.Equal(t, 0.9, out[0].ContextPrecision)
}

func TestRagTriadBatch_UpstreamFailureReturnsZeroedBundles(t *testing.T) {
	backend := &fakeRagBackend{err: assert.AnError}
	rows := []RagTriadInput{{Query: "q", Answer: "answer text", Contexts: []string{"ctx"}, HasGT: true, GroundTruth: "gt"}}

	out, err := RagTriadBatch(context.Background(), backend, testPrompts(t), rows)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 0.0, out[0].Faithfulness)
	assert.False(t, out[0].EmptyContext)
}

func TestClassifyFailure_PriorityOrder(t *testing.T) {
	thresh := config.Thresholds{MetricThresholds: map[string]float64{}}

	retrieval := evalmodel.MetricBundle{ContextRecall: 0.1, ContextPrecision: 0.1, Faithfulness: 0.9, AnswerRelevancy: 0.9, AnswerCorrectness: 0.9}
	assert.Equal(t, "Retrieval Failure", ClassifyFailure(retrieval, thresh))

	hallucination := evalmodel.MetricBundle{ContextRecall: 0.9, ContextPrecision: 0.9, Faithfulness: 0.1, AnswerRelevancy: 0.9, AnswerCorrectness: 0.9}
	assert.Equal(t, "Hallucination", ClassifyFailure(hallucination, thresh))

	lowQuality := evalmodel.MetricBundle{ContextRecall: 0.9, ContextPrecision: 0.9, Faithfulness: 0.9, AnswerRelevancy: 0.1, AnswerCorrectness: 0.9}
	assert.Equal(t, "Low Quality", ClassifyFailure(lowQuality, thresh))

	ok := evalmodel.MetricBundle{ContextRecall: 0.9, ContextPrecision: 0.9, Faithfulness: 0.9, AnswerRelevancy: 0.9, AnswerCorrectness: 0.9}
	assert.Equal(t, "OK", ClassifyFailure(ok, thresh))
}

func TestCalculateRQS_FiveTermWeightedSum(t *testing.T) {
	m := evalmodel.MetricBundle{AnswerCorrectness: 0.8, Faithfulness: 0.6, AnswerRelevancy: 0.5, ContextPrecision: 1.0, ContextRecall: 1.0}
	w := config.CompositeWeights{Alpha: 0.4, Beta: 0.3, Gamma: 0.3}
	// 0.4*0.8 + 0.3*0.6 + 0.3*0.5 + 0.075*1.0 + 0.075*1.0 = 0.32+0.18+0.15+0.075+0.075 = 0.8
	assert.InDelta(t, 0.8, CalculateRQS(m, w), 1e-9)
}

func TestCalculateRQS_AllOnesExceedsOneBeforeClamp(t *testing.T) {
	m := evalmodel.MetricBundle{Faithfulness: 1.0, AnswerCorrectness: 1.0, AnswerRelevancy: 1.0, ContextPrecision: 1.0, ContextRecall: 1.0}
	w := config.CompositeWeights{Alpha: 0.4, Beta: 0.3, Gamma: 0.3}
	// 0.4+0.3+0.3+0.075+0.075 = 1.15, clamped to 1.0
	assert.Equal(t, 1.0, CalculateRQS(m, w))
}

func TestCalculateRQS_ClampsToOne(t *testing.T) {
	m := evalmodel.MetricBundle{Faithfulness: 1.0, AnswerCorrectness: 1.0, AnswerRelevancy: 1.0, ContextPrecision: 1.0, ContextRecall: 1.0}
	w := config.CompositeWeights{Alpha: 1.0, Beta: 1.0, Gamma: 1.0}
	assert.Equal(t, 1.0, CalculateRQS(m, w))
}
