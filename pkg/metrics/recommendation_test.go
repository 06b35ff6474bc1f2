package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRecommendations_EmptyInputReturnsNil(t *testing.T) {
	out, err := GenerateRecommendations(context.Background(), &fakeRagBackend{}, testPrompts(t), nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestGenerateRecommendations_ParsesOneRecommendationPerRow(t *testing.T) {
	backend := &fakeRagBackend{result: map[string]any{
		"recommendations": []any{"Improve retrieval depth.", "Tighten prompt grounding."},
	}}
	rows := []RecommendationInput{
		{Query: "q1", Response: "a1", FailureMode: "Retrieval Failure"},
		{Query: "q2", Response: "a2", FailureMode: "OK"},
	}

	out, err := GenerateRecommendations(context.Background(), backend, testPrompts(t), rows)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Improve retrieval depth.", out[0])
	assert.Equal(t, "Tighten prompt grounding.", out[1])
}

func TestGenerateRecommendations_BackendErrorFallsBackPerRow(t *testing.T) {
	backend := &fakeRagBackend{err: assert.AnError}
	rows := []RecommendationInput{{Query: "q1", Response: "a1"}}

	out, err := GenerateRecommendations(context.Background(), backend, testPrompts(t), rows)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, fallbackRecommendation, out[0])
}

func TestGenerateRecommendations_ShortResponseFallsBackForMissingRows(t *testing.T) {
	backend := &fakeRagBackend{result: map[string]any{
		"recommendations": []any{"only one"},
	}}
	rows := []RecommendationInput{{Query: "q1", Response: "a1"}, {Query: "q2", Response: "a2"}}

	out, err := GenerateRecommendations(context.Background(), backend, testPrompts(t), rows)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "only one", out[0])
	assert.Equal(t, fallbackRecommendation, out[1])
}

func TestGenerateRecommendations_BatchesLargeInputs(t *testing.T) {
	backend := &fakeRagBackend{result: map[string]any{
		"recommendations": []any{"r1", "r2", "r3", "r4", "r5"},
	}}
	rows := make([]RecommendationInput, 7)
	for i := range rows {
		rows[i] = RecommendationInput{Query: "q", Response: "a"}
	}

	out, err := GenerateRecommendations(context.Background(), backend, testPrompts(t), rows)
	require.NoError(t, err)
	require.Len(t, out, 7)
	assert.Equal(t, "r1", out[0])
	// Each 5-row batch reuses the same fake response, so both the first
	// batch's 5th row and the second batch's 1st row read "r5"/"r1".
	assert.Equal(t, "r5", out[4])
	assert.Equal(t, "r1", out[5])
}
