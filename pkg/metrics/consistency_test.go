package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextgen10/evalctl/pkg/promptregistry"
)

type fakeConsistencyBackend struct {
	result map[string]any
	err    error
}

func (f *fakeConsistencyBackend) CompleteJSON(context.Context, string, string, string, float64, int) (map[string]any, error) {
	return f.result, f.err
}

func TestConsistency_SingleOutputShortCircuitsToOne(t *testing.T) {
	prompts, err := promptregistry.Load(t.TempDir())
	require.NoError(t, err)

	got := Consistency(context.Background(), &fakeConsistencyBackend{}, prompts, []string{"only one"})
	assert.Equal(t, 1.0, got)
}

func TestConsistency_MultipleOutputsCallsBackend(t *testing.T) {
	prompts, err := promptregistry.Load(t.TempDir())
	require.NoError(t, err)

	backend := &fakeConsistencyBackend{result: map[string]any{"score": 0.42}}
	got := Consistency(context.Background(), backend, prompts, []string{"a", "b", "c"})
	assert.Equal(t, 0.42, got)
}

func TestConsistency_BackendFailureFallsBackToOne(t *testing.T) {
	prompts, err := promptregistry.Load(t.TempDir())
	require.NoError(t, err)

	backend := &fakeConsistencyBackend{err: assert.AnError}
	got := Consistency(context.Background(), backend, prompts, []string{"a", "b"})
	assert.Equal(t, 1.0, got)
}
