package fieldmatch

import (
	"testing"

	"github.com/nextgen10/evalctl/pkg/evalmodel"
	"github.com/stretchr/testify/assert"
)

func TestResolve_ExplicitStrategyWins(t *testing.T) {
	strategies := evalmodel.FieldStrategyMap{"name": evalmodel.StrategyFuzzy}
	got := Resolve("name", "Alice", strategies)
	assert.Equal(t, evalmodel.StrategyFuzzy, got)
}

func TestResolve_InferenceByType(t *testing.T) {
	cases := []struct {
		name string
		val  any
		want evalmodel.Strategy
	}{
		{"bool", true, evalmodel.StrategyExact},
		{"number", 42.0, evalmodel.StrategyExact},
		{"array", []any{1, 2}, evalmodel.StrategyExact},
		{"object", map[string]any{"x": 1}, evalmodel.StrategyExact},
		{"email", "a@b.com", evalmodel.StrategyExact},
		{"date", "2024-01-02", evalmodel.StrategyExact},
		{"text", "hello world", evalmodel.StrategySemantic},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Resolve("k", tc.val, nil)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestIsNull(t *testing.T) {
	assert.True(t, IsNull(nil, false))
	assert.True(t, IsNull(nil, true))
	assert.True(t, IsNull("   ", true))
	assert.False(t, IsNull("x", true))
	assert.False(t, IsNull(0.0, true))
}
