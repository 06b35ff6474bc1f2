package store

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

type sanitizeFixture struct {
	Score   float64
	Nested  *sanitizeFixtureNested
	List    []float64
	Tagged  map[string]any
	Untyped any
}

type sanitizeFixtureNested struct {
	Value float64
}

func TestSanitizeFloatsDeep_CoercesNaNAndInfEverywhere(t *testing.T) {
	f := &sanitizeFixture{
		Score:   math.NaN(),
		Nested:  &sanitizeFixtureNested{Value: math.Inf(1)},
		List:    []float64{1.0, math.Inf(-1), 0.5},
		Tagged:  map[string]any{"x": math.NaN(), "y": 2.0},
		Untyped: math.Inf(1),
	}

	SanitizeFloatsDeep(f)

	assert.Equal(t, 0.0, f.Score)
	assert.Equal(t, 0.0, f.Nested.Value)
	assert.Equal(t, []float64{1.0, 0.0, 0.5}, f.List)
	assert.Equal(t, 0.0, f.Tagged["x"])
	assert.Equal(t, 2.0, f.Tagged["y"])
	assert.Equal(t, 0.0, f.Untyped)
}

func TestSanitizeFloatsDeep_LeavesFiniteValuesUntouched(t *testing.T) {
	f := &sanitizeFixture{Score: 0.75, List: []float64{0.1, 0.2}}
	SanitizeFloatsDeep(f)
	assert.Equal(t, 0.75, f.Score)
	assert.Equal(t, []float64{0.1, 0.2}, f.List)
}

func TestSanitizeFloatsDeep_IgnoresNonPointer(t *testing.T) {
	f := sanitizeFixture{Score: math.NaN()}
	assert.NotPanics(t, func() { SanitizeFloatsDeep(f) })
}
