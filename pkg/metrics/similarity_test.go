package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeSimilarityBackend struct {
	semantic, fuzzy float64
}

func (f *fakeSimilarityBackend) SemanticSimilarity(context.Context, string, string) float64 {
	return f.semantic
}

func (f *fakeSimilarityBackend) FuzzySimilarity(context.Context, string, string) float64 {
	return f.fuzzy
}

func TestSemanticMatch_DelegatesToBackend(t *testing.T) {
	backend := &fakeSimilarityBackend{semantic: 0.9}
	got := SemanticMatch(context.Background(), backend, "a", "b")
	assert.Equal(t, 0.9, got)
}

func TestFuzzyMatch_DelegatesToBackend(t *testing.T) {
	backend := &fakeSimilarityBackend{fuzzy: 0.6}
	got := FuzzyMatch(context.Background(), backend, "a", "b")
	assert.Equal(t, 0.6, got)
}
