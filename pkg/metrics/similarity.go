package metrics

import (
	"context"

	"github.com/nextgen10/evalctl/pkg/llmgateway"
)

// SimilarityBackend is the subset of *llmgateway.Gateway this package
// depends on, narrowed to ease substitution in tests.
type SimilarityBackend interface {
	SemanticSimilarity(ctx context.Context, a, b string) float64
	FuzzySimilarity(ctx context.Context, a, b string) float64
}

var _ SimilarityBackend = (*llmgateway.Gateway)(nil)

// FuzzyMatch scores two short strings for close (non-exact) similarity,
// used by the FUZZY field strategy.
func FuzzyMatch(ctx context.Context, backend SimilarityBackend, expected, actual string) float64 {
	return backend.FuzzySimilarity(ctx, expected, actual)
}

// SemanticMatch scores two free-text fragments for meaning equivalence,
// used by the SEMANTIC field strategy.
func SemanticMatch(ctx context.Context, backend SimilarityBackend, expected, actual string) float64 {
	return backend.SemanticSimilarity(ctx, expected, actual)
}
