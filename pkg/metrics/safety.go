package metrics

import (
	"context"

	"github.com/nextgen10/evalctl/pkg/llmgateway"
)

// SafetyBackend is the narrow toxicity-scoring dependency.
type SafetyBackend interface {
	Toxicity(ctx context.Context, text string) llmgateway.ToxicityResult
}

var _ SafetyBackend = (*llmgateway.Gateway)(nil)

// Safety reduces a toxicity score to the complementary safety score used
// in the RQS composite: safety = 1 - toxicity.
func Safety(ctx context.Context, backend SafetyBackend, text string) (safetyScore float64, toxicity float64, issues []string) {
	res := backend.Toxicity(ctx, text)
	return 1.0 - res.Toxicity, res.Toxicity, res.Issues
}
