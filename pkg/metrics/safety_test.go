package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nextgen10/evalctl/pkg/llmgateway"
)

type fakeSafetyBackend struct {
	result llmgateway.ToxicityResult
}

func (f *fakeSafetyBackend) Toxicity(context.Context, string) llmgateway.ToxicityResult {
	return f.result
}

func TestSafety_ComplementsToxicity(t *testing.T) {
	backend := &fakeSafetyBackend{result: llmgateway.ToxicityResult{Toxicity: 0.3, Issues: []string{"rude"}}}
	safety, toxicity, issues := Safety(context.Background(), backend, "text")
	assert.Equal(t, 0.7, safety)
	assert.Equal(t, 0.3, toxicity)
	assert.Equal(t, []string{"rude"}, issues)
}
