package jsoneval

import (
	"context"
	"math"
	"sort"

	"github.com/nextgen10/evalctl/pkg/llmgateway"
)

// BatchCandidate is one AI-output candidate graded against a shared
// ground truth in BatchEvaluate.
type BatchCandidate struct {
	ID  string
	AIO map[string]any
}

// BatchResult enriches the per-candidate results with the ranking
// statistics the original evaluator computed across a single ground
// truth's candidate set (spec.md §4.7 [SUPPLEMENT]).
type BatchResult struct {
	Results         []Result
	MeanRQS         float64
	Variance        float64
	StdDev          float64
	BestResponseIdx int
	Ranking         []int // candidate indices, descending by RQS
}

// BatchEvaluate grades every candidate in candidates against the same GT
// using the four-phase grader, then reduces the per-candidate RQS values
// into mean/variance/std-dev and a descending ranking — mirroring
// original_source/backend/agents/json_evaluator_agent.py's evaluate_batch.
func BatchEvaluate(ctx context.Context, gateway *llmgateway.Gateway, gt map[string]any, candidates []BatchCandidate, cfg Config) BatchResult {
	results := make([]Result, len(candidates))
	rqs := make([]float64, len(candidates))
	for i, c := range candidates {
		results[i] = Evaluate(ctx, gateway, gt, c.AIO, cfg)
		rqs[i] = results[i].RQS
	}

	mean := 0.0
	for _, v := range rqs {
		mean += v
	}
	if len(rqs) > 0 {
		mean /= float64(len(rqs))
	}

	variance := 0.0
	for _, v := range rqs {
		d := v - mean
		variance += d * d
	}
	if len(rqs) > 0 {
		variance /= float64(len(rqs))
	}
	stdDev := math.Sqrt(variance)

	ranking := make([]int, len(rqs))
	for i := range ranking {
		ranking[i] = i
	}
	sort.SliceStable(ranking, func(i, j int) bool {
		return rqs[ranking[i]] > rqs[ranking[j]]
	})

	bestIdx := -1
	if len(ranking) > 0 {
		bestIdx = ranking[0]
	}

	return BatchResult{
		Results:         results,
		MeanRQS:         mean,
		Variance:        variance,
		StdDev:          stdDev,
		BestResponseIdx: bestIdx,
		Ranking:         ranking,
	}
}
