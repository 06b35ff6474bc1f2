package orchestrator

import (
	"context"
	"strings"

	"github.com/nextgen10/evalctl/pkg/metrics"
)

// backfillRunLevelSafety implements the aggregate_run_metrics mode: one
// safety call per run_id (not per output), backfilled onto every output
// detail sharing that run_id, and folded into the returned safety
// samples used for the aggregate average (spec.md §4.8).
func (o *Orchestrator) backfillRunLevelSafety(ctx context.Context, perQuery map[string]QueryOutcome) []float64 {
	runTexts := map[string][]string{}
	for _, outcome := range perQuery {
		for _, d := range outcome.Outputs {
			runTexts[d.RunID] = append(runTexts[d.RunID], d.Raw)
		}
	}

	runSafety := map[string]float64{}
	runToxicity := map[string]float64{}
	for runID, texts := range runTexts {
		combined := strings.Join(texts, "\n")
		s, tox, _ := metrics.Safety(ctx, o.gateway, combined)
		runSafety[runID] = s
		runToxicity[runID] = tox
	}

	var samples []float64
	for queryID, outcome := range perQuery {
		for i := range outcome.Outputs {
			runID := outcome.Outputs[i].RunID
			s := runSafety[runID]
			tox := runToxicity[runID]
			outcome.Outputs[i].SafetyScore = &s
			outcome.Outputs[i].Toxicity = &tox
			samples = append(samples, s)
		}
		perQuery[queryID] = outcome
	}
	return samples
}
