package orchestrator

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/nextgen10/evalctl/pkg/evalmodel"
	"github.com/nextgen10/evalctl/pkg/fieldmatch"
	"github.com/nextgen10/evalctl/pkg/jsoneval"
	"github.com/nextgen10/evalctl/pkg/metrics"
)

// runSingleTest evaluates one candidate output against its ground truth,
// resolving match_type, dispatching similarity/safety, and computing
// accuracy per spec.md §4.8's single-test path.
func (o *Orchestrator) runSingleTest(ctx context.Context, queryID string, out AIOutputItem, gt GroundTruthItem, found bool, cfg RunConfig) evalmodel.OutputDetail {
	detail := evalmodel.OutputDetail{
		QueryID: queryID,
		RunID:   out.RunID,
		Raw:     out.ActualOutput,
	}

	if !found {
		detail.MatchType = "none"
		detail.Accuracy = 0
		detail.ErrorType = errorTypeFor(0)
		return detail
	}

	detail.Expected = gt.ExpectedOutput
	detail.MatchType = gt.MatchType

	strategy := evalmodel.Strategy(strings.ToUpper(gt.MatchType))
	if gt.MatchType == "json" {
		return o.runJSONMatch(ctx, queryID, out, gt, cfg)
	}

	switch strategy {
	case evalmodel.StrategyIgnore:
		detail.Accuracy = 1
		detail.Completeness = 1
	case evalmodel.StrategyExact:
		detail.Accuracy = metrics.ExactMatch(gt.ExpectedOutput, out.ActualOutput, gt.ExpectedType)
		detail.Completeness = detail.Accuracy
	case evalmodel.StrategyFuzzy:
		sim := metrics.FuzzyMatch(ctx, o.gateway, gt.ExpectedOutput, out.ActualOutput)
		detail.SemanticScore = sim
		if sim >= cfg.Thresholds.Fuzzy {
			detail.Accuracy = 1
		}
		detail.Completeness = detail.Accuracy
	default: // SEMANTIC; any unrecognized literal is also scored as SEMANTIC
		sim := metrics.SemanticMatch(ctx, o.gateway, gt.ExpectedOutput, out.ActualOutput)
		detail.SemanticScore = sim
		if collapsedEqual(gt.ExpectedOutput, out.ActualOutput) || sim > cfg.Thresholds.Semantic {
			detail.Accuracy = 1
		}
		detail.Completeness = detail.Accuracy
	}

	if cfg.EnableSafety && !cfg.AggregateRunMetrics {
		s, tox, _ := metrics.Safety(ctx, o.gateway, out.ActualOutput)
		detail.SafetyScore = &s
		detail.Toxicity = &tox
	}

	detail.Hallucination = 1 - detail.Completeness
	detail.RQS = calcOutputRQS(detail, cfg)
	detail.ErrorType = errorTypeFor(detail.Accuracy)
	return detail
}

func (o *Orchestrator) runJSONMatch(ctx context.Context, queryID string, out AIOutputItem, gt GroundTruthItem, cfg RunConfig) evalmodel.OutputDetail {
	detail := evalmodel.OutputDetail{QueryID: queryID, RunID: out.RunID, Raw: out.ActualOutput, Expected: gt.ExpectedOutput, MatchType: "json"}

	var gtObj, aioObj map[string]any
	_ = json.Unmarshal([]byte(gt.ExpectedOutput), &gtObj)
	_ = json.Unmarshal([]byte(out.ActualOutput), &aioObj)

	gtFlat := fieldmatch.Flatten(gtObj)
	aioFlat := fieldmatch.Flatten(aioObj)

	res := jsoneval.Evaluate(ctx, o.gateway, gtFlat, aioFlat, jsoneval.Config{
		SemanticThreshold: cfg.Thresholds.Semantic,
		FuzzyThreshold:    cfg.Thresholds.Fuzzy,
		Weights:           cfg.Weights,
		EnableSafety:      cfg.EnableSafety && !cfg.AggregateRunMetrics,
		FieldStrategies:   cfg.FieldStrategies,
	})

	detail.Completeness = res.Completeness
	detail.Hallucination = res.Hallucination
	detail.RQS = res.RQS
	detail.SafetyScore = res.SafetyScore
	detail.Toxicity = res.Toxicity
	detail.FieldScores = res.FieldScores
	if res.Accuracy >= 1.0 {
		detail.Accuracy = 1
	} else {
		detail.Accuracy = 0
	}
	detail.ErrorType = errorTypeFor(detail.Accuracy)
	return detail
}

func calcOutputRQS(d evalmodel.OutputDetail, cfg RunConfig) float64 {
	safety := 1.0
	if d.SafetyScore != nil {
		safety = *d.SafetyScore
	}
	rqs := cfg.Weights.Accuracy*d.Accuracy + cfg.Weights.Completeness*d.Completeness +
		cfg.Weights.Safety*safety - cfg.Weights.Hallucination*d.Hallucination
	if rqs < 0 {
		return 0
	}
	if rqs > 1 {
		return 1
	}
	return rqs
}

func errorTypeFor(accuracy float64) string {
	if accuracy == 1.0 {
		return "correct"
	}
	return "hallucination"
}

// collapsedEqual compares two strings after trimming, collapsing
// interior whitespace, and lowercasing — the spec's "normalized
// case-insensitive whitespace-collapsed comparison" used as the
// SEMANTIC path's cheap pre-check before falling back to the LLM score.
func collapsedEqual(a, b string) bool {
	return strings.ToLower(strings.Join(strings.Fields(a), " ")) == strings.ToLower(strings.Join(strings.Fields(b), " "))
}
