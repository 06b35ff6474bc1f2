// Package jsoneval implements the four-phase structural grader over two
// JSON objects (classification -> completeness -> hallucination ->
// accuracy -> optional safety), producing field-level scores and a
// composite RQS (spec.md §4.6).
package jsoneval

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/nextgen10/evalctl/pkg/config"
	"github.com/nextgen10/evalctl/pkg/evalmodel"
	"github.com/nextgen10/evalctl/pkg/fieldmatch"
	"github.com/nextgen10/evalctl/pkg/llmgateway"
	"github.com/nextgen10/evalctl/pkg/metrics"
)

// Config carries the thresholds and weights needed by one Evaluate call.
type Config struct {
	SemanticThreshold float64
	FuzzyThreshold    float64
	Weights           config.Weights
	EnableSafety      bool
	FieldStrategies   evalmodel.FieldStrategyMap
}

// Result is the outcome of grading one (GT, AIO) pair.
type Result struct {
	Completeness  float64
	Hallucination float64
	Accuracy      float64
	SafetyScore   *float64
	Toxicity      *float64
	RQS           float64
	FieldScores   []evalmodel.FieldScore
}

// Evaluate runs the four-phase grader over already-flattened GT and AIO
// objects (leaf-path key -> value). Both maps use the `_`/`#idx`
// flattened-key convention (pkg/fieldmatch).
func Evaluate(ctx context.Context, gateway *llmgateway.Gateway, gt, aio map[string]any, cfg Config) Result {
	ignored := ignoredKeys(cfg.FieldStrategies)

	allKeys := map[string]bool{}
	for k := range gt {
		allKeys[k] = true
	}
	for k := range aio {
		allKeys[k] = true
	}
	for k := range ignored {
		delete(allKeys, k)
	}

	var extra, gtNullAIOHasValue, gtNonNull, bothNonNull, aioMissingOrNull []string

	for k := range allKeys {
		gtVal, gtPresent := gt[k]
		aioVal, aioPresent := aio[k]
		gtNull := fieldmatch.IsNull(gtVal, gtPresent)
		aioNull := fieldmatch.IsNull(aioVal, aioPresent)

		if !gtPresent && aioPresent {
			extra = append(extra, k)
			continue
		}
		if gtPresent && gtNull && aioPresent && !aioNull {
			gtNullAIOHasValue = append(gtNullAIOHasValue, k)
			continue
		}
		if gtPresent && !gtNull {
			gtNonNull = append(gtNonNull, k)
			if aioPresent && !aioNull {
				bothNonNull = append(bothNonNull, k)
			} else {
				aioMissingOrNull = append(aioMissingOrNull, k)
			}
		}
	}

	// Phase 1 — completeness.
	completeness := 1.0
	if len(gtNonNull) > 0 {
		completeness = float64(len(bothNonNull)) / float64(len(gtNonNull))
	}

	// Phase 2 — hallucination.
	hallucination := 0.0
	if len(allKeys) > 0 {
		hallucination = float64(len(extra)+len(gtNullAIOHasValue)) / float64(len(allKeys))
	}

	// Phase 3 — accuracy.
	sort.Strings(bothNonNull)
	var fieldScores []evalmodel.FieldScore
	var accuracySum float64
	for _, k := range bothNonNull {
		strategy := fieldmatch.Resolve(k, gt[k], cfg.FieldStrategies)
		score, similarity := scoreField(ctx, gateway, strategy, gt[k], aio[k], cfg)
		accuracySum += score
		fieldScores = append(fieldScores, evalmodel.FieldScore{
			FieldName:  k,
			FieldType:  string(strategy),
			GTValue:    gt[k],
			AIOValue:   aio[k],
			MatchType:  strategy,
			Score:      score,
			Similarity: similarity,
		})
	}
	accuracy := 1.0
	if len(bothNonNull) > 0 {
		accuracy = accuracySum / float64(len(bothNonNull))
	}

	res := Result{
		Completeness: completeness,
		Hallucination: hallucination,
		Accuracy:      accuracy,
		FieldScores:   fieldScores,
	}

	// Phase 4 — safety (optional).
	safetyScore := 1.0
	if cfg.EnableSafety {
		serialized := serializeCanonical(aio)
		s, tox, _ := metrics.Safety(ctx, gateway, serialized)
		safetyScore = s
		res.SafetyScore = &s
		res.Toxicity = &tox
	}

	res.RQS = clamp01(
		cfg.Weights.Accuracy*accuracy +
			cfg.Weights.Completeness*completeness +
			cfg.Weights.Safety*safetyScore -
			cfg.Weights.Hallucination*hallucination,
	)
	return res
}

func ignoredKeys(strategies evalmodel.FieldStrategyMap) map[string]bool {
	out := map[string]bool{}
	for k, s := range strategies {
		if s == evalmodel.StrategyIgnore {
			out[k] = true
		}
	}
	return out
}

func scoreField(ctx context.Context, gateway *llmgateway.Gateway, strategy evalmodel.Strategy, gtVal, aioVal any, cfg Config) (score, similarity float64) {
	switch strategy {
	case evalmodel.StrategyIgnore:
		return 1, 1
	case evalmodel.StrategyExact:
		if exactEqual(gtVal, aioVal) {
			return 1, 1
		}
		return 0, 0
	case evalmodel.StrategyFuzzy:
		sim := metrics.FuzzyMatch(ctx, gateway, stringify(gtVal), stringify(aioVal))
		if sim >= cfg.FuzzyThreshold {
			return 1, sim
		}
		return 0, sim
	case evalmodel.StrategySemantic:
		sim := metrics.SemanticMatch(ctx, gateway, stringify(gtVal), stringify(aioVal))
		if sim >= cfg.SemanticThreshold {
			return 1, sim
		}
		return 0, sim
	default:
		return 0, 0
	}
}

// exactEqual compares structural values via canonical (sorted-key) JSON
// and scalars via trimmed, lowercased string comparison.
func exactEqual(a, b any) bool {
	switch a.(type) {
	case map[string]any, []any:
		return serializeCanonical(a) == serializeCanonical(b)
	}
	switch b.(type) {
	case map[string]any, []any:
		return serializeCanonical(a) == serializeCanonical(b)
	}
	return strings.TrimSpace(strings.ToLower(stringify(a))) == strings.TrimSpace(strings.ToLower(stringify(b)))
}

func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return ""
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// serializeCanonical renders v as JSON with map keys sorted, matching
// the "canonical JSON" comparator the spec calls for. encoding/json
// already sorts map[string]any keys, which covers the common case; for
// deeply nested inputs this is sufficient since every nested map is
// itself map[string]any after a standard json.Unmarshal.
func serializeCanonical(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
