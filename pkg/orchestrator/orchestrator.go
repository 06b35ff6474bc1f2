// Package orchestrator is the top-level coordinator: tenant gating, run
// identifier assignment, dispatch to the JSON or Tabular evaluator,
// per-query aggregation, weighted-composite scoring, PASS/FAIL
// thresholding, and event emission (spec.md §4.8, grounded on
// original_source/backend/agents/orchestrator_agent.py).
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/nextgen10/evalctl/pkg/config"
	"github.com/nextgen10/evalctl/pkg/eventbus"
	"github.com/nextgen10/evalctl/pkg/evalmodel"
	"github.com/nextgen10/evalctl/pkg/llmgateway"
	"github.com/nextgen10/evalctl/pkg/metrics"
	"github.com/nextgen10/evalctl/pkg/promptregistry"
	"github.com/nextgen10/evalctl/pkg/store"
)

const maxBatchSize = 500

// GroundTruthItem is one already-normalized ground-truth record.
type GroundTruthItem struct {
	QueryID        string
	ExpectedOutput string // plain text, or a JSON-encoded object when MatchType == "json"
	MatchType      string // EXACT | FUZZY | SEMANTIC | IGNORE | json
	ExpectedType   evalmodel.ExpectedType
	SourceField    string
}

// AIOutputItem is one already-normalized candidate output record. The
// same QueryID may appear across several RunIDs, representing repeated
// runs of the same query.
type AIOutputItem struct {
	QueryID      string
	ActualOutput string
	RunID        string
}

// RunConfig carries every per-run tunable the orchestrator's single-test
// and JSON paths need.
type RunConfig struct {
	Thresholds          config.Thresholds
	Weights             config.Weights
	CompositeWeights    config.CompositeWeights
	EnableSafety        bool
	AggregateRunMetrics bool
	LLMModel            string
	FieldStrategies     evalmodel.FieldStrategyMap
}

// QueryOutcome aggregates every output recorded for one query_id.
type QueryOutcome struct {
	Outputs     []evalmodel.OutputDetail
	NRuns       int
	AvgAccuracy float64
	Consistency float64
}

// RunResult is the full persisted-shape result of one orchestrator
// invocation.
type RunResult struct {
	RunID               string
	PerQuery            map[string]QueryOutcome
	AccuracyPerQuery     map[string]float64
	ConsistencyPerQuery map[string]float64
	Aggregate           Aggregate
	ErrorSummary        map[string]int
	EvaluationStatus    string // PASS | FAIL
	FailReasons         []string
	EvaluationMethod    string // JSON | Batch | Unknown
}

// Aggregate holds the run-wide averages used for PASS/FAIL thresholding.
type Aggregate struct {
	AvgAccuracy                float64
	AvgConsistency             float64
	AvgCompleteness            float64
	AvgHallucination           float64 // json_hallucination_share, averaged
	AvgSafety                  float64
	AvgRQS                     float64
	AggregateHallucinationRate float64 // distinct quantity: count(hallucinated)/count(outputs)
}

// Orchestrator wires together the collaborators needed to run an
// evaluation and persist its outcome.
type Orchestrator struct {
	gateway *llmgateway.Gateway
	prompts *promptregistry.Registry
	store   *store.Store
	bus     *eventbus.Bus
}

func New(gateway *llmgateway.Gateway, prompts *promptregistry.Registry, st *store.Store, bus *eventbus.Bus) *Orchestrator {
	return &Orchestrator{gateway: gateway, prompts: prompts, store: st, bus: bus}
}

// RunJSONEvaluation implements the run-json-evaluation mode: already
// normalized GT/AIO arrays, the single-test dispatch path per output,
// per-query aggregation across repeated runs, and PASS/FAIL
// thresholding.
func (o *Orchestrator) RunJSONEvaluation(ctx context.Context, tenantID string, gts []GroundTruthItem, aios []AIOutputItem, cfg RunConfig) (*RunResult, error) {
	if len(aios) > maxBatchSize {
		return nil, fmt.Errorf("%w: %d outputs exceeds cap of %d", ErrValidation, len(aios), maxBatchSize)
	}

	runID := uuid.NewString()
	var events []evalmodel.ProgressEvent
	emit := func(status, msg string, details map[string]any) {
		ev := evalmodel.ProgressEvent{AgentName: "orchestrator", Status: status, Message: msg, Timestamp: nowFunc(), Details: details}
		events = append(events, ev)
		if o.bus != nil {
			o.bus.Publish(tenantID, ev)
		}
	}
	emit("working", "starting evaluation run", map[string]any{"run_id": runID})

	gtByQuery := map[string]GroundTruthItem{}
	for _, g := range gts {
		gtByQuery[g.QueryID] = g
	}
	byQuery := map[string][]AIOutputItem{}
	for _, a := range aios {
		byQuery[a.QueryID] = append(byQuery[a.QueryID], a)
	}

	perQuery := map[string]QueryOutcome{}
	accuracyPerQuery := map[string]float64{}
	consistencyPerQuery := map[string]float64{}
	errorSummary := map[string]int{"correct": 0, "hallucination": 0}

	var allAccuracy, allCompleteness, allHallucination, allSafety, allRQS []float64
	hallucinatedCount, totalOutputs := 0, 0

	for queryID, outputs := range byQuery {
		gt, found := gtByQuery[queryID]
		var texts []string
		var details []evalmodel.OutputDetail

		for _, out := range outputs {
			detail := o.runSingleTest(ctx, queryID, out, gt, found, cfg)
			details = append(details, detail)
			texts = append(texts, out.ActualOutput)

			allAccuracy = append(allAccuracy, detail.Accuracy)
			allCompleteness = append(allCompleteness, detail.Completeness)
			allHallucination = append(allHallucination, detail.Hallucination)
			allRQS = append(allRQS, detail.RQS)
			if detail.SafetyScore != nil {
				allSafety = append(allSafety, *detail.SafetyScore)
			}
			totalOutputs++
			if detail.ErrorType == "hallucination" {
				hallucinatedCount++
			}
			errorSummary[detail.ErrorType]++
		}

		avgAcc := mean(accuraciesOf(details))
		consistency := metrics.Consistency(ctx, o.gateway, o.prompts, texts)

		perQuery[queryID] = QueryOutcome{Outputs: details, NRuns: len(details), AvgAccuracy: avgAcc, Consistency: consistency}
		accuracyPerQuery[queryID] = avgAcc
		consistencyPerQuery[queryID] = consistency
	}

	if cfg.AggregateRunMetrics && cfg.EnableSafety {
		allSafety = o.backfillRunLevelSafety(ctx, perQuery)
	}

	agg := Aggregate{
		AvgAccuracy:      mean(allAccuracy),
		AvgCompleteness:  mean(allCompleteness),
		AvgHallucination: mean(allHallucination),
		AvgSafety:        meanOrOne(allSafety),
		AvgRQS:           mean(allRQS),
	}
	if totalOutputs > 0 {
		agg.AggregateHallucinationRate = float64(hallucinatedCount) / float64(totalOutputs)
	}
	var consList []float64
	for _, v := range consistencyPerQuery {
		consList = append(consList, v)
	}
	agg.AvgConsistency = meanOrOne(consList)

	status, reasons := evaluatePassFail(agg, cfg.Thresholds)

	result := &RunResult{
		RunID:               runID,
		PerQuery:            perQuery,
		AccuracyPerQuery:    accuracyPerQuery,
		ConsistencyPerQuery: consistencyPerQuery,
		Aggregate:           agg,
		ErrorSummary:        errorSummary,
		EvaluationStatus:    status,
		FailReasons:         reasons,
		EvaluationMethod:    "JSON",
	}

	emit("completed", "evaluation run finished", map[string]any{"status": status})

	if err := o.persist(ctx, tenantID, runID, result, events); err != nil {
		emit("failed", "failed to persist run", map[string]any{"error": err.Error()})
		return result, fmt.Errorf("orchestrator: persisting run: %w", err)
	}
	return result, nil
}

func evaluatePassFail(agg Aggregate, t config.Thresholds) (string, []string) {
	var reasons []string
	if agg.AvgAccuracy < t.Accuracy {
		reasons = append(reasons, fmt.Sprintf("accuracy %.3f below threshold %.3f", agg.AvgAccuracy, t.Accuracy))
	}
	if agg.AvgConsistency < t.Consistency {
		reasons = append(reasons, fmt.Sprintf("consistency %.3f below threshold %.3f", agg.AvgConsistency, t.Consistency))
	}
	if agg.AggregateHallucinationRate > t.Hallucination {
		reasons = append(reasons, fmt.Sprintf("hallucination rate %.3f above threshold %.3f", agg.AggregateHallucinationRate, t.Hallucination))
	}
	if agg.AvgRQS < t.RQS {
		reasons = append(reasons, fmt.Sprintf("RQS %.3f below threshold %.3f", agg.AvgRQS, t.RQS))
	}
	if len(reasons) > 0 {
		return "FAIL", reasons
	}
	return "PASS", nil
}

func (o *Orchestrator) persist(ctx context.Context, tenantID, runID string, result *RunResult, events []evalmodel.ProgressEvent) error {
	store.SanitizeFloatsDeep(result)
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	eventLogJSON, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("marshal event log: %w", err)
	}
	run := evalmodel.EvaluationRun{
		RunID:        runID,
		TenantID:     tenantID,
		CreatedAt:    nowFunc(),
		ResultJSON:   string(resultJSON),
		EventLogJSON: string(eventLogJSON),
	}
	return o.store.InsertRun(ctx, run)
}

func accuraciesOf(details []evalmodel.OutputDetail) []float64 {
	out := make([]float64, len(details))
	for i, d := range details {
		out[i] = d.Accuracy
	}
	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// meanOrOne defaults to 1.0 on an empty slice, matching the spec's
// "nothing to disagree about" convention for consistency/safety when no
// rows contributed a value.
func meanOrOne(xs []float64) float64 {
	if len(xs) == 0 {
		return 1.0
	}
	return mean(xs)
}
