// Package tabular implements the RAG-triad grader over a dataset of
// (query, per-bot answer, per-bot contexts, optional ground-truth) rows,
// run in parallel across bots with per-bot failure isolation (spec.md
// §4.7, grounded on original_source/Utility/rag_eval_standalone.py's
// StandaloneRagEvaluator).
package tabular

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/nextgen10/evalctl/pkg/config"
	"github.com/nextgen10/evalctl/pkg/evalcache"
	"github.com/nextgen10/evalctl/pkg/evalmodel"
	"github.com/nextgen10/evalctl/pkg/llmgateway"
	"github.com/nextgen10/evalctl/pkg/metrics"
	"github.com/nextgen10/evalctl/pkg/promptregistry"
)

// Dataset is the normalized input to Evaluate: one row per test case,
// with per-bot answers/contexts already resolved.
type Dataset struct {
	Cases  []evalmodel.TestCase
	BotIDs []string
}

// Summary is one bot's aggregate across all rows.
type Summary struct {
	BotID             string
	AvgRQS            float64
	StdRQS            float64
	AvgFaithfulness   float64
	AvgAnswerRelevancy float64
	AvgContextPrecision float64
	AvgContextRecall  float64
	AvgAnswerCorrectness float64
	TotalQueries      int
	ToxicQueries      int
	RetrievalFailures int
	Hallucinations    int
	LowQuality        int
	EmptyContexts     int
	EmptyAnswers      int
}

// Result is the full output of Evaluate.
type Result struct {
	BotMetrics      map[string][]evalmodel.MetricBundle // bot id -> per-row bundles, input-row order
	Summaries       map[string]Summary
	Leaderboard     []Summary // sorted by AvgRQS descending
	Winner          string    // empty if no bot succeeded
	ToxicityScores  []float64 // per-row, dataset order
	HasGroundTruth  bool
}

// Deps bundles the collaborators the tabular evaluator needs.
type Deps struct {
	Gateway               *llmgateway.Gateway
	Prompts               *promptregistry.Registry
	Cache                 *evalcache.Cache
	Weights               config.CompositeWeights
	Thresh                config.Thresholds
	MaxBots               int
	RagBatch              int
	Model                 string
	EnableRecommendations bool
}

// Evaluate runs the tabular pipeline end to end.
func Evaluate(ctx context.Context, deps Deps, ds Dataset) Result {
	hasGT := false
	for _, c := range ds.Cases {
		if c.GroundTruth != nil && strings.TrimSpace(*c.GroundTruth) != "" {
			hasGT = true
			break
		}
	}

	toxicity := scoreDatasetToxicity(ctx, deps, ds)

	type botOutcome struct {
		botID   string
		bundles []evalmodel.MetricBundle
		err     error
	}

	outcomes := make([]botOutcome, len(ds.BotIDs))
	maxBots := deps.MaxBots
	if maxBots <= 0 {
		maxBots = 2
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxBots)
	for i, botID := range ds.BotIDs {
		i, botID := i, botID
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("tabular: bot worker panicked, isolating", "bot_id", botID, "panic", r)
					outcomes[i] = botOutcome{botID: botID, err: errIsolated}
				}
			}()
			bundles, berr := evaluateBot(gctx, deps, ds, botID, hasGT, toxicity)
			if berr != nil {
				slog.Error("tabular: bot evaluation failed, isolating", "bot_id", botID, "error", berr)
				outcomes[i] = botOutcome{botID: botID, err: berr}
				return nil // never abort sibling bots
			}
			outcomes[i] = botOutcome{botID: botID, bundles: bundles}
			return nil
		})
	}
	_ = g.Wait()

	res := Result{
		BotMetrics:     map[string][]evalmodel.MetricBundle{},
		Summaries:      map[string]Summary{},
		ToxicityScores: toxicity,
		HasGroundTruth: hasGT,
	}
	for _, o := range outcomes {
		if o.err != nil {
			continue
		}
		res.BotMetrics[o.botID] = o.bundles
		res.Summaries[o.botID] = summarize(o.botID, o.bundles, toxicity, deps.Thresh)
	}

	if deps.EnableRecommendations {
		generateRecommendations(ctx, deps, ds, &res)
	}

	for _, s := range res.Summaries {
		res.Leaderboard = append(res.Leaderboard, s)
	}
	sort.Slice(res.Leaderboard, func(i, j int) bool { return res.Leaderboard[i].AvgRQS > res.Leaderboard[j].AvgRQS })
	if len(res.Leaderboard) > 0 {
		res.Winner = res.Leaderboard[0].BotID
	}
	return res
}

var errIsolated = errIsolatedType{}

type errIsolatedType struct{}

func (errIsolatedType) Error() string { return "tabular: bot worker panicked" }

func scoreDatasetToxicity(ctx context.Context, deps Deps, ds Dataset) []float64 {
	const batchSize = 10
	scores := make([]float64, len(ds.Cases))
	for start := 0; start < len(ds.Cases); start += batchSize {
		end := start + batchSize
		if end > len(ds.Cases) {
			end = len(ds.Cases)
		}
		for i := start; i < end; i++ {
			res := deps.Gateway.Toxicity(ctx, ds.Cases[i].Query)
			scores[i] = res.Toxicity
		}
	}
	return scores
}

func evaluateBot(ctx context.Context, deps Deps, ds Dataset, botID string, hasGT bool, toxicity []float64) ([]evalmodel.MetricBundle, error) {
	bundles := make([]evalmodel.MetricBundle, len(ds.Cases))
	fingerprints := make([]string, len(ds.Cases))
	hit := make([]bool, len(ds.Cases))
	var missRows []metrics.RagTriadInput
	var missIdx []int

	for i, c := range ds.Cases {
		answer := c.BotAnswers[botID]
		contexts := c.BotContexts[botID]
		gt := ""
		rowHasGT := false
		if c.GroundTruth != nil && strings.TrimSpace(*c.GroundTruth) != "" {
			gt = *c.GroundTruth
			rowHasGT = true
		}

		fp := evalcache.Fingerprint(c.Query, answer, contexts, gt, deps.Model, 0)
		fingerprints[i] = fp
		if cached, ok := deps.Cache.Get(fp); ok {
			bundles[i] = cached
			hit[i] = true
			continue
		}
		missRows = append(missRows, metrics.RagTriadInput{
			Query: c.Query, Answer: answer, Contexts: contexts, GroundTruth: gt, HasGT: rowHasGT,
		})
		missIdx = append(missIdx, i)
	}

	if len(missRows) > 0 {
		fresh, err := metrics.RagTriadBatch(ctx, deps.Gateway, deps.Prompts, missRows)
		if err != nil {
			return nil, err
		}
		for j, idx := range missIdx {
			bundles[idx] = fresh[j]
		}
	}

	for i := range bundles {
		m := &bundles[i]
		m.InputToxicity = toxicity[i]
		m.RQS = metrics.CalculateRQS(*m, deps.Weights)
		m.FailureMode = metrics.ClassifyFailure(*m, deps.Thresh)
		if !hit[i] {
			deps.Cache.Put(fingerprints[i], *m)
		}
	}
	return bundles, nil
}

// generateRecommendations requests one LLM-authored improvement
// suggestion per (case, bot) pair that produced a bundle, in case-major
// bot-minor order, matching the original evaluator's rec_cases
// construction. Failures degrade to a fallback string per row rather
// than failing the run.
func generateRecommendations(ctx context.Context, deps Deps, ds Dataset, res *Result) {
	type slot struct {
		botID string
		idx   int
	}
	var inputs []metrics.RecommendationInput
	var slots []slot

	for caseIdx, c := range ds.Cases {
		for _, botID := range ds.BotIDs {
			bundles, ok := res.BotMetrics[botID]
			if !ok || caseIdx >= len(bundles) {
				continue
			}
			m := bundles[caseIdx]
			inputs = append(inputs, metrics.RecommendationInput{
				Query: c.Query, Response: c.BotAnswers[botID], FailureMode: m.FailureMode,
				RQS: m.RQS, Faithfulness: m.Faithfulness, AnswerRelevancy: m.AnswerRelevancy,
				ContextPrecision: m.ContextPrecision, ContextRecall: m.ContextRecall,
				EmptyContext: m.EmptyContext, EmptyAnswer: m.EmptyAnswer,
			})
			slots = append(slots, slot{botID: botID, idx: caseIdx})
		}
	}
	if len(inputs) == 0 {
		return
	}

	recs, err := metrics.GenerateRecommendations(ctx, deps.Gateway, deps.Prompts, inputs)
	if err != nil {
		slog.Warn("tabular: recommendation generation unavailable", "error", err)
		return
	}
	for i, s := range slots {
		if i >= len(recs) {
			break
		}
		res.BotMetrics[s.botID][s.idx].Recommendation = recs[i]
	}
}

func summarize(botID string, bundles []evalmodel.MetricBundle, toxicity []float64, thresh config.Thresholds) Summary {
	s := Summary{BotID: botID, TotalQueries: len(bundles)}
	if len(bundles) == 0 {
		return s
	}
	var rqsValues []float64
	for i, m := range bundles {
		s.AvgFaithfulness += m.Faithfulness
		s.AvgAnswerRelevancy += m.AnswerRelevancy
		s.AvgContextPrecision += m.ContextPrecision
		s.AvgContextRecall += m.ContextRecall
		s.AvgAnswerCorrectness += m.AnswerCorrectness
		rqsValues = append(rqsValues, m.RQS)
		s.AvgRQS += m.RQS

		if i < len(toxicity) && toxicity[i] >= thresh.MetricThresholds["toxicity"] && toxicity[i] > 0 {
			s.ToxicQueries++
		}
		if strings.Contains(m.FailureMode, "Retrieval Failure") {
			s.RetrievalFailures++
		}
		if strings.Contains(m.FailureMode, "Hallucination") {
			s.Hallucinations++
		}
		if strings.Contains(m.FailureMode, "Low Quality") {
			s.LowQuality++
		}
		if m.EmptyContext {
			s.EmptyContexts++
		}
		if m.EmptyAnswer {
			s.EmptyAnswers++
		}
	}
	n := float64(len(bundles))
	s.AvgFaithfulness /= n
	s.AvgAnswerRelevancy /= n
	s.AvgContextPrecision /= n
	s.AvgContextRecall /= n
	s.AvgAnswerCorrectness /= n
	s.AvgRQS /= n

	var variance float64
	for _, v := range rqsValues {
		d := v - s.AvgRQS
		variance += d * d
	}
	variance /= n
	s.StdRQS = math.Sqrt(variance)
	return s
}
