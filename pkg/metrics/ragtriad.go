package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nextgen10/evalctl/pkg/config"
	"github.com/nextgen10/evalctl/pkg/evalmodel"
	"github.com/nextgen10/evalctl/pkg/promptregistry"
)

// RagTriadInput is one row submitted to the batch RAG-triad worker.
type RagTriadInput struct {
	Query       string
	Answer      string
	Contexts    []string
	GroundTruth string
	HasGT       bool
}

// RagTriadBackend is the JSON-completion dependency of the batch worker.
type RagTriadBackend interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt, model string, temperature float64, maxTokens int) (map[string]any, error)
}

type ragRowResult struct {
	Faithfulness      float64 `json:"faithfulness"`
	AnswerRelevancy   float64 `json:"answer_relevancy"`
	ContextPrecision  float64 `json:"context_precision"`
	ContextRecall     float64 `json:"context_recall"`
	AnswerCorrectness float64 `json:"answer_correctness"`
}

// RagTriadBatch grades a batch of rows in a single LLM call, applying
// the per-row correction rules from the original evaluator: empty
// context zeros out context_precision/context_recall, missing ground
// truth zeros out context_recall/answer_correctness. Returns one
// MetricBundle per input row, in order. RQS and FailureMode are left
// unset — callers combine these with toxicity and composite weights
// (pkg/tabular owns that final assembly).
func RagTriadBatch(ctx context.Context, backend RagTriadBackend, prompts *promptregistry.Registry, rows []RagTriadInput) ([]evalmodel.MetricBundle, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	entry, ok := prompts.Get("ragtriad")
	if !ok {
		return nil, fmt.Errorf("metrics: ragtriad prompt not registered")
	}

	var b strings.Builder
	for i, r := range rows {
		fmt.Fprintf(&b, "Item %d:\nQuery: %s\nAnswer: %s\nContext:\n", i+1, r.Query, r.Answer)
		for _, c := range r.Contexts {
			b.WriteString("- ")
			b.WriteString(c)
			b.WriteString("\n")
		}
		if r.HasGT {
			fmt.Fprintf(&b, "Ground truth: %s\n", r.GroundTruth)
		}
		b.WriteString("\n")
	}

	userMsg := promptregistry.Render(entry.UserMessageTemplate, map[string]string{"items": b.String()})
	raw, err := backend.CompleteJSON(ctx, entry.SystemMessage, userMsg, entry.Model, entry.Temperature, entry.MaxTokens)
	if err != nil {
		return zeroedBundles(rows), nil
	}

	resultsRaw, ok := raw["results"]
	if !ok {
		return zeroedBundles(rows), nil
	}
	encoded, err := json.Marshal(resultsRaw)
	if err != nil {
		return zeroedBundles(rows), nil
	}
	var parsed []ragRowResult
	if err := json.Unmarshal(encoded, &parsed); err != nil || len(parsed) != len(rows) {
		return zeroedBundles(rows), nil
	}

	out := make([]evalmodel.MetricBundle, len(rows))
	for i, r := range rows {
		p := parsed[i]
		isEmptyCtx := isEmptyContext(r.Contexts)
		bundle := evalmodel.MetricBundle{
			Faithfulness:    clampFloat(p.Faithfulness),
			AnswerRelevancy: clampFloat(p.AnswerRelevancy),
			ContextLength:   contextCharLen(r.Contexts) / 4,
			AnswerLength:    len(r.Answer) / 4,
			EmptyContext:    isEmptyCtx,
			EmptyAnswer:     strings.TrimSpace(r.Answer) == "",
		}
		if !isEmptyCtx {
			bundle.ContextPrecision = clampFloat(p.ContextPrecision)
		}
		if r.HasGT {
			if !isEmptyCtx {
				bundle.ContextRecall = clampFloat(p.ContextRecall)
			}
			bundle.AnswerCorrectness = clampFloat(p.AnswerCorrectness)
		}
		out[i] = bundle
	}
	return out, nil
}

func zeroedBundles(rows []RagTriadInput) []evalmodel.MetricBundle {
	out := make([]evalmodel.MetricBundle, len(rows))
	for i, r := range rows {
		out[i] = evalmodel.MetricBundle{
			ContextLength: contextCharLen(r.Contexts) / 4,
			AnswerLength:  len(r.Answer) / 4,
			EmptyContext:  isEmptyContext(r.Contexts),
			EmptyAnswer:   strings.TrimSpace(r.Answer) == "",
		}
	}
	return out
}

func isEmptyContext(ctxs []string) bool {
	if len(ctxs) == 0 {
		return true
	}
	for _, c := range ctxs {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func contextCharLen(ctxs []string) int {
	total := 0
	for _, c := range ctxs {
		total += len(c)
	}
	return total
}

func clampFloat(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// ClassifyFailure labels a RAG-triad result's dominant failure mode,
// replicating the original evaluator's priority order exactly: retrieval
// failure first, then hallucination, then low quality; multiple modes
// join with " | "; none of them firing is reported as "OK".
func ClassifyFailure(m evalmodel.MetricBundle, t config.Thresholds) string {
	cr := metricThreshold(t, "context_recall")
	cp := metricThreshold(t, "context_precision")
	f := metricThreshold(t, "faithfulness")
	ar := metricThreshold(t, "answer_relevancy")
	ac := metricThreshold(t, "answer_correctness")

	var modes []string
	if m.ContextRecall < cr && m.ContextPrecision < cp {
		modes = append(modes, "Retrieval Failure")
	}
	if m.Faithfulness < f {
		modes = append(modes, "Hallucination")
	}
	if m.AnswerRelevancy < ar || m.AnswerCorrectness < ac {
		modes = append(modes, "Low Quality")
	}
	if len(modes) == 0 {
		return "OK"
	}
	return strings.Join(modes, " | ")
}

func metricThreshold(t config.Thresholds, metric string) float64 {
	if v, ok := t.MetricThresholds[metric]; ok {
		return v
	}
	return 0.3
}

// retrievalWeight is the fixed per-metric weight applied to
// context_precision and context_recall in CalculateRQS. Unlike
// alpha/beta/gamma these are not operator-tunable (spec.md §4.7).
const retrievalWeight = 0.075

// CalculateRQS computes the per-row quality score as the 5-term weighted
// sum alpha*answer_correctness + beta*faithfulness + gamma*answer_relevancy
// + 0.075*context_precision + 0.075*context_recall. alpha/beta/gamma are
// the operator-tunable weights on answer_correctness/faithfulness/
// answer_relevancy; the two retrieval terms stay fixed at 0.075 each.
func CalculateRQS(m evalmodel.MetricBundle, w config.CompositeWeights) float64 {
	return clampFloat(
		w.Alpha*m.AnswerCorrectness +
			w.Beta*m.Faithfulness +
			w.Gamma*m.AnswerRelevancy +
			retrievalWeight*m.ContextPrecision +
			retrievalWeight*m.ContextRecall,
	)
}
