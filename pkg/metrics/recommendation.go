package metrics

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/nextgen10/evalctl/pkg/promptregistry"
)

// recommendationBatchSize mirrors the original evaluator's
// RECOMMENDATION_BATCH_SIZE: cases are grouped into chat-completion calls
// of this size to keep prompts small.
const recommendationBatchSize = 5

const fallbackRecommendation = "Review metrics and failure mode to identify improvement areas."

var caseLinePrefix = regexp.MustCompile(`(?i)^case\s+\d+:\s*`)

// RecommendationInput is one (query, response) pair with its RAG-triad
// verdict, submitted to GenerateRecommendations for an LLM-authored
// improvement suggestion (spec.md §4.2, grounded on
// original_source/Utility/rag_eval_standalone.py's generate_recommendations).
type RecommendationInput struct {
	Query             string
	Response          string
	FailureMode       string
	RQS               float64
	Faithfulness      float64
	AnswerRelevancy   float64
	ContextPrecision  float64
	ContextRecall     float64
	EmptyContext      bool
	EmptyAnswer       bool
}

// GenerateRecommendations produces one recommendation string per input
// row, batching requests to the backend recommendationBatchSize rows at
// a time. A batch that errors or whose response lacks a recommendations
// list degrades to fallbackRecommendation for every row in that batch; a
// short list, or a missing or empty entry, degrades only the affected
// rows. Neither case fails the whole run.
func GenerateRecommendations(ctx context.Context, backend RagTriadBackend, prompts *promptregistry.Registry, rows []RecommendationInput) ([]string, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	entry, ok := prompts.Get("recommendation")
	if !ok {
		return nil, fmt.Errorf("metrics: recommendation prompt not registered")
	}

	out := make([]string, 0, len(rows))
	for start := 0; start < len(rows); start += recommendationBatchSize {
		end := start + recommendationBatchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[start:end]
		out = append(out, recommendBatch(ctx, backend, entry, batch)...)
	}
	return out, nil
}

func recommendBatch(ctx context.Context, backend RagTriadBackend, entry promptregistry.Entry, batch []RecommendationInput) []string {
	var b strings.Builder
	for i, r := range batch {
		fmt.Fprintf(&b, "Case %d:\n", i+1)
		fmt.Fprintf(&b, "  Query: %s\n", truncate(r.Query, 150))
		fmt.Fprintf(&b, "  Response: %s\n", truncate(r.Response, 150))
		fmt.Fprintf(&b, "  Failure Mode: %s\n", r.FailureMode)
		fmt.Fprintf(&b, "  Metrics: RQS=%.2f, Faithfulness=%.2f, Answer Relevancy=%.2f, Context Precision=%.2f, Context Recall=%.2f\n",
			r.RQS, r.Faithfulness, r.AnswerRelevancy, r.ContextPrecision, r.ContextRecall)
		if r.EmptyContext {
			b.WriteString("  Context: EMPTY\n")
		}
		if r.EmptyAnswer {
			b.WriteString("  Answer: EMPTY\n")
		}
		b.WriteString("\n")
	}

	userMsg := promptregistry.Render(entry.UserMessageTemplate, map[string]string{"cases": b.String()})
	raw, err := backend.CompleteJSON(ctx, entry.SystemMessage, userMsg, entry.Model, entry.Temperature, entry.MaxTokens)
	if err != nil {
		return fillFallback(len(batch))
	}

	recsRaw, ok := raw["recommendations"].([]any)
	if !ok {
		return fillFallback(len(batch))
	}

	out := make([]string, len(batch))
	for i := range batch {
		if i >= len(recsRaw) {
			out[i] = fallbackRecommendation
			continue
		}
		s, ok := recsRaw[i].(string)
		s = caseLinePrefix.ReplaceAllString(strings.TrimSpace(s), "")
		if !ok || s == "" {
			out[i] = fallbackRecommendation
			continue
		}
		out[i] = s
	}
	return out
}

func fillFallback(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fallbackRecommendation
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
