package metrics

import (
	"context"
	"strconv"
	"strings"

	"github.com/nextgen10/evalctl/pkg/promptregistry"
)

// ConsistencyBackend is the JSON-completion dependency the consistency
// worker needs (prompt lookup is done here, not pushed into the caller).
type ConsistencyBackend interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt, model string, temperature float64, maxTokens int) (map[string]any, error)
}

// Consistency scores how mutually consistent a set of candidate
// responses are. With at most one response there is nothing to compare,
// so it trivially returns 1.0 without an LLM call; otherwise it issues a
// single LLM prompt over the full set (spec.md §4.3 — deliberately
// simpler than an embedding-similarity approach, since no embedding
// model is part of this stack).
func Consistency(ctx context.Context, backend ConsistencyBackend, prompts *promptregistry.Registry, outputs []string) float64 {
	if len(outputs) <= 1 {
		return 1.0
	}
	entry, ok := prompts.Get("consistency")
	if !ok {
		return 1.0
	}
	var b strings.Builder
	for i, o := range outputs {
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(". ")
		b.WriteString(o)
		b.WriteString("\n")
	}
	userMsg := promptregistry.Render(entry.UserMessageTemplate, map[string]string{"outputs": b.String()})
	result, err := backend.CompleteJSON(ctx, entry.SystemMessage, userMsg, entry.Model, entry.Temperature, entry.MaxTokens)
	if err != nil {
		return 1.0
	}
	return clamp01(result["score"])
}

func clamp01(v any) float64 {
	f, ok := v.(float64)
	if !ok {
		return 1.0
	}
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
