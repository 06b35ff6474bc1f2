// Package llmgateway is the thin adapter over upstream chat-completion
// providers exposing the three capabilities the rest of the evaluator
// needs: JSON-structured chat completion, similarity scoring, and
// toxicity scoring. All upstream-specific endpoint/deployment variation
// lives here (spec.md §4.1).
package llmgateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/nextgen10/evalctl/pkg/config"
	"github.com/nextgen10/evalctl/pkg/promptregistry"
)

// Backend discriminates upstream wire protocols. Only one concrete value
// exists today (room left for more without requiring them, mirroring the
// teacher's config.LLMBackendNativeGemini/LLMBackendLangChain pattern).
type Backend string

const BackendOpenAICompatible Backend = "openai_compatible"

// LLMError is returned by CompleteJSON on upstream failure. Metric
// workers never see it directly — they catch it at their own boundary
// and fall back to a safe default (spec.md §4.1, §7 UpstreamError).
type LLMError struct {
	Provider string
	Err      error
}

func (e *LLMError) Error() string {
	return fmt.Sprintf("llm gateway: provider %q: %v", e.Provider, e.Err)
}

func (e *LLMError) Unwrap() error { return e.Err }

// ChatClient is the narrow interface the gateway needs from an upstream
// SDK client. go-openai's *openai.Client satisfies it; tests substitute a
// fake.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, model string, temperature float32, maxTokens int,
		systemMsg, userMsg string, jsonMode bool) (string, error)
}

// Gateway implements spec.md §4.1 against a configured ChatClient per
// named provider.
type Gateway struct {
	client   ChatClient
	prompts  *promptregistry.Registry
	provider config.LLMProviderConfig
}

// New constructs a Gateway backed by client, using provider for its
// default model/temperature/max-tokens and prompts for template lookup.
func New(client ChatClient, prompts *promptregistry.Registry, provider config.LLMProviderConfig) *Gateway {
	return &Gateway{client: client, prompts: prompts, provider: provider}
}

// CompleteJSON sends a system/user prompt pair and parses the response as
// a JSON object. Returns *LLMError on any upstream or parse failure —
// callers at the metric-worker boundary convert this to a safe default,
// never propagating it further (spec.md §4.1, §7).
func (g *Gateway) CompleteJSON(ctx context.Context, systemPrompt, userPrompt, model string, temperature float64, maxTokens int) (map[string]any, error) {
	if model == "" {
		model = g.provider.Model
	}
	raw, err := g.client.CreateChatCompletion(ctx, model, float32(temperature), maxTokens, systemPrompt, userPrompt, true)
	if err != nil {
		return nil, &LLMError{Provider: model, Err: err}
	}

	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		// Fallback: some backends ignore the JSON response-format hint and
		// wrap the object in prose; best-effort extract the outermost braces.
		if obj, ok := extractJSONObject(raw); ok {
			if err2 := json.Unmarshal([]byte(obj), &out); err2 == nil {
				return out, nil
			}
		}
		return nil, &LLMError{Provider: model, Err: fmt.Errorf("parse JSON response: %w", err)}
	}
	return out, nil
}

func extractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// SemanticSimilarity scores two text fragments using the named prompt
// template from the Prompt Registry, rendered with {text_a}/{text_b}
// substitutions. On any upstream failure, returns 0.0 and logs — never
// fails the caller (spec.md §4.1 failure policy).
func (g *Gateway) SemanticSimilarity(ctx context.Context, a, b string) float64 {
	return g.similarity(ctx, "semantic_similarity", a, b)
}

// FuzzySimilarity is identical to SemanticSimilarity but uses a prompt
// tuned for short-string comparisons.
func (g *Gateway) FuzzySimilarity(ctx context.Context, a, b string) float64 {
	return g.similarity(ctx, "fuzzy_similarity", a, b)
}

func (g *Gateway) similarity(ctx context.Context, promptKey, a, b string) float64 {
	entry, ok := g.prompts.Get(promptKey)
	if !ok {
		slog.Warn("llmgateway: prompt not found, falling back to zero similarity", "prompt_key", promptKey)
		return 0.0
	}
	userMsg := promptregistry.Render(entry.UserMessageTemplate, map[string]string{
		"text_a": a, "text_b": b,
	})
	result, err := g.CompleteJSON(ctx, entry.SystemMessage, userMsg, entry.Model, entry.Temperature, entry.MaxTokens)
	if err != nil {
		slog.Warn("llmgateway: similarity call failed, falling back to zero", "prompt_key", promptKey, "error", err)
		return 0.0
	}
	return clampScore(result["score"])
}

// ToxicityResult is the merged output of §4.1's toxicity operation.
type ToxicityResult struct {
	Toxicity float64
	Tone     string // professional | neutral | informal | problematic | unknown
	Issues   []string
}

// hostileKeywords drive the deterministic keyword scan (scanKeywords), the
// fallback/floor applied alongside the
// LLM's judgment, catching obvious hostility even when the LLM is
// lenient (grounded on original_source/backend/utils/toxicity_checker.py).
var hostileKeywords = []string{
	"idiot", "stupid", "hate", "dumb", "useless", "incompetent",
	"garbage", "trash", "retard", "moron",
}

// Toxicity scores a single text for toxicity, tone, and safety issues.
// The LLM output is merged with a deterministic keyword scan: the
// maximum of the two scores wins, issues union, and tone is promoted to
// "problematic" whenever the keyword scan fires (spec.md §4.1).
func (g *Gateway) Toxicity(ctx context.Context, text string) ToxicityResult {
	keywordScore, keywordIssues, keywordHit := scanKeywords(text)

	entry, ok := g.prompts.Get("toxicity")
	if !ok {
		slog.Warn("llmgateway: toxicity prompt not found, using keyword scan only")
		return mergeToxicity(0.0, "unknown", nil, keywordScore, keywordIssues, keywordHit)
	}
	userMsg := promptregistry.Render(entry.UserMessageTemplate, map[string]string{"text": truncate(text, 2000)})
	result, err := g.CompleteJSON(ctx, entry.SystemMessage, userMsg, entry.Model, entry.Temperature, entry.MaxTokens)
	if err != nil {
		slog.Warn("llmgateway: toxicity call failed, using keyword scan only", "error", err)
		return mergeToxicity(0.0, "unknown", nil, keywordScore, keywordIssues, keywordHit)
	}

	llmScore := clampScore(result["toxicity_score"])
	llmTone, _ := result["tone"].(string)
	if llmTone == "" {
		llmTone = "neutral"
	}
	var llmIssues []string
	if raw, ok := result["issues"].([]any); ok {
		for _, v := range raw {
			if s, ok := v.(string); ok {
				llmIssues = append(llmIssues, s)
			}
		}
	}
	return mergeToxicity(llmScore, llmTone, llmIssues, keywordScore, keywordIssues, keywordHit)
}

func scanKeywords(text string) (score float64, issues []string, hit bool) {
	lower := strings.ToLower(text)
	var found []string
	for _, kw := range hostileKeywords {
		if strings.Contains(lower, kw) {
			found = append(found, kw)
		}
	}
	if len(found) == 0 {
		return 0.0, nil, false
	}
	return 0.5, []string{fmt.Sprintf("found hostile language: %s", strings.Join(found, ", "))}, true
}

func mergeToxicity(llmScore float64, llmTone string, llmIssues []string, keywordScore float64, keywordIssues []string, keywordHit bool) ToxicityResult {
	score := math.Max(llmScore, keywordScore)
	tone := llmTone
	if keywordHit {
		tone = "problematic"
	}
	return ToxicityResult{
		Toxicity: score,
		Tone:     tone,
		Issues:   unionStrings(llmIssues, keywordIssues),
	}
}

func unionStrings(a, b []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(a)+len(b))
	for _, s := range append(append([]string{}, a...), b...) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// clampScore coerces any numeric-ish value to [0,1], mapping non-finite
// or unparsable values to 0.0 per spec.md §4.1.
func clampScore(v any) float64 {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case int:
		f = float64(val)
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return 0.0
		}
		f = parsed
	default:
		return 0.0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0.0
	}
	if f < 0 {
		return 0.0
	}
	if f > 1 {
		return 1.0
	}
	return f
}
