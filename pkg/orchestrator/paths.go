package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nextgen10/evalctl/pkg/config"
)

// RunFromPaths implements the run-from-paths mode: resolves file or
// directory references under an allow-listed root, loads and merges
// their JSON contents, and delegates to RunJSONEvaluation (spec.md §4.8,
// §6 "File-path evaluation").
func (o *Orchestrator) RunFromPaths(ctx context.Context, tenantID string, gtPath, aioPath string, allowed config.AllowedPathRoots, cfg RunConfig) (*RunResult, error) {
	gtRaw, err := loadPathMerged(gtPath, allowed)
	if err != nil {
		return nil, fmt.Errorf("%w: ground truth path: %v", ErrValidation, err)
	}
	aioRaw, err := loadPathMerged(aioPath, allowed)
	if err != nil {
		return nil, fmt.Errorf("%w: ai output path: %v", ErrValidation, err)
	}

	gts, err := decodeGroundTruths(gtRaw)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding ground truth: %v", ErrValidation, err)
	}
	aios, err := decodeAIOutputs(aioRaw)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding ai outputs: %v", ErrValidation, err)
	}

	return o.RunJSONEvaluation(ctx, tenantID, gts, aios, cfg)
}

// loadPathMerged resolves path (file or directory) under one of the
// allowed roots, rejecting anything that resolves elsewhere. A directory
// of JSON files is merged: list contents are list-extended together.
func loadPathMerged(path string, allowed config.AllowedPathRoots) ([]byte, error) {
	resolved, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	if !underAllowedRoot(resolved, allowed.Roots) {
		return nil, fmt.Errorf("path %q is outside the allowed roots", path)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}
	if !info.IsDir() {
		return os.ReadFile(resolved)
	}

	entries, err := os.ReadDir(resolved)
	if err != nil {
		return nil, fmt.Errorf("reading directory: %w", err)
	}
	var merged []any
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(resolved, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", e.Name(), err)
		}
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", e.Name(), err)
		}
		if list, ok := v.([]any); ok {
			merged = append(merged, list...)
		} else {
			merged = append(merged, v)
		}
	}
	return json.Marshal(merged)
}

func underAllowedRoot(resolved string, roots []string) bool {
	if len(roots) == 0 {
		return false
	}
	for _, root := range roots {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(absRoot, resolved)
		if err != nil {
			continue
		}
		if rel == "." || (!strings.HasPrefix(rel, "..") && rel != "..") {
			return true
		}
	}
	return false
}

type rawGroundTruth struct {
	QueryID        string `json:"query_id"`
	ExpectedOutput string `json:"expected_output"`
	MatchType      string `json:"match_type"`
	SourceField    string `json:"source_field"`
}

type rawAIOutput struct {
	QueryID      string `json:"query_id"`
	ActualOutput string `json:"actual_output"`
	RunID        string `json:"run_id"`
}

func decodeGroundTruths(data []byte) ([]GroundTruthItem, error) {
	var raw []rawGroundTruth
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	out := make([]GroundTruthItem, len(raw))
	for i, r := range raw {
		matchType := r.MatchType
		if matchType == "" {
			matchType = "SEMANTIC"
		}
		out[i] = GroundTruthItem{
			QueryID: r.QueryID, ExpectedOutput: r.ExpectedOutput,
			MatchType: matchType, SourceField: r.SourceField,
		}
	}
	return out, nil
}

func decodeAIOutputs(data []byte) ([]AIOutputItem, error) {
	var raw []rawAIOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	out := make([]AIOutputItem, len(raw))
	for i, r := range raw {
		runID := r.RunID
		if runID == "" {
			runID = "default"
		}
		out[i] = AIOutputItem{QueryID: r.QueryID, ActualOutput: r.ActualOutput, RunID: runID}
	}
	return out, nil
}
