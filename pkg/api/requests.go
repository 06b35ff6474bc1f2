package api

import (
	"github.com/nextgen10/evalctl/pkg/evalmodel"
)

// groundTruthRequest mirrors spec.md §6's JSON-mode ground_truth entries.
type groundTruthRequest struct {
	QueryID        string `json:"query_id" binding:"required"`
	ExpectedOutput string `json:"expected_output"`
	MatchType      string `json:"match_type"`
	ExpectedType   string `json:"expected_type"`
	SourceField    string `json:"source_field"`
}

// aiOutputRequest mirrors spec.md §6's JSON-mode ai_outputs entries.
type aiOutputRequest struct {
	QueryID      string `json:"query_id" binding:"required"`
	ActualOutput string `json:"actual_output"`
	RunID        string `json:"run_id"`
}

// runConfigRequest carries the per-run overrides spec.md §6 lists:
// thresholds, weights, composite weights, enable_safety, llm_model_name,
// and field_strategies. Zero-valued fields fall back to server defaults.
type runConfigRequest struct {
	Thresholds          *thresholdsRequest          `json:"thresholds"`
	Weights             *weightsRequest             `json:"weights"`
	CompositeWeights    *compositeWeightsRequest    `json:"composite_weights"`
	EnableSafety        bool                        `json:"enable_safety"`
	AggregateRunMetrics bool                        `json:"aggregate_run_metrics"`
	LLMModelName        string                      `json:"llm_model_name"`
	FieldStrategies     evalmodel.FieldStrategyMap  `json:"field_strategies"`
}

type thresholdsRequest struct {
	Accuracy      *float64 `json:"accuracy"`
	Consistency   *float64 `json:"consistency"`
	Hallucination *float64 `json:"hallucination"`
	RQS           *float64 `json:"rqs"`
	Semantic      *float64 `json:"semantic"`
	Fuzzy         *float64 `json:"fuzzy"`
}

type weightsRequest struct {
	Accuracy      *float64 `json:"w_accuracy"`
	Completeness  *float64 `json:"w_completeness"`
	Hallucination *float64 `json:"w_hallucination"`
	Safety        *float64 `json:"w_safety"`
}

type compositeWeightsRequest struct {
	Alpha *float64 `json:"alpha"`
	Beta  *float64 `json:"beta"`
	Gamma *float64 `json:"gamma"`
}

// runJSONRequest is the full run-json-evaluation payload.
type runJSONRequest struct {
	GroundTruth []groundTruthRequest `json:"ground_truth" binding:"required"`
	AIOutputs   []aiOutputRequest    `json:"ai_outputs" binding:"required"`
	Config      runConfigRequest     `json:"config"`
}

// runFromPathsRequest is the file-path evaluation payload.
type runFromPathsRequest struct {
	GroundTruthPath string           `json:"ground_truth_path" binding:"required"`
	AIOutputsPath   string           `json:"ai_outputs_path" binding:"required"`
	Config          runConfigRequest `json:"config"`
}

// testCaseRequest is one already-normalized tabular row: tabular file
// parsing itself is an out-of-scope collaborator, so the API accepts
// pre-parsed rows directly (spec.md §1 Out of scope).
type testCaseRequest struct {
	ID          string              `json:"id" binding:"required"`
	Query       string              `json:"query"`
	GroundTruth *string             `json:"ground_truth"`
	GTType      string              `json:"gt_type"`
	BotAnswers  map[string]string   `json:"bot_answers"`
	BotContexts map[string][]string `json:"bot_contexts"`
}

type runTabularRequest struct {
	Rows   []testCaseRequest `json:"rows" binding:"required"`
	BotIDs []string          `json:"bot_ids"`
}

// jsonBatchCandidateRequest is one AI-output candidate graded against the
// shared ground truth in a runJSONBatchRequest.
type jsonBatchCandidateRequest struct {
	ID  string         `json:"id" binding:"required"`
	AIO map[string]any `json:"aio" binding:"required"`
}

// runJSONBatchRequest batch-grades multiple candidates against a single
// ground truth object (spec.md §4.7's ranking/variance enrichment
// supplement, `pkg/jsoneval.BatchEvaluate`).
type runJSONBatchRequest struct {
	GroundTruth map[string]any              `json:"ground_truth" binding:"required"`
	Candidates  []jsonBatchCandidateRequest `json:"candidates" binding:"required"`
	Config      runConfigRequest            `json:"config"`
}

type registerTenantRequest struct {
	DisplayName string `json:"display_name" binding:"required"`
	Email       string `json:"email"`
}

type feedbackRequest struct {
	Rating     int    `json:"rating" binding:"required"`
	Suggestion string `json:"suggestion"`
}
