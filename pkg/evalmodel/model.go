// Package evalmodel defines the shared data types passed between the
// orchestrator, the evaluators, and the persistence store.
package evalmodel

import "time"

// ExpectedType tags the shape a ground-truth value is expected to take,
// driving type-aware normalization in the exact-match worker.
type ExpectedType string

const (
	ExpectedText   ExpectedType = "text"
	ExpectedNumber ExpectedType = "number"
	ExpectedEmail  ExpectedType = "email"
	ExpectedDate   ExpectedType = "date"
	ExpectedJSON   ExpectedType = "json"
	ExpectedExact  ExpectedType = "exact"
)

// Strategy is a field-match resolution outcome.
type Strategy string

const (
	StrategyExact    Strategy = "EXACT"
	StrategyFuzzy    Strategy = "FUZZY"
	StrategySemantic Strategy = "SEMANTIC"
	StrategyIgnore   Strategy = "IGNORE"
)

// FieldStrategyMap maps a flattened key path to an explicit strategy.
// Unlisted keys fall back to type inference (pkg/fieldmatch).
type FieldStrategyMap map[string]Strategy

// TestCase is one query in a dataset: immutable once the dataset loads.
type TestCase struct {
	ID          string
	Query       string
	GroundTruth *string
	GTType      ExpectedType
	BotAnswers  map[string]string   // bot id -> candidate answer
	BotContexts map[string][]string // bot id -> ordered context chunks
}

// MetricBundle is the RAG-triad result for one (bot, test case) pair.
type MetricBundle struct {
	Faithfulness      float64
	AnswerRelevancy   float64
	ContextPrecision  float64
	ContextRecall     float64
	AnswerCorrectness float64
	InputToxicity     float64
	RQS               float64

	ContextLength int
	AnswerLength  int
	EmptyContext  bool
	EmptyAnswer   bool
	FailureMode   string

	// Recommendation is an LLM-authored, one-to-two sentence suggestion
	// for improving this response; empty when recommendations weren't
	// requested for the run.
	Recommendation string
}

// FieldScore is one field's contribution to a JSON-evaluation accuracy pass.
type FieldScore struct {
	FieldName    string
	FieldType    string
	GTValue      any
	AIOValue     any
	MatchType    Strategy
	Score        float64
	Similarity   float64
}

// OutputDetail describes one evaluation of one candidate answer against
// one ground-truth key (the agent-style, non-tabular evaluation path).
type OutputDetail struct {
	QueryID string
	RunID   string

	MatchType string // EXACT | FUZZY | SEMANTIC | IGNORE | json
	Accuracy  float64

	Raw      string
	Expected string

	SemanticScore float64
	SafetyScore   *float64
	Toxicity      *float64

	Completeness  float64
	Hallucination float64
	RQS           float64

	FieldScores []FieldScore

	ErrorType string // "correct" | "hallucination"
}

// EvaluationRun is the append-only persisted record of one orchestrator
// invocation.
type EvaluationRun struct {
	ID               int64
	RunID            string
	TenantID         string
	CreatedAt        time.Time
	ResultJSON       string
	EventLogJSON     string
	SourceDescriptor *string
}

// Tenant is an isolated namespace owning its evaluation history and event
// stream, identified by an opaque bearer key.
type Tenant struct {
	TenantID    string
	DisplayName string
	Email       string
	APIKeyHash  string
	IsActive    bool
	CreatedAt   time.Time
}

// Feedback is one user-submitted rating/suggestion against a persisted run.
type Feedback struct {
	ID               int64
	FeedbackID       string
	TenantID         string
	CreatedAt        time.Time
	Rating           int
	Suggestion       string
	AdminResponse    *string
	AdminRespondedAt *time.Time
}

// ProgressEvent is one item on the tenant-scoped event stream.
type ProgressEvent struct {
	AgentName string         `json:"agent_name"`
	Status    string         `json:"status"` // idle | working | completed | failed
	Message   string         `json:"message"`
	Timestamp time.Time      `json:"timestamp"`
	Details   map[string]any `json:"details,omitempty"`
}
