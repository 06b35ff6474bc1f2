package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/nextgen10/evalctl/pkg/evalcache"
	"github.com/nextgen10/evalctl/pkg/evalmodel"
	"github.com/nextgen10/evalctl/pkg/store"
	"github.com/nextgen10/evalctl/pkg/tabular"
)

// RunTabular implements the run-batch mode over a tabular RAG-triad
// dataset: dispatches to pkg/tabular, emits progress events, and
// persists the resulting leaderboard alongside the per-bot metrics.
func (o *Orchestrator) RunTabular(ctx context.Context, tenantID string, ds tabular.Dataset, deps tabular.Deps, cache *evalcache.Cache) (*tabular.Result, string, error) {
	if len(ds.Cases) > maxBatchSize {
		return nil, "", fmt.Errorf("%w: %d rows exceeds cap of %d", ErrValidation, len(ds.Cases), maxBatchSize)
	}

	runID := uuid.NewString()
	emit := func(status, msg string) {
		ev := evalmodel.ProgressEvent{AgentName: "tabular", Status: status, Message: msg, Timestamp: nowFunc()}
		if o.bus != nil {
			o.bus.Publish(tenantID, ev)
		}
	}
	emit("working", "starting tabular evaluation")

	deps.Cache = cache
	result := tabular.Evaluate(ctx, deps, ds)
	cache.Save()
	emit("completed", "tabular evaluation finished")

	store.SanitizeFloatsDeep(&result)
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return &result, runID, fmt.Errorf("marshal tabular result: %w", err)
	}
	run := evalmodel.EvaluationRun{
		RunID:        runID,
		TenantID:     tenantID,
		CreatedAt:    nowFunc(),
		ResultJSON:   string(resultJSON),
		EventLogJSON: "[]",
	}
	if err := o.store.InsertRun(ctx, run); err != nil {
		return &result, runID, fmt.Errorf("orchestrator: persisting tabular run: %w", err)
	}
	return &result, runID, nil
}
