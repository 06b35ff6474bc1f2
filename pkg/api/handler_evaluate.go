package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nextgen10/evalctl/pkg/config"
	"github.com/nextgen10/evalctl/pkg/evalmodel"
	"github.com/nextgen10/evalctl/pkg/fieldmatch"
	"github.com/nextgen10/evalctl/pkg/jsoneval"
	"github.com/nextgen10/evalctl/pkg/orchestrator"
	"github.com/nextgen10/evalctl/pkg/tabular"
)

// runJSONHandler implements the run-json-evaluation mode (spec.md §6
// "Evaluation request (JSON mode)").
func (s *Server) runJSONHandler(c *gin.Context) {
	var req runJSONRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	gts := make([]orchestrator.GroundTruthItem, len(req.GroundTruth))
	for i, g := range req.GroundTruth {
		matchType := g.MatchType
		if matchType == "" {
			matchType = "SEMANTIC"
		}
		expectedType := evalmodel.ExpectedType(g.ExpectedType)
		if expectedType == "" {
			expectedType = evalmodel.ExpectedText
		}
		gts[i] = orchestrator.GroundTruthItem{
			QueryID: g.QueryID, ExpectedOutput: g.ExpectedOutput,
			MatchType: matchType, ExpectedType: expectedType, SourceField: g.SourceField,
		}
	}
	aios := make([]orchestrator.AIOutputItem, len(req.AIOutputs))
	for i, a := range req.AIOutputs {
		runID := a.RunID
		if runID == "" {
			runID = "default"
		}
		aios[i] = orchestrator.AIOutputItem{QueryID: a.QueryID, ActualOutput: a.ActualOutput, RunID: runID}
	}

	t := tenantFrom(c)
	result, err := s.orch.RunJSONEvaluation(c.Request.Context(), t.TenantID, gts, aios, s.runConfig(req.Config))
	if err != nil {
		respondRunError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// runFromPathsHandler implements the run-from-paths mode (spec.md §6
// "File-path evaluation").
func (s *Server) runFromPathsHandler(c *gin.Context) {
	var req runFromPathsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t := tenantFrom(c)
	result, err := s.orch.RunFromPaths(c.Request.Context(), t.TenantID, req.GroundTruthPath, req.AIOutputsPath, s.cfg.AllowedPaths, s.runConfig(req.Config))
	if err != nil {
		respondRunError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// runTabularHandler implements the run-batch mode over an already
// normalized tabular dataset (spec.md §6 "Evaluation request (tabular
// mode)"; the column-discovery/cell-splitting heuristics described there
// belong to the out-of-scope file-parsing collaborator upstream of this
// endpoint).
func (s *Server) runTabularHandler(c *gin.Context) {
	var req runTabularRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cases := make([]evalmodel.TestCase, len(req.Rows))
	for i, r := range req.Rows {
		gtType := evalmodel.ExpectedType(r.GTType)
		if gtType == "" {
			gtType = evalmodel.ExpectedText
		}
		cases[i] = evalmodel.TestCase{
			ID: r.ID, Query: r.Query, GroundTruth: r.GroundTruth, GTType: gtType,
			BotAnswers: r.BotAnswers, BotContexts: r.BotContexts,
		}
	}
	ds := tabular.Dataset{Cases: cases, BotIDs: req.BotIDs}

	t := tenantFrom(c)
	deps := s.tabularDeps()
	result, runID, err := s.orch.RunTabular(c.Request.Context(), t.TenantID, ds, deps, s.cache)
	if err != nil {
		respondRunError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"run_id": runID, "result": result})
}

// runJSONBatchHandler batch-grades every candidate against a single
// ground truth object and ranks them by RQS (spec.md §4.7's
// ranking/variance enrichment supplement).
func (s *Server) runJSONBatchHandler(c *gin.Context) {
	var req runJSONBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	runCfg := s.runConfig(req.Config)
	gtFlat := fieldmatch.Flatten(req.GroundTruth)

	candidates := make([]jsoneval.BatchCandidate, len(req.Candidates))
	for i, cand := range req.Candidates {
		candidates[i] = jsoneval.BatchCandidate{ID: cand.ID, AIO: fieldmatch.Flatten(cand.AIO)}
	}

	result := jsoneval.BatchEvaluate(c.Request.Context(), s.gw, gtFlat, candidates, jsoneval.Config{
		SemanticThreshold: runCfg.Thresholds.Semantic,
		FuzzyThreshold:    runCfg.Thresholds.Fuzzy,
		Weights:           runCfg.Weights,
		EnableSafety:      runCfg.EnableSafety,
		FieldStrategies:   runCfg.FieldStrategies,
	})
	c.JSON(http.StatusOK, result)
}

func (s *Server) runConfig(req runConfigRequest) orchestrator.RunConfig {
	cfg := orchestrator.RunConfig{
		Thresholds:          s.cfg.Thresholds,
		Weights:             s.cfg.Weights,
		CompositeWeights:    s.cfg.CompositeWeights,
		EnableSafety:        req.EnableSafety || s.cfg.EnableSafety,
		AggregateRunMetrics: req.AggregateRunMetrics,
		LLMModel:            s.cfg.DefaultModel,
		FieldStrategies:     req.FieldStrategies,
	}
	if req.LLMModelName != "" {
		cfg.LLMModel = req.LLMModelName
	}
	if t := req.Thresholds; t != nil {
		applyIf(&cfg.Thresholds.Accuracy, t.Accuracy)
		applyIf(&cfg.Thresholds.Consistency, t.Consistency)
		applyIf(&cfg.Thresholds.Hallucination, t.Hallucination)
		applyIf(&cfg.Thresholds.RQS, t.RQS)
		applyIf(&cfg.Thresholds.Semantic, t.Semantic)
		applyIf(&cfg.Thresholds.Fuzzy, t.Fuzzy)
	}
	if w := req.Weights; w != nil {
		applyIf(&cfg.Weights.Accuracy, w.Accuracy)
		applyIf(&cfg.Weights.Completeness, w.Completeness)
		applyIf(&cfg.Weights.Hallucination, w.Hallucination)
		applyIf(&cfg.Weights.Safety, w.Safety)
	}
	if cw := req.CompositeWeights; cw != nil {
		applyIf(&cfg.CompositeWeights.Alpha, cw.Alpha)
		applyIf(&cfg.CompositeWeights.Beta, cw.Beta)
		applyIf(&cfg.CompositeWeights.Gamma, cw.Gamma)
	}
	// Per-request overrides can break the sum-to-1 invariant the loaded
	// config already satisfies (spec.md §3); renormalize before use.
	cfg.Weights = config.NormalizeStructWeights(cfg.Weights)
	cfg.CompositeWeights = config.NormalizeCompositeWeights(cfg.CompositeWeights)
	return cfg
}

func (s *Server) tabularDeps() tabular.Deps {
	concurrency := s.cfg.Concurrency
	return tabular.Deps{
		Gateway:               s.gw,
		Prompts:               s.prompt,
		Cache:                 s.cache,
		Weights:               s.cfg.CompositeWeights,
		Thresh:                s.cfg.Thresholds,
		MaxBots:               concurrency.MaxConcurrentBots,
		RagBatch:              concurrency.RagTriadBatchSize,
		Model:                 s.cfg.DefaultModel,
		EnableRecommendations: s.cfg.EnableRecommendations,
	}
}

func applyIf(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

func respondRunError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, orchestrator.ErrValidation) || errors.Is(err, config.ErrPathNotAllowed) {
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
