// Package api exposes the Evaluation Orchestrator over HTTP: the three
// run modes, a tenant-scoped progress stream, run/feedback lookups, and
// tenant registration (spec.md §6, grounded on the gin wiring in
// cmd/tarsy/main.go and pkg/api/handlers.go).
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/nextgen10/evalctl/pkg/config"
	"github.com/nextgen10/evalctl/pkg/database"
	"github.com/nextgen10/evalctl/pkg/evalcache"
	"github.com/nextgen10/evalctl/pkg/eventbus"
	"github.com/nextgen10/evalctl/pkg/llmgateway"
	"github.com/nextgen10/evalctl/pkg/orchestrator"
	"github.com/nextgen10/evalctl/pkg/promptregistry"
	"github.com/nextgen10/evalctl/pkg/store"
	"github.com/nextgen10/evalctl/pkg/tenant"
)

// Server holds every collaborator a handler might need.
type Server struct {
	cfg    *config.Config
	db     *database.Client
	store  *store.Store
	gate   *tenant.Gate
	bus    *eventbus.Bus
	cache  *evalcache.Cache
	gw     *llmgateway.Gateway
	prompt *promptregistry.Registry
	orch   *orchestrator.Orchestrator
}

func NewServer(cfg *config.Config, db *database.Client, st *store.Store, gate *tenant.Gate, bus *eventbus.Bus, cache *evalcache.Cache, gw *llmgateway.Gateway, prompts *promptregistry.Registry, orch *orchestrator.Orchestrator) *Server {
	return &Server{cfg: cfg, db: db, store: st, gate: gate, bus: bus, cache: cache, gw: gw, prompt: prompts, orch: orch}
}

// Routes registers every endpoint on router.
func (s *Server) Routes(router *gin.Engine) {
	router.GET("/health", s.healthHandler)

	tenants := router.Group("/tenants")
	tenants.POST("", s.registerTenantHandler)

	api := router.Group("/api")
	api.Use(s.tenantAuth())
	{
		api.POST("/evaluate/json", s.runJSONHandler)
		api.POST("/evaluate/json-batch", s.runJSONBatchHandler)
		api.POST("/evaluate/batch", s.runTabularHandler)
		api.POST("/evaluate/paths", s.runFromPathsHandler)
		api.GET("/runs/:run_id", s.getRunHandler)
		api.GET("/runs", s.listRunsHandler)
		api.POST("/feedback", s.submitFeedbackHandler)
		api.POST("/tenants/rotate", s.rotateTenantHandler)
	}

	// Streaming carries the bearer key as a query parameter since EventSource
	// cannot set headers (spec.md §6).
	router.GET("/api/stream", s.tenantAuthQuery(), s.streamHandler)
}
