package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nextgen10/evalctl/pkg/database"
	"github.com/nextgen10/evalctl/pkg/version"
)

func (s *Server) healthHandler(c *gin.Context) {
	reqCtx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	dbHealth, err := database.Health(reqCtx, s.db.DB())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unhealthy",
			"database": dbHealth,
			"error":    err.Error(),
			"version":  version.Full(),
		})
		return
	}

	cacheStats := s.cache.Stats()
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"database": dbHealth,
		"version":  version.Full(),
		"cache": gin.H{
			"hits":   cacheStats.Hits,
			"misses": cacheStats.Misses,
			"size":   cacheStats.Size,
		},
		"configuration": gin.H{
			"llm_providers": s.cfg.Stats().LLMProviders,
			"prompts_dir":   s.cfg.Stats().PromptsDir,
		},
	})
}
