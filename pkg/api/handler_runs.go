package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nextgen10/evalctl/pkg/evalmodel"
	"github.com/nextgen10/evalctl/pkg/store"
)

func (s *Server) getRunHandler(c *gin.Context) {
	t := tenantFrom(c)
	run, err := s.store.GetRunByID(c.Request.Context(), c.Param("run_id"), t.TenantID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, run)
}

func (s *Server) listRunsHandler(c *gin.Context) {
	t := tenantFrom(c)
	runs, err := s.store.ListRunsByTenant(c.Request.Context(), t.TenantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, runs)
}

func (s *Server) submitFeedbackHandler(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t := tenantFrom(c)
	fb := evalmodel.Feedback{
		FeedbackID: uuid.NewString(),
		TenantID:   t.TenantID,
		CreatedAt:  time.Now(),
		Rating:     req.Rating,
		Suggestion: req.Suggestion,
	}
	if err := s.store.InsertFeedback(c.Request.Context(), fb); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"feedback_id": fb.FeedbackID})
}
