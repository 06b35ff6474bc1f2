package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nextgen10/evalctl/pkg/evalmodel"
	"github.com/nextgen10/evalctl/pkg/tenant"
)

// registerTenantHandler mints a new tenant and returns its one-time plain
// key. Unauthenticated: registering is how a caller obtains a key at all.
func (s *Server) registerTenantHandler(c *gin.Context) {
	var req registerTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.gate.Register(c.Request.Context(), req.DisplayName, req.Email)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, tenant.ErrDisplayNameInvalid) || errors.Is(err, tenant.ErrIDCollision) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"tenant_id":    result.Tenant.TenantID,
		"display_name": result.Tenant.DisplayName,
		"api_key":      result.PlainKey,
	})
}

func (s *Server) rotateTenantHandler(c *gin.Context) {
	t := tenantFrom(c)
	plainKey, err := s.gate.Rotate(c.Request.Context(), t.TenantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"api_key": plainKey})
}

func tenantFrom(c *gin.Context) evalmodel.Tenant {
	v, _ := c.Get(tenantContextKey)
	t, _ := v.(evalmodel.Tenant)
	return t
}
