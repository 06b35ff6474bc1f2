package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const tenantContextKey = "tenant"

// tenantAuth validates the Authorization: Bearer <key> header against the
// Tenant Gate, rejecting the request on any mismatch (spec.md §6, §7
// AuthError).
func (s *Server) tenantAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer key"})
			return
		}
		t, err := s.gate.Validate(c.Request.Context(), key)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or inactive tenant key"})
			return
		}
		c.Set(tenantContextKey, t)
		c.Next()
	}
}

// tenantAuthQuery validates the bearer key carried as a query parameter,
// the one-way variant for streaming endpoints that can't set headers.
func (s *Server) tenantAuthQuery() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.Query("key")
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing key parameter"})
			return
		}
		t, err := s.gate.Validate(c.Request.Context(), key)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or inactive tenant key"})
			return
		}
		c.Set(tenantContextKey, t)
		c.Next()
	}
}
