package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/affina/internal/tenantctx"
)

const (
	HeaderTenant = "X-Tenant-ID"
	HeaderUser   = "X-User-ID"
)

// TenantContext resolves the calling tenant from the X-Tenant-ID header and
// injects it into the request context. Every /api route requires it.
func (s *Server) TenantContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(HeaderTenant))
		if raw == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		tenantID, err := snowflake.ParseString(raw)
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		exists, err := s.tenantSvc.Exists(c.Request.Context(), tenantID)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if !exists {
			AbortWithError(c, ErrForbidden)
			return
		}

		ctx := tenantctx.WithTenantID(c.Request.Context(), int64(tenantID))
		if rawUser := strings.TrimSpace(c.GetHeader(HeaderUser)); rawUser != "" {
			if userID, err := snowflake.ParseString(rawUser); err == nil {
				ctx = tenantctx.WithUserID(ctx, int64(userID))
			}
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
