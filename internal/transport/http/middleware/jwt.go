package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"supportpilot/internal/pkg/jwtutil"
	"supportpilot/internal/transport/http/response"
)

const (
	ContextTenantIDKey    = "tenant_id"
	ContextCompanyNameKey = "company_name"
)

func AuthJWT(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			response.Error(c, 401, response.CodeUnauthorized, "missing authorization header")
			c.Abort()
			return
		}

		const prefix = "Bearer "
		if !strings.HasPrefix(authHeader, prefix) {
			response.Error(c, 401, response.CodeUnauthorized, "invalid authorization scheme")
			c.Abort()
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, prefix))
		claims, err := jwtutil.ParseToken(secret, token)
		if err != nil {
			response.Error(c, 401, response.CodeUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ContextTenantIDKey, claims.TenantID)
		c.Set(ContextCompanyNameKey, claims.CompanyName)
		c.Next()
	}
}

// TenantID extracts the authenticated tenant from the request context.
func TenantID(c *gin.Context) (uint, bool) {
	v, exists := c.Get(ContextTenantIDKey)
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id != 0
}
