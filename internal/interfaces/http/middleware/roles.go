package middleware

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/destinpq/groow-sub007/internal/domain/identity"
	"github.com/destinpq/groow-sub007/internal/interfaces/http/dto"
)

// RoleConfig holds configuration for role middleware
type RoleConfig struct {
	Logger *zap.Logger
}

// RequireRoles lets a request through only when the caller holds one of roles
func RequireRoles(roles ...identity.Role) gin.HandlerFunc {
	return RequireRolesWithConfig(RoleConfig{}, roles...)
}

// RequireRolesWithConfig is RequireRoles with custom config
func RequireRolesWithConfig(cfg RoleConfig, roles ...identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeUnauthorized, "Authentication required", c.GetString(RequestIDKey)))
			return
		}
		if !slices.Contains(roles, identity.Role(claims.Role)) {
			if cfg.Logger != nil {
				cfg.Logger.Warn("Role check failed",
					zap.String("user_id", claims.UserID),
					zap.String("role", claims.Role),
					zap.String("path", c.Request.URL.Path),
				)
			}
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeForbidden, "Insufficient permissions", c.GetString(RequestIDKey)))
			return
		}
		c.Next()
	}
}

// RequireStaff admits admin and staff accounts
func RequireStaff() gin.HandlerFunc {
	return RequireRoles(identity.RoleAdmin, identity.RoleStaff)
}

// RequireAdmin admits admin accounts only
func RequireAdmin() gin.HandlerFunc {
	return RequireRoles(identity.RoleAdmin)
}
