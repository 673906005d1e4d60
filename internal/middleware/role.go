package middleware

import (
	"net/http"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/gin-gonic/gin"
)

// RequireRole only lets callers holding requiredRole through. It must run after OAuth2Auth.
func RequireRole(requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUserID(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				models.NewAPIError(models.ErrUnauthorized, "authentication credentials were not provided"))
			return
		}

		role, _ := c.Get(UserRoleKey)
		userRole, ok := role.(string)
		if !ok || userRole != requiredRole {
			c.AbortWithStatusJSON(http.StatusForbidden, models.NewAPIError(
				models.ErrForbidden,
				"insufficient permissions",
				map[string]interface{}{"required_role": requiredRole},
			))
			return
		}

		c.Next()
	}
}
