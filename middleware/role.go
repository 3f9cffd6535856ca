package middleware

import (
	"net/http"

	"fixitnow-backend/app/model"
	"fixitnow-backend/app/service"
	"fixitnow-backend/utils"

	"github.com/gin-gonic/gin"
)

// RequireRole lets the request through when the caller's role is in
// roles. An empty list admits any authenticated caller.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := CurrentIdentity(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				utils.BuildResponseFailed("No token, authorization denied", "missing_token", nil))
			return
		}
		if !service.Allowed(id.Role, roles...) {
			c.AbortWithStatusJSON(http.StatusForbidden,
				utils.BuildResponseFailed("Access denied", "forbidden", nil))
			return
		}
		c.Next()
	}
}

// RequireOperation gates a route with the role set registered for op.
func RequireOperation(op service.Operation) gin.HandlerFunc {
	return RequireRole(service.OperationRoles[op]...)
}
