package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"fixitnow-backend/app/model"
	"fixitnow-backend/app/service"
	"fixitnow-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Context keys set by AuthMiddleware.
const (
	CtxUserID = "userID"
	CtxRole   = "role"
	CtxClaims = "claims"
)

// AuthMiddleware validates the bearer token, rejects revoked tokens and
// deactivated accounts, and stores the caller in the context.
// Browsers cannot set headers on websocket upgrades, so a "token" query
// parameter is accepted when the header is absent.
func AuthMiddleware(auth service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				utils.BuildResponseFailed("No token, authorization denied", "missing_token", nil))
			return
		}

		user, claims, err := auth.Authenticate(c.Request.Context(), tokenString)
		if err != nil {
			var svcErr *service.Error
			if errors.As(err, &svcErr) && errors.Is(err, service.ErrUnauthorized) {
				c.AbortWithStatusJSON(http.StatusUnauthorized,
					utils.BuildResponseFailed(svcErr.Message, "unauthorized", nil))
				return
			}
			slog.Error("authenticate", "path", c.FullPath(), "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				utils.BuildResponseFailed("Server error", nil, nil))
			return
		}

		c.Set(CtxUserID, user.ID)
		c.Set(CtxRole, user.Role)
		c.Set(CtxClaims, claims)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	if auth := c.GetHeader("Authorization"); auth != "" {
		if !strings.HasPrefix(auth, "Bearer ") {
			return ""
		}
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return strings.TrimSpace(c.Query("token"))
}

// CurrentIdentity returns the authenticated caller; ok is false on
// routes without AuthMiddleware.
func CurrentIdentity(c *gin.Context) (service.Identity, bool) {
	id, ok := c.Get(CtxUserID)
	if !ok {
		return service.Identity{}, false
	}
	uid, _ := id.(uuid.UUID)
	role, _ := c.Get(CtxRole)
	r, _ := role.(model.Role)
	return service.Identity{UserID: uid, Role: r}, uid != uuid.Nil
}

// CurrentClaims returns the validated token claims of the request.
func CurrentClaims(c *gin.Context) *utils.JWTCustomClaims {
	v, _ := c.Get(CtxClaims)
	claims, _ := v.(*utils.JWTCustomClaims)
	return claims
}
