package routes

import (
	"errors"
	"log/slog"
	"net/http"

	"fixitnow-backend/app/service"
	"fixitnow-backend/middleware"
	"fixitnow-backend/utils"

	"github.com/gin-gonic/gin"
)

// respondError maps a service error to its HTTP status. Unknown errors
// are logged and hidden behind "Server error".
func respondError(ctx *gin.Context, err error) {
	var violations service.Violations
	if errors.As(err, &violations) {
		ctx.JSON(http.StatusBadRequest, utils.BuildResponseFailed("Validation failed", violations, nil))
		return
	}

	status, code := statusOf(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "method", ctx.Request.Method, "path", ctx.FullPath(), "error", err)
		ctx.JSON(status, utils.BuildResponseFailed("Server error", nil, nil))
		return
	}

	msg := err.Error()
	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		msg = svcErr.Message
	}
	ctx.JSON(status, utils.BuildResponseFailed(msg, code, nil))
}

func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, "validation_failed"
	case errors.Is(err, service.ErrInvalidTransition):
		return http.StatusBadRequest, "invalid_transition"
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, "conflict"
	}
	return http.StatusInternalServerError, ""
}

// bindBody decodes JSON or form bodies depending on Content-Type.
// It reports false after writing a 400.
func bindBody(ctx *gin.Context, dst any) bool {
	if err := ctx.ShouldBind(dst); err != nil {
		ctx.JSON(http.StatusBadRequest, utils.BuildResponseFailed("Invalid request body", err.Error(), nil))
		return false
	}
	return true
}

// identity is only called behind AuthMiddleware.
func identity(ctx *gin.Context) service.Identity {
	id, _ := middleware.CurrentIdentity(ctx)
	return id
}
