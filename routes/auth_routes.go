package routes

import (
	"net/http"

	"fixitnow-backend/app/service"
	"fixitnow-backend/middleware"
	"fixitnow-backend/utils"

	"github.com/gin-gonic/gin"
)

// AuthHandler serves registration, login and the caller's own account.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates the account handler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// SetupAuthRoutes registers /api/v1/auth.
func (h *AuthHandler) SetupAuthRoutes(api *gin.RouterGroup) {
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
	}

	private := authGroup.Group("", middleware.AuthMiddleware(h.authService))
	{
		private.GET("/me", h.Me)
		private.PUT("/profile", h.UpdateProfile)
		private.PUT("/password", h.ChangePassword)
		private.POST("/logout", h.Logout)
	}
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(ctx *gin.Context) {
	var input service.RegisterInput
	if !bindBody(ctx, &input) {
		return
	}

	result, err := h.authService.Register(ctx.Request.Context(), input)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, utils.BuildResponseSuccess("User registered successfully", result))
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(ctx *gin.Context) {
	var input struct {
		Email    string `json:"email" form:"email"`
		Password string `json:"password" form:"password"`
	}
	if !bindBody(ctx, &input) {
		return
	}

	result, err := h.authService.Login(ctx.Request.Context(), input.Email, input.Password)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, utils.BuildResponseSuccess("Login successful", result))
}

// Me returns the session context: the user and the views its role may open.
func (h *AuthHandler) Me(ctx *gin.Context) {
	session, err := h.authService.Me(ctx.Request.Context(), identity(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, utils.BuildResponseSuccess("Session loaded", session))
}

// UpdateProfile handles PUT /auth/profile
func (h *AuthHandler) UpdateProfile(ctx *gin.Context) {
	var input service.ProfileInput
	if !bindBody(ctx, &input) {
		return
	}

	user, err := h.authService.UpdateProfile(ctx.Request.Context(), identity(ctx), input)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, utils.BuildResponseSuccess("Profile updated successfully", user))
}

// ChangePassword handles PUT /auth/password
func (h *AuthHandler) ChangePassword(ctx *gin.Context) {
	var input service.ChangePasswordInput
	if !bindBody(ctx, &input) {
		return
	}

	if err := h.authService.ChangePassword(ctx.Request.Context(), identity(ctx), input); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, utils.BuildResponseSuccess("Password changed successfully", nil))
}

// Logout revokes the presented token until it would have expired anyway.
func (h *AuthHandler) Logout(ctx *gin.Context) {
	if err := h.authService.Logout(ctx.Request.Context(), middleware.CurrentClaims(ctx)); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, utils.BuildResponseSuccess("Logged out", nil))
}
