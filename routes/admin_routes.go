package routes

import (
	"net/http"

	"fixitnow-backend/app/model"
	"fixitnow-backend/app/service"
	"fixitnow-backend/middleware"
	"fixitnow-backend/utils"

	"github.com/gin-gonic/gin"
)

// AdminHandler serves account management under /api/v1/admin.
type AdminHandler struct {
	adminService service.AdminService
	authService  service.AuthService
}

// NewAdminHandler creates the user administration handler.
func NewAdminHandler(admin service.AdminService, auth service.AuthService) *AdminHandler {
	return &AdminHandler{adminService: admin, authService: auth}
}

// SetupAdminRoutes registers the /admin user management endpoints.
func (h *AdminHandler) SetupAdminRoutes(api *gin.RouterGroup) {
	admin := api.Group("/admin", middleware.AuthMiddleware(h.authService))
	{
		admin.GET("/users", middleware.RequireOperation(service.OpManageUsers), h.ListUsers)
		admin.PATCH("/users/:id", middleware.RequireOperation(service.OpChangeUserRole), h.UpdateUserRole)
		admin.PATCH("/users/:id/status", middleware.RequireOperation(service.OpManageUsers), h.UpdateUserStatus)
		admin.GET("/maintenance-staff", middleware.RequireOperation(service.OpManageUsers), h.ListMaintenance)
		admin.POST("/maintenance-staff", middleware.RequireOperation(service.OpManageUsers), h.CreateStaff)
	}
}

// ListUsers handles GET /admin/users?role=&page=&limit=
func (h *AdminHandler) ListUsers(ctx *gin.Context) {
	page := utils.ParsePage(ctx.Query("page"), ctx.Query("limit"))
	users, err := h.adminService.ListUsers(ctx.Request.Context(), identity(ctx), model.Role(ctx.Query("role")), page)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, utils.BuildResponseSuccess("Users retrieved", users))
}

// ListMaintenance handles GET /admin/maintenance-staff
func (h *AdminHandler) ListMaintenance(ctx *gin.Context) {
	staff, err := h.adminService.ListMaintenance(ctx.Request.Context(), identity(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, utils.BuildResponseSuccess("Maintenance staff retrieved", staff))
}

// CreateStaff handles POST /admin/maintenance-staff
func (h *AdminHandler) CreateStaff(ctx *gin.Context) {
	var input service.CreateStaffInput
	if !bindBody(ctx, &input) {
		return
	}

	user, err := h.adminService.CreateStaff(ctx.Request.Context(), identity(ctx), input)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, utils.BuildResponseSuccess(roleLabel(user.Role)+" created successfully", user))
}

// UpdateUserStatus handles PATCH /admin/users/:id/status
func (h *AdminHandler) UpdateUserStatus(ctx *gin.Context) {
	var req struct {
		IsActive *bool `json:"isActive" form:"isActive"`
	}
	if !bindBody(ctx, &req) {
		return
	}
	if req.IsActive == nil {
		respondError(ctx, service.Violations{"isActive": "is required"})
		return
	}

	user, err := h.adminService.SetUserActive(ctx.Request.Context(), identity(ctx), ctx.Param("id"), *req.IsActive)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, utils.BuildResponseSuccess("User status updated successfully", user))
}

// UpdateUserRole handles PATCH /admin/users/:id
func (h *AdminHandler) UpdateUserRole(ctx *gin.Context) {
	var req struct {
		Role string `json:"role" form:"role"`
	}
	if !bindBody(ctx, &req) {
		return
	}

	user, err := h.adminService.SetUserRole(ctx.Request.Context(), identity(ctx), ctx.Param("id"), model.Role(req.Role))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, utils.BuildResponseSuccess("User role updated successfully", user))
}

func roleLabel(r model.Role) string {
	switch r {
	case model.RoleMaintenance:
		return "Maintenance staff"
	case model.RoleAdmin:
		return "Admin"
	}
	return "Staff member"
}
