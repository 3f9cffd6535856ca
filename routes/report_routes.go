package routes

import (
	"net/http"

	"fixitnow-backend/app/service"
	"fixitnow-backend/middleware"
	"fixitnow-backend/utils"

	"github.com/gin-gonic/gin"
)

// ReportHandler serves the dashboard, analytics and export endpoints.
type ReportHandler struct {
	reportService service.ReportService
	authService   service.AuthService
}

// NewReportHandler creates the dashboard and reporting handler.
func NewReportHandler(reports service.ReportService, auth service.AuthService) *ReportHandler {
	return &ReportHandler{reportService: reports, authService: auth}
}

// SetupReportRoutes registers the /admin reporting endpoints.
func (h *ReportHandler) SetupReportRoutes(api *gin.RouterGroup) {
	reports := api.Group("/admin", middleware.AuthMiddleware(h.authService))
	{
		reports.GET("/dashboard", middleware.RequireOperation(service.OpAdminDashboard), h.Dashboard)
		reports.GET("/analytics", middleware.RequireOperation(service.OpAnalytics), h.Analytics)
		reports.GET("/export", middleware.RequireOperation(service.OpExport), h.Export)
	}
}

// Dashboard handles GET /admin/dashboard
func (h *ReportHandler) Dashboard(ctx *gin.Context) {
	dashboard, err := h.reportService.Dashboard(ctx.Request.Context(), identity(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, utils.BuildResponseSuccess("Dashboard loaded", dashboard))
}

// Analytics handles GET /admin/analytics?startDate=&endDate=
func (h *ReportHandler) Analytics(ctx *gin.Context) {
	analytics, err := h.reportService.Analytics(ctx.Request.Context(), identity(ctx),
		ctx.Query("startDate"), ctx.Query("endDate"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, utils.BuildResponseSuccess("Analytics loaded", analytics))
}

// Export returns complaints as JSON or as a CSV attachment.
func (h *ReportHandler) Export(ctx *gin.Context) {
	result, err := h.reportService.Export(ctx.Request.Context(), identity(ctx),
		ctx.DefaultQuery("format", string(service.ExportJSON)), ctx.Query("startDate"), ctx.Query("endDate"))
	if err != nil {
		respondError(ctx, err)
		return
	}

	if result.Format != service.ExportCSV {
		ctx.JSON(http.StatusOK, utils.BuildResponseSuccess("Export generated", result.Complaints))
		return
	}
	ctx.Header("Content-Type", "text/csv")
	ctx.Header("Content-Disposition", "attachment; filename=complaints.csv")
	ctx.Status(http.StatusOK)
	if err := result.WriteCSV(ctx.Writer); err != nil {
		_ = ctx.Error(err)
	}
}
