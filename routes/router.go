package routes

import (
	"net/http"
	"time"

	"fixitnow-backend/app/service"
	"fixitnow-backend/realtime"

	"github.com/gin-gonic/gin"
)

// Services bundles what the HTTP layer needs.
type Services struct {
	Auth       service.AuthService
	Complaints service.ComplaintService
	Admin      service.AdminService
	Reports    service.ReportService
	Hub        *realtime.Hub
	// AllowedOrigins gates websocket upgrades.
	AllowedOrigins []string
}

// Register mounts every handler under /api/v1 plus /health.
func Register(r *gin.Engine, s Services) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "OK",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	api := r.Group("/api/v1")
	NewAuthHandler(s.Auth).SetupAuthRoutes(api)
	NewComplaintHandler(s.Complaints, s.Auth).SetupComplaintRoutes(api)
	NewAdminHandler(s.Admin, s.Auth).SetupAdminRoutes(api)
	NewReportHandler(s.Reports, s.Auth).SetupReportRoutes(api)
	if s.Hub != nil {
		NewLiveHandler(s.Hub, s.AllowedOrigins, s.Auth).SetupLiveRoutes(api)
	}
}
