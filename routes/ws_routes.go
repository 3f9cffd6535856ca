package routes

import (
	"log/slog"

	"fixitnow-backend/app/service"
	"fixitnow-backend/middleware"
	"fixitnow-backend/realtime"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// LiveHandler upgrades authenticated clients onto the complaint event feed.
type LiveHandler struct {
	hub         *realtime.Hub
	upgrader    *websocket.Upgrader
	authService service.AuthService
}

// NewLiveHandler only accepts websocket upgrades from allowedOrigins.
func NewLiveHandler(hub *realtime.Hub, allowedOrigins []string, auth service.AuthService) *LiveHandler {
	return &LiveHandler{hub: hub, upgrader: realtime.NewUpgrader(allowedOrigins), authService: auth}
}

func (h *LiveHandler) SetupLiveRoutes(api *gin.RouterGroup) {
	api.GET("/ws", middleware.AuthMiddleware(h.authService), h.Connect)
}

// Connect handles GET /api/v1/ws and streams complaint events to the caller.
func (h *LiveHandler) Connect(ctx *gin.Context) {
	id := identity(ctx)
	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		slog.Warn("websocket upgrade failed", "user_id", id.ID(), "error", err)
		return
	}
	h.hub.Serve(conn, id.ID(), id.Role)
}
