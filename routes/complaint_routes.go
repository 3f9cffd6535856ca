package routes

import (
	"net/http"
	"time"

	"fixitnow-backend/app/model"
	"fixitnow-backend/app/service"
	"fixitnow-backend/middleware"
	"fixitnow-backend/storage"
	"fixitnow-backend/utils"

	"github.com/gin-gonic/gin"
)

// Multipart field names for photos.
const (
	beforeImagesField = "images"
	afterImagesField  = "afterImages"
)

// ComplaintHandler serves /api/v1/complaints.
type ComplaintHandler struct {
	complaintService service.ComplaintService
	authService      service.AuthService
}

// NewComplaintHandler creates the complaint handler. auth backs the
// bearer token check on every route.
func NewComplaintHandler(complaints service.ComplaintService, auth service.AuthService) *ComplaintHandler {
	return &ComplaintHandler{complaintService: complaints, authService: auth}
}

// SetupComplaintRoutes registers /complaints. Each route is gated by its
// operation in the role table.
func (h *ComplaintHandler) SetupComplaintRoutes(api *gin.RouterGroup) {
	complaints := api.Group("/complaints", middleware.AuthMiddleware(h.authService))
	{
		complaints.POST("", middleware.RequireOperation(service.OpCreateComplaint), h.Create)
		complaints.GET("", middleware.RequireOperation(service.OpListComplaints), h.List)
		complaints.GET("/:id", middleware.RequireOperation(service.OpViewComplaint), h.Get)
		complaints.PATCH("/:id/status", middleware.RequireOperation(service.OpUpdateStatus), h.UpdateStatus)
		complaints.PATCH("/:id/assign", middleware.RequireOperation(service.OpAssign), h.Assign)
		complaints.PATCH("/:id/resolve", middleware.RequireOperation(service.OpResolve), h.Resolve)
		complaints.POST("/:id/notes", middleware.RequireOperation(service.OpAddNote), h.AddNote)
		complaints.DELETE("/:id", middleware.RequireOperation(service.OpDeleteComplaint), h.Delete)
	}
}

// createComplaintRequest accepts both JSON and multipart bodies.
type createComplaintRequest struct {
	Title               string     `json:"title" form:"title"`
	Description         string     `json:"description" form:"description"`
	Category            string     `json:"category" form:"category"`
	Priority            string     `json:"priority" form:"priority"`
	Building            string     `json:"building" form:"building"`
	Room                string     `json:"room" form:"room"`
	Floor               string     `json:"floor" form:"floor"`
	QRCode              string     `json:"qrCode" form:"qrCode"`
	EstimatedCompletion *time.Time `json:"estimatedCompletion" form:"estimatedCompletion" time_format:"2006-01-02T15:04:05Z07:00"`
	Location            *struct {
		Building string `json:"building"`
		Room     string `json:"room"`
		Floor    string `json:"floor"`
		QRCode   string `json:"qrCode"`
	} `json:"location" form:"-"`
}

func (r createComplaintRequest) input() service.CreateComplaintInput {
	in := service.CreateComplaintInput{
		Title:               r.Title,
		Description:         r.Description,
		Category:            model.Category(r.Category),
		Priority:            model.Priority(r.Priority),
		Building:            r.Building,
		Room:                r.Room,
		Floor:               r.Floor,
		QRCode:              r.QRCode,
		EstimatedCompletion: r.EstimatedCompletion,
	}
	// A nested location object wins over flat fields.
	if loc := r.Location; loc != nil {
		in.Building, in.Room, in.Floor, in.QRCode = loc.Building, loc.Room, loc.Floor, loc.QRCode
	}
	return in
}

// Create handles POST /complaints as JSON or multipart with "images".
func (h *ComplaintHandler) Create(ctx *gin.Context) {
	var req createComplaintRequest
	if !bindBody(ctx, &req) {
		return
	}
	uploads, ok := h.uploads(ctx, beforeImagesField)
	if !ok {
		return
	}

	view, err := h.complaintService.Create(ctx.Request.Context(), identity(ctx), req.input(), uploads)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, utils.BuildResponseSuccess("Complaint submitted successfully", view))
}

// List handles GET /complaints
func (h *ComplaintHandler) List(ctx *gin.Context) {
	in := service.ListComplaintsInput{
		Status:     model.Status(ctx.Query("status")),
		Priority:   model.Priority(ctx.Query("priority")),
		Category:   model.Category(ctx.Query("category")),
		Building:   ctx.Query("building"),
		AssignedTo: ctx.Query("assignedTo"),
		Page:       utils.ParsePage(ctx.Query("page"), ctx.Query("limit")),
	}

	page, err := h.complaintService.List(ctx.Request.Context(), identity(ctx), in)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, utils.BuildResponseSuccess("Complaints retrieved", page))
}

// Get handles GET /complaints/:id
func (h *ComplaintHandler) Get(ctx *gin.Context) {
	view, err := h.complaintService.Get(ctx.Request.Context(), identity(ctx), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, utils.BuildResponseSuccess("Complaint retrieved", view))
}

// UpdateStatus handles PATCH /complaints/:id/status
func (h *ComplaintHandler) UpdateStatus(ctx *gin.Context) {
	var req struct {
		Status              string     `json:"status" form:"status"`
		Notes               string     `json:"notes" form:"notes"`
		EstimatedCompletion *time.Time `json:"estimatedCompletion" form:"estimatedCompletion" time_format:"2006-01-02T15:04:05Z07:00"`
	}
	if !bindBody(ctx, &req) {
		return
	}

	view, err := h.complaintService.UpdateStatus(ctx.Request.Context(), identity(ctx), ctx.Param("id"), service.UpdateStatusInput{
		Status:              model.Status(req.Status),
		Notes:               req.Notes,
		EstimatedCompletion: req.EstimatedCompletion,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, utils.BuildResponseSuccess("Status updated successfully", view))
}

// Assign handles PATCH /complaints/:id/assign
func (h *ComplaintHandler) Assign(ctx *gin.Context) {
	var req struct {
		AssignedTo string `json:"assignedTo" form:"assignedTo"`
	}
	if !bindBody(ctx, &req) {
		return
	}

	view, err := h.complaintService.Assign(ctx.Request.Context(), identity(ctx), ctx.Param("id"), req.AssignedTo)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, utils.BuildResponseSuccess("Complaint assigned successfully", view))
}

// Resolve handles PATCH /complaints/:id/resolve, optionally multipart
// with "afterImages".
func (h *ComplaintHandler) Resolve(ctx *gin.Context) {
	var req struct {
		ResolutionNotes string `json:"resolutionNotes" form:"resolutionNotes"`
	}
	if !bindBody(ctx, &req) {
		return
	}
	uploads, ok := h.uploads(ctx, afterImagesField)
	if !ok {
		return
	}

	view, err := h.complaintService.Resolve(ctx.Request.Context(), identity(ctx), ctx.Param("id"),
		service.ResolveInput{ResolutionNotes: req.ResolutionNotes}, uploads)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, utils.BuildResponseSuccess("Complaint resolved successfully", view))
}

// AddNote handles POST /complaints/:id/notes
func (h *ComplaintHandler) AddNote(ctx *gin.Context) {
	var req struct {
		Content string `json:"content" form:"content"`
	}
	if !bindBody(ctx, &req) {
		return
	}

	view, err := h.complaintService.AddNote(ctx.Request.Context(), identity(ctx), ctx.Param("id"), req.Content)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, utils.BuildResponseSuccess("Note added successfully", view))
}

// Delete handles DELETE /complaints/:id
func (h *ComplaintHandler) Delete(ctx *gin.Context) {
	if err := h.complaintService.Delete(ctx.Request.Context(), identity(ctx), ctx.Param("id")); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, utils.BuildResponseSuccess("Complaint deleted successfully", nil))
}

// uploads collects files under field when the body is multipart. JSON
// bodies carry no files.
func (h *ComplaintHandler) uploads(ctx *gin.Context, field string) ([]storage.Upload, bool) {
	if ctx.ContentType() != gin.MIMEMultipartPOSTForm {
		return nil, true
	}
	form, err := ctx.MultipartForm()
	if err != nil {
		ctx.JSON(http.StatusBadRequest, utils.BuildResponseFailed("Invalid multipart form", err.Error(), nil))
		return nil, false
	}
	return storage.FromFileHeaders(form.File[field]), true
}
