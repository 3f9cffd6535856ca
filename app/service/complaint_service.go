package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"fixitnow-backend/app/model"
	"fixitnow-backend/app/repository"
	"fixitnow-backend/queue"
	"fixitnow-backend/storage"
	"fixitnow-backend/utils"

	"github.com/google/uuid"
)

// CreateComplaintInput is what a reporter submits. Location fields are
// flattened here; handlers accept either form.
type CreateComplaintInput struct {
	Title               string         `json:"title" validate:"required,max=200"`
	Description         string         `json:"description" validate:"required,max=2000"`
	Category            model.Category `json:"category" validate:"required"`
	Priority            model.Priority `json:"priority"`
	Building            string         `json:"building" validate:"required"`
	Room                string         `json:"room" validate:"required"`
	Floor               string         `json:"floor"`
	QRCode              string         `json:"qrCode"`
	EstimatedCompletion *time.Time     `json:"estimatedCompletion"`
}

// ListComplaintsInput filters a listing. Empty fields are ignored.
type ListComplaintsInput struct {
	Status     model.Status
	Priority   model.Priority
	Category   model.Category
	Building   string
	AssignedTo string // "me" means the caller
	Page       utils.Page
}

// UpdateStatusInput moves a complaint to Status, optionally appending a
// note and setting the estimated completion date.
type UpdateStatusInput struct {
	Status              model.Status `json:"status" validate:"required"`
	Notes               string       `json:"notes"`
	EstimatedCompletion *time.Time   `json:"estimatedCompletion"`
}

// ResolveInput closes out the work; after photos arrive as uploads.
type ResolveInput struct {
	ResolutionNotes string `json:"resolutionNotes" validate:"max=2000"`
}

// ComplaintPage is one page of a complaint listing.
type ComplaintPage struct {
	Complaints []*model.ComplaintView `json:"complaints"`
	Pagination utils.Pagination       `json:"pagination"`
}

// ImageStore saves and removes complaint photos.
type ImageStore interface {
	SaveImages(ctx context.Context, uploads []storage.Upload) ([]model.Image, error)
	Remove(ctx context.Context, images []model.Image)
}

// ComplaintService runs the complaint lifecycle.
type ComplaintService interface {
	Create(ctx context.Context, id Identity, in CreateComplaintInput, images []storage.Upload) (*model.ComplaintView, error)
	List(ctx context.Context, id Identity, in ListComplaintsInput) (*ComplaintPage, error)
	Get(ctx context.Context, id Identity, complaintID string) (*model.ComplaintView, error)
	UpdateStatus(ctx context.Context, id Identity, complaintID string, in UpdateStatusInput) (*model.ComplaintView, error)
	Assign(ctx context.Context, id Identity, complaintID, assigneeID string) (*model.ComplaintView, error)
	Resolve(ctx context.Context, id Identity, complaintID string, in ResolveInput, afterImages []storage.Upload) (*model.ComplaintView, error)
	AddNote(ctx context.Context, id Identity, complaintID, content string) (*model.ComplaintView, error)
	Delete(ctx context.Context, id Identity, complaintID string) error
}

type complaintService struct {
	complaints repository.ComplaintRepository
	users      directory
	images     ImageStore
	events     queue.Publisher
	lifecycle  Lifecycle
	policy     ComplaintPolicy
	now        func() time.Time
}

// NewComplaintService builds the complaint lifecycle service. A nil
// publisher drops events.
func NewComplaintService(
	complaints repository.ComplaintRepository,
	users repository.UserRepository,
	images ImageStore,
	events queue.Publisher,
	lifecycle Lifecycle,
) ComplaintService {
	if events == nil {
		events = queue.NoopPublisher{}
	}
	return &complaintService{
		complaints: complaints,
		users:      directory{users: users},
		images:     images,
		events:     events,
		lifecycle:  lifecycle,
		now:        time.Now,
	}
}

// Create stores a pending complaint reported by the caller. Before photos
// are saved first and removed again if the insert fails.
func (s *complaintService) Create(ctx context.Context, id Identity, in CreateComplaintInput, uploads []storage.Upload) (*model.ComplaintView, error) {
	if err := authorize(id, OpCreateComplaint); err != nil {
		return nil, err
	}

	trim(&in.Title, &in.Description, &in.Building, &in.Room, &in.Floor, &in.QRCode)
	if in.Priority == "" {
		in.Priority = model.PriorityMedium
	}
	v := validateStruct(in)
	if in.Category != "" && !in.Category.Valid() {
		v["category"] = "invalid category"
	}
	if !in.Priority.Valid() {
		v["priority"] = "invalid priority"
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	before, err := s.saveImages(ctx, uploads)
	if err != nil {
		return nil, err
	}

	c := &model.Complaint{
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Priority:    in.Priority,
		Status:      model.StatusPending,
		Location: model.Location{
			Building: in.Building,
			Room:     in.Room,
			Floor:    in.Floor,
			QRCode:   in.QRCode,
		},
		ReportedBy:          id.ID(),
		Images:              model.Images{Before: before, After: []model.Image{}},
		EstimatedCompletion: in.EstimatedCompletion,
		Notes:               []model.Note{},
		CreatedAt:           s.now().UTC(),
	}
	if err := s.complaints.Insert(ctx, c); err != nil {
		s.images.Remove(ctx, before)
		return nil, err
	}

	s.publish(ctx, queue.EventCreated, c, id)
	return s.users.view(ctx, c)
}

// List returns one page, newest first. Students only ever see their own
// complaints.
func (s *complaintService) List(ctx context.Context, id Identity, in ListComplaintsInput) (*ComplaintPage, error) {
	v := Violations{}
	if in.Status != "" && !in.Status.Valid() {
		v["status"] = "invalid status"
	}
	if in.Priority != "" && !in.Priority.Valid() {
		v["priority"] = "invalid priority"
	}
	if in.Category != "" && !in.Category.Valid() {
		v["category"] = "invalid category"
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	filter := repository.ComplaintFilter{
		Status:     in.Status,
		Priority:   in.Priority,
		Category:   in.Category,
		Building:   in.Building,
		AssignedTo: in.AssignedTo,
	}
	if filter.AssignedTo == "me" {
		filter.AssignedTo = id.ID()
	}
	s.policy.ListScope(id, &filter)

	if in.Page.Page < 1 || in.Page.Limit < 1 {
		in.Page = utils.ParsePage("", "")
	}
	items, total, err := s.complaints.List(ctx, filter, in.Page)
	if err != nil {
		return nil, err
	}
	views, err := s.users.views(ctx, items)
	if err != nil {
		return nil, err
	}
	return &ComplaintPage{Complaints: views, Pagination: utils.NewPagination(in.Page, total)}, nil
}

func (s *complaintService) Get(ctx context.Context, id Identity, complaintID string) (*model.ComplaintView, error) {
	c, err := s.visible(ctx, id, complaintID)
	if err != nil {
		return nil, err
	}
	return s.users.view(ctx, c)
}

// UpdateStatus sets the status the caller asks for, subject to the
// lifecycle table when it is strict.
func (s *complaintService) UpdateStatus(ctx context.Context, id Identity, complaintID string, in UpdateStatusInput) (*model.ComplaintView, error) {
	if err := authorize(id, OpUpdateStatus); err != nil {
		return nil, err
	}
	trim(&in.Notes)
	if err := validateStruct(in).Err(); err != nil {
		return nil, err
	}
	if !in.Status.Valid() {
		return nil, Violations{"status": "invalid status"}
	}

	current, err := s.find(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	if !s.lifecycle.CanTransition(current.Status, in.Status) {
		return nil, transitionErr(current.Status, in.Status)
	}

	now := s.now().UTC()
	upd := repository.ComplaintUpdate{
		EstimatedCompletion: in.EstimatedCompletion,
		AllowedFrom:         s.lifecycle.SourcesOf(in.Status),
	}
	setStatus(&upd, in.Status, now)
	if in.Notes != "" {
		upd.Note = &model.Note{Content: in.Notes, AddedBy: id.ID(), AddedAt: now}
	}

	c, err := s.update(ctx, complaintID, upd)
	if err != nil {
		return nil, err
	}
	ev := queue.EventStatusChanged
	if in.Status == model.StatusResolved {
		ev = queue.EventResolved
	}
	s.publish(ctx, ev, c, id)
	return s.users.view(ctx, c)
}

// Assign hands the complaint to a maintenance user and moves it to
// assigned. The complaint must exist before the assignee is checked.
func (s *complaintService) Assign(ctx context.Context, id Identity, complaintID, assigneeID string) (*model.ComplaintView, error) {
	if err := authorize(id, OpAssign); err != nil {
		return nil, err
	}
	current, err := s.find(ctx, complaintID)
	if err != nil {
		return nil, err
	}

	uid, err := uuid.Parse(assigneeID)
	if err != nil {
		return nil, newError(ErrValidation, "Invalid maintenance staff")
	}
	assignee, err := s.users.users.FindByID(ctx, uid)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && assignee.Role != model.RoleMaintenance) {
		return nil, newError(ErrValidation, "Invalid maintenance staff")
	}
	if err != nil {
		return nil, err
	}

	allowed := s.lifecycle.AssignableFrom()
	if !contains(allowed, current.Status) {
		return nil, transitionErr(current.Status, model.StatusAssigned)
	}

	target := assignee.ID.String()
	upd := repository.ComplaintUpdate{AssignedTo: &target, AllowedFrom: allowed}
	setStatus(&upd, model.StatusAssigned, s.now().UTC())
	c, err := s.update(ctx, complaintID, upd)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, queue.EventAssigned, c, id)
	return s.users.view(ctx, c)
}

// Resolve marks the complaint resolved with resolution notes. New after
// photos replace the previous set.
func (s *complaintService) Resolve(ctx context.Context, id Identity, complaintID string, in ResolveInput, uploads []storage.Upload) (*model.ComplaintView, error) {
	if err := authorize(id, OpResolve); err != nil {
		return nil, err
	}
	trim(&in.ResolutionNotes)
	if err := validateStruct(in).Err(); err != nil {
		return nil, err
	}

	current, err := s.find(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	allowed := s.lifecycle.ResolvableFrom()
	if !contains(allowed, current.Status) {
		return nil, transitionErr(current.Status, model.StatusResolved)
	}

	after, err := s.saveImages(ctx, uploads)
	if err != nil {
		return nil, err
	}

	upd := repository.ComplaintUpdate{
		ResolutionNotes: &in.ResolutionNotes,
		AllowedFrom:     allowed,
	}
	setStatus(&upd, model.StatusResolved, s.now().UTC())
	if len(after) > 0 {
		upd.AfterImages = after
	}

	c, err := s.update(ctx, complaintID, upd)
	if err != nil {
		s.images.Remove(ctx, after)
		return nil, err
	}
	if len(after) > 0 {
		s.images.Remove(ctx, current.Images.After)
	}
	s.publish(ctx, queue.EventResolved, c, id)
	return s.users.view(ctx, c)
}

// AddNote appends a note whatever the status. Any signed-in user may add
// one.
func (s *complaintService) AddNote(ctx context.Context, id Identity, complaintID, content string) (*model.ComplaintView, error) {
	if err := authorize(id, OpAddNote); err != nil {
		return nil, err
	}
	v := Violations{}
	if content = strings.TrimSpace(content); content == "" {
		v["content"] = "required"
	} else if len(content) > 1000 {
		v["content"] = "must be at most 1000 characters"
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	if _, err := s.find(ctx, complaintID); err != nil {
		return nil, err
	}
	c, err := s.update(ctx, complaintID, repository.ComplaintUpdate{
		Note: &model.Note{Content: content, AddedBy: id.ID(), AddedAt: s.now().UTC()},
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, queue.EventNoteAdded, c, id)
	return s.users.view(ctx, c)
}

// Delete removes the complaint and its photos. Admin only.
func (s *complaintService) Delete(ctx context.Context, id Identity, complaintID string) error {
	if err := authorize(id, OpDeleteComplaint); err != nil {
		return err
	}
	c, err := s.complaints.Delete(ctx, complaintID)
	if err != nil {
		return complaintErr(err)
	}
	s.images.Remove(ctx, append(append([]model.Image{}, c.Images.Before...), c.Images.After...))
	s.publish(ctx, queue.EventDeleted, c, id)
	return nil
}

// visible loads a complaint and applies the ownership rule.
func (s *complaintService) visible(ctx context.Context, id Identity, complaintID string) (*model.Complaint, error) {
	c, err := s.find(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	if !s.policy.CanView(id, c) {
		return nil, newError(ErrForbidden, "Access denied")
	}
	return c, nil
}

func (s *complaintService) find(ctx context.Context, complaintID string) (*model.Complaint, error) {
	c, err := s.complaints.FindByID(ctx, complaintID)
	if err != nil {
		return nil, complaintErr(err)
	}
	return c, nil
}

func (s *complaintService) update(ctx context.Context, complaintID string, upd repository.ComplaintUpdate) (*model.Complaint, error) {
	c, err := s.complaints.Update(ctx, complaintID, upd)
	if err != nil {
		return nil, complaintErr(err)
	}
	return c, nil
}

func (s *complaintService) saveImages(ctx context.Context, uploads []storage.Upload) ([]model.Image, error) {
	if len(uploads) == 0 {
		return []model.Image{}, nil
	}
	images, err := s.images.SaveImages(ctx, uploads)
	if errors.Is(err, storage.ErrInvalidUpload) {
		return nil, newError(ErrValidation, "%s", err.Error())
	}
	return images, err
}

// publish never fails the request.
func (s *complaintService) publish(ctx context.Context, t queue.EventType, c *model.Complaint, id Identity) {
	ev := queue.NewComplaintEvent(t, c, id.ID(), s.now())
	if err := s.events.Publish(ctx, ev); err != nil {
		slog.Warn("publish complaint event", "event", t, "complaint_id", ev.ComplaintID, "error", err)
	}
}

// setStatus moves upd to status to and keeps isResolved equal to
// status == resolved. Repeated resolves overwrite actualCompletion (last
// write wins). Reopening drops actualCompletion; closing keeps it.
func setStatus(upd *repository.ComplaintUpdate, to model.Status, now time.Time) {
	upd.Status = to
	resolved := to == model.StatusResolved
	upd.IsResolved = &resolved
	switch {
	case resolved:
		upd.ActualCompletion = &now
	case to != model.StatusClosed:
		upd.ClearCompletion = true
	}
}

func transitionErr(from, to model.Status) error {
	return newError(ErrInvalidTransition, "Cannot change status from %s to %s", from, to)
}

func complaintErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return newError(ErrNotFound, "Complaint not found")
	case errors.Is(err, repository.ErrStaleStatus):
		return newError(ErrConflict, "Complaint was changed by someone else, reload and retry")
	}
	return err
}
