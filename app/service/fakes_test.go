package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"fixitnow-backend/app/model"
	"fixitnow-backend/app/repository"
	"fixitnow-backend/queue"
	"fixitnow-backend/storage"
	"fixitnow-backend/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// testHash is "secret1" at the cheapest bcrypt cost.
var testHash = func() string {
	b, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return string(b)
}()

type fakeUsers struct {
	mu    sync.Mutex
	byID  map[uuid.UUID]*model.User
	order []uuid.UUID
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[uuid.UUID]*model.User{}}
}

func (f *fakeUsers) add(name string, role model.Role) *model.User {
	u := &model.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        model.NormalizeEmail(name + "@campus.edu"),
		PasswordHash: testHash,
		Role:         role,
		IsActive:     true,
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[u.ID] = u
	f.order = append(f.order, u.ID)
	return u
}

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u.Email = model.NormalizeEmail(u.Email)
	for _, other := range f.byID {
		if other.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	cp := *u
	f.byID[u.ID] = &cp
	f.order = append(f.order, u.ID)
	return nil
}

func (f *fakeUsers) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email = model.NormalizeEmail(email)
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) FindByIDs(_ context.Context, ids []uuid.UUID) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.User
	for _, id := range ids {
		if u, ok := f.byID[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeUsers) matching(filter repository.UserFilter) []model.User {
	var out []model.User
	for i := len(f.order) - 1; i >= 0; i-- {
		u := f.byID[f.order[i]]
		if filter.Role == "" || u.Role == filter.Role {
			out = append(out, *u)
		}
	}
	return out
}

func (f *fakeUsers) List(_ context.Context, filter repository.UserFilter, page utils.Page) ([]model.User, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := f.matching(filter)
	start := int(page.Skip())
	if start > len(all) {
		start = len(all)
	}
	end := start + page.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], int64(len(all)), nil
}

func (f *fakeUsers) Count(_ context.Context, filter repository.UserFilter) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.matching(filter))), nil
}

func (f *fakeUsers) ListMaintenance(_ context.Context) ([]model.StaffContact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.StaffContact
	for _, u := range f.matching(repository.UserFilter{Role: model.RoleMaintenance}) {
		if u.IsActive {
			out = append(out, model.StaffContact{ID: u.ID, Name: u.Name, Email: u.Email})
		}
	}
	return out, nil
}

func (f *fakeUsers) mutate(id uuid.UUID, fn func(u *model.User)) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	fn(u)
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, id uuid.UUID, upd repository.ProfileUpdate) (*model.User, error) {
	return f.mutate(id, func(u *model.User) {
		if upd.Name != nil {
			u.Name = *upd.Name
		}
		if upd.Phone != nil {
			u.Phone = *upd.Phone
		}
		if upd.Department != nil {
			u.Department = *upd.Department
		}
	})
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	_, err := f.mutate(id, func(u *model.User) { u.PasswordHash = hash })
	return err
}

func (f *fakeUsers) UpdateRole(_ context.Context, id uuid.UUID, role model.Role) (*model.User, error) {
	return f.mutate(id, func(u *model.User) { u.Role = role })
}

func (f *fakeUsers) SetActive(_ context.Context, id uuid.UUID, active bool) (*model.User, error) {
	return f.mutate(id, func(u *model.User) { u.IsActive = active })
}

type fakeComplaints struct {
	mu   sync.Mutex
	byID map[string]*model.Complaint
}

func newFakeComplaints() *fakeComplaints {
	return &fakeComplaints{byID: map[string]*model.Complaint{}}
}

func clone(c *model.Complaint) *model.Complaint {
	cp := *c
	cp.Notes = append([]model.Note{}, c.Notes...)
	cp.Images.Before = append([]model.Image{}, c.Images.Before...)
	cp.Images.After = append([]model.Image{}, c.Images.After...)
	return &cp
}

func (f *fakeComplaints) Insert(_ context.Context, c *model.Complaint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = primitive.NewObjectID()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	c.UpdatedAt = c.CreatedAt
	f.byID[c.ID.Hex()] = clone(c)
	return nil
}

func (f *fakeComplaints) FindByID(_ context.Context, id string) (*model.Complaint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clone(c), nil
}

func (f *fakeComplaints) filtered(filter repository.ComplaintFilter) []model.Complaint {
	var out []model.Complaint
	for _, c := range f.byID {
		switch {
		case filter.ReportedBy != "" && c.ReportedBy != filter.ReportedBy,
			filter.AssignedTo != "" && c.AssignedTo != filter.AssignedTo,
			filter.Status != "" && c.Status != filter.Status,
			filter.Priority != "" && c.Priority != filter.Priority,
			filter.Category != "" && c.Category != filter.Category,
			filter.Building != "" && c.Location.Building != filter.Building,
			filter.Created.From != nil && c.CreatedAt.Before(*filter.Created.From),
			filter.Created.To != nil && c.CreatedAt.After(*filter.Created.To):
			continue
		}
		out = append(out, *clone(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (f *fakeComplaints) List(_ context.Context, filter repository.ComplaintFilter, page utils.Page) ([]model.Complaint, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := f.filtered(filter)
	start := int(page.Skip())
	if start > len(all) {
		start = len(all)
	}
	end := start + page.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], int64(len(all)), nil
}

func (f *fakeComplaints) Update(_ context.Context, id string, upd repository.ComplaintUpdate) (*model.Complaint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if !upd.Permits(c.Status) {
		return nil, repository.ErrStaleStatus
	}
	upd.Apply(c, time.Now().UTC())
	return clone(c), nil
}

func (f *fakeComplaints) Delete(_ context.Context, id string) (*model.Complaint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	delete(f.byID, id)
	return c, nil
}

func (f *fakeComplaints) FindForExport(_ context.Context, created repository.DateRange) ([]model.Complaint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.filtered(repository.ComplaintFilter{Created: created}), nil
}

// setStatus bypasses the service to put a complaint in a given state.
func (f *fakeComplaints) setStatus(id string, s model.Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[id].Status = s
}

type fakeImages struct {
	saved   []storage.Upload
	removed []model.Image
	err     error
}

func (f *fakeImages) SaveImages(_ context.Context, uploads []storage.Upload) ([]model.Image, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.saved = append(f.saved, uploads...)
	out := make([]model.Image, 0, len(uploads))
	for _, u := range uploads {
		out = append(out, model.Image{Filename: u.Name, Path: "/uploads/" + u.Name, UploadedAt: time.Now().UTC()})
	}
	return out, nil
}

func (f *fakeImages) Remove(_ context.Context, images []model.Image) {
	f.removed = append(f.removed, images...)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.ComplaintEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.ComplaintEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []queue.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]queue.EventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type fakeReports struct {
	counts repository.ComplaintCounts
	groups map[string][]repository.GroupCount
	avg    float64
	ranges []repository.DateRange
}

func (f *fakeReports) Overview(context.Context) (*repository.ComplaintCounts, error) {
	c := f.counts
	return &c, nil
}

func (f *fakeReports) CountByField(_ context.Context, field string) ([]repository.GroupCount, error) {
	return f.groups[field], nil
}

func (f *fakeReports) MonthlyTrend(_ context.Context, r repository.DateRange) ([]repository.MonthCount, error) {
	f.ranges = append(f.ranges, r)
	return []repository.MonthCount{{ID: repository.Month{Year: 2026, Month: 1}, Count: 2}}, nil
}

func (f *fakeReports) AverageResolutionDays(context.Context, repository.DateRange) (float64, error) {
	return f.avg, nil
}

func (f *fakeReports) TopLocations(context.Context, repository.DateRange, int) ([]repository.LocationCount, error) {
	return []repository.LocationCount{}, nil
}

func (f *fakeReports) StatusOverTime(context.Context, repository.DateRange) ([]repository.StatusMonthCount, error) {
	return []repository.StatusMonthCount{}, nil
}

func identity(u *model.User) Identity {
	return Identity{UserID: u.ID, Role: u.Role}
}
