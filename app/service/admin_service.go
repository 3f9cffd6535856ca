package service

import (
	"context"
	"errors"

	"fixitnow-backend/app/model"
	"fixitnow-backend/app/repository"
	"fixitnow-backend/utils"

	"github.com/google/uuid"
)

// CreateStaffInput creates a staff, maintenance or admin account.
type CreateStaffInput struct {
	Name       string     `json:"name" validate:"required,max=100"`
	Email      string     `json:"email" validate:"required,email"`
	Password   string     `json:"password" validate:"required,min=6"`
	Phone      string     `json:"phone"`
	Department string     `json:"department"`
	Role       model.Role `json:"role" validate:"omitempty,oneof=staff maintenance admin"`
}

// UserPage is one page of the user listing.
type UserPage struct {
	Users      []model.User     `json:"users"`
	Pagination utils.Pagination `json:"pagination"`
}

// AdminService manages accounts on behalf of staff and admins.
type AdminService interface {
	ListUsers(ctx context.Context, id Identity, role model.Role, page utils.Page) (*UserPage, error)
	ListMaintenance(ctx context.Context, id Identity) ([]model.StaffContact, error)
	CreateStaff(ctx context.Context, id Identity, in CreateStaffInput) (*model.User, error)
	SetUserActive(ctx context.Context, id Identity, userID string, active bool) (*model.User, error)
	SetUserRole(ctx context.Context, id Identity, userID string, role model.Role) (*model.User, error)
}

type adminService struct {
	users repository.UserRepository
}

// NewAdminService builds the user administration service.
func NewAdminService(users repository.UserRepository) AdminService {
	return &adminService{users: users}
}

// ListUsers pages through users, optionally narrowed to one role.
func (s *adminService) ListUsers(ctx context.Context, id Identity, role model.Role, page utils.Page) (*UserPage, error) {
	if err := authorize(id, OpManageUsers); err != nil {
		return nil, err
	}
	if role != "" && !role.Valid() {
		return nil, Violations{"role": "invalid role"}
	}
	users, total, err := s.users.List(ctx, repository.UserFilter{Role: role}, page)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []model.User{}
	}
	return &UserPage{Users: users, Pagination: utils.NewPagination(page, total)}, nil
}

// ListMaintenance returns active maintenance staff for the assign picker.
func (s *adminService) ListMaintenance(ctx context.Context, id Identity) ([]model.StaffContact, error) {
	if err := authorize(id, OpManageUsers); err != nil {
		return nil, err
	}
	staff, err := s.users.ListMaintenance(ctx)
	if err != nil {
		return nil, err
	}
	if staff == nil {
		staff = []model.StaffContact{}
	}
	return staff, nil
}

// CreateStaff only lets admins mint other admins.
func (s *adminService) CreateStaff(ctx context.Context, id Identity, in CreateStaffInput) (*model.User, error) {
	if err := authorize(id, OpManageUsers); err != nil {
		return nil, err
	}
	trim(&in.Name, &in.Email, &in.Phone, &in.Department)
	in.Email = model.NormalizeEmail(in.Email)
	if in.Role == "" {
		in.Role = model.RoleStaff
	}
	if err := validateStruct(in).Err(); err != nil {
		return nil, err
	}
	if in.Role == model.RoleAdmin && id.Role != model.RoleAdmin {
		return nil, newError(ErrForbidden, "Only admins can create admin accounts")
	}

	if _, err := s.users.FindByEmail(ctx, in.Email); err == nil {
		return nil, newError(ErrConflict, "User already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
		Phone:        in.Phone,
		Department:   in.Department,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, newError(ErrConflict, "User already exists")
		}
		return nil, err
	}
	return user, nil
}

// SetUserActive (de)activates an account. Admins cannot deactivate
// themselves.
func (s *adminService) SetUserActive(ctx context.Context, id Identity, userID string, active bool) (*model.User, error) {
	if err := authorize(id, OpManageUsers); err != nil {
		return nil, err
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, newError(ErrNotFound, "User not found")
	}
	if uid == id.UserID && !active {
		return nil, newError(ErrValidation, "You cannot deactivate your own account")
	}
	user, err := s.users.SetActive(ctx, uid, active)
	if err != nil {
		return nil, userErr(err)
	}
	return user, nil
}

// SetUserRole changes a user's role. Admin only.
func (s *adminService) SetUserRole(ctx context.Context, id Identity, userID string, role model.Role) (*model.User, error) {
	if err := authorize(id, OpChangeUserRole); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, Violations{"role": "invalid role"}
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, newError(ErrNotFound, "User not found")
	}
	user, err := s.users.UpdateRole(ctx, uid, role)
	if err != nil {
		return nil, userErr(err)
	}
	return user, nil
}
