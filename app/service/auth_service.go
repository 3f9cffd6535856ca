package service

import (
	"context"
	"errors"
	"time"

	"fixitnow-backend/app/model"
	"fixitnow-backend/app/repository"
	"fixitnow-backend/utils"
)

// RegisterInput is the self-registration form. Only students and staff
// may register themselves.
type RegisterInput struct {
	Name       string     `json:"name" validate:"required,max=100"`
	Email      string     `json:"email" validate:"required,email"`
	Password   string     `json:"password" validate:"required,min=6"`
	Role       model.Role `json:"role" validate:"omitempty,oneof=student staff"`
	Phone      string     `json:"phone"`
	Department string     `json:"department"`
	StudentID  string     `json:"studentId"`
}

// ProfileInput carries the editable profile fields.
type ProfileInput struct {
	Name       *string `json:"name" validate:"omitempty,min=1,max=100"`
	Phone      *string `json:"phone"`
	Department *string `json:"department"`
}

// ChangePasswordInput requires the current password before setting a new one.
type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

// AuthResult is returned by register and login.
type AuthResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      *model.User `json:"user"`
}

// Session is the client's view of who is logged in and what it may open.
type Session struct {
	User  *model.User `json:"user"`
	Views []View      `json:"views"`
}

// AuthService covers account self-service and token handling.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	// Authenticate resolves a bearer token to an active user.
	Authenticate(ctx context.Context, token string) (*model.User, *utils.JWTCustomClaims, error)
	Me(ctx context.Context, id Identity) (*Session, error)
	UpdateProfile(ctx context.Context, id Identity, in ProfileInput) (*model.User, error)
	ChangePassword(ctx context.Context, id Identity, in ChangePasswordInput) error
	Logout(ctx context.Context, claims *utils.JWTCustomClaims) error
}

type authService struct {
	users  repository.UserRepository
	tokens repository.TokenRepository
	jwt    *utils.JWTManager
}

// NewAuthService wires the user store, token revocation list and JWT signer.
func NewAuthService(users repository.UserRepository, tokens repository.TokenRepository, jwt *utils.JWTManager) AuthService {
	return &authService{users: users, tokens: tokens, jwt: jwt}
}

// Register creates an account (student unless a role is given) and signs
// a token for it. Emails are unique, case-insensitively.
func (s *authService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	trim(&in.Name, &in.Email, &in.Phone, &in.Department, &in.StudentID)
	in.Email = model.NormalizeEmail(in.Email)
	if in.Role == "" {
		in.Role = model.RoleStudent
	}

	v := validateStruct(in)
	if in.Role == model.RoleStudent && in.StudentID == "" {
		v["studentId"] = "required"
	}
	if in.Role == model.RoleStaff && in.Department == "" {
		v["department"] = "required"
	}
	if err := v.Err(); err != nil {
		return nil, err
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
		StudentID:    in.StudentID,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, newError(ErrConflict, "User already exists")
		}
		return nil, err
	}
	return s.issue(user)
}

// Login checks the password with bcrypt. Unknown emails and wrong
// passwords share one message.
func (s *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newError(ErrUnauthorized, "Invalid credentials")
	}
	if err != nil {
		return nil, err
	}
	if !utils.VerifyPassword(user.PasswordHash, password) {
		return nil, newError(ErrUnauthorized, "Invalid credentials")
	}
	if !user.IsActive {
		return nil, newError(ErrUnauthorized, "Account is deactivated")
	}
	return s.issue(user)
}

// Authenticate validates a bearer token, rejects revoked ones and
// reloads the user so role changes and deactivation apply at once.
func (s *authService) Authenticate(ctx context.Context, token string) (*model.User, *utils.JWTCustomClaims, error) {
	claims, err := s.jwt.ValidateToken(token)
	if err != nil {
		return nil, nil, newError(ErrUnauthorized, "Token is not valid")
	}

	revoked, err := s.tokens.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, nil, err
	}
	if revoked {
		return nil, nil, newError(ErrUnauthorized, "Token has been revoked")
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, newError(ErrUnauthorized, "Token is not valid")
	}
	if err != nil {
		return nil, nil, err
	}
	if !user.IsActive {
		return nil, nil, newError(ErrUnauthorized, "Account is deactivated")
	}
	return user, claims, nil
}

func (s *authService) Me(ctx context.Context, id Identity) (*Session, error) {
	user, err := s.users.FindByID(ctx, id.UserID)
	if err != nil {
		return nil, userErr(err)
	}
	return &Session{User: user, Views: ViewsFor(user.Role)}, nil
}

// UpdateProfile never touches email or role.
func (s *authService) UpdateProfile(ctx context.Context, id Identity, in ProfileInput) (*model.User, error) {
	for _, p := range []*string{in.Name, in.Phone, in.Department} {
		if p != nil {
			trim(p)
		}
	}
	if err := validateStruct(in).Err(); err != nil {
		return nil, err
	}
	user, err := s.users.UpdateProfile(ctx, id.UserID, repository.ProfileUpdate{
		Name:       in.Name,
		Phone:      in.Phone,
		Department: in.Department,
	})
	if err != nil {
		return nil, userErr(err)
	}
	return user, nil
}

// ChangePassword verifies the current password first.
func (s *authService) ChangePassword(ctx context.Context, id Identity, in ChangePasswordInput) error {
	if err := validateStruct(in).Err(); err != nil {
		return err
	}
	user, err := s.users.FindByID(ctx, id.UserID)
	if err != nil {
		return userErr(err)
	}
	if !utils.VerifyPassword(user.PasswordHash, in.CurrentPassword) {
		return newError(ErrValidation, "Current password is incorrect")
	}
	hash, err := utils.HashPassword(in.NewPassword)
	if err != nil {
		return err
	}
	return userErr(s.users.UpdatePassword(ctx, id.UserID, hash))
}

// Logout revokes the token for the rest of its lifetime.
func (s *authService) Logout(ctx context.Context, claims *utils.JWTCustomClaims) error {
	if claims == nil || claims.ID == "" {
		return nil
	}
	return s.tokens.Revoke(ctx, claims.ID, claims.Remaining())
}

func (s *authService) issue(user *model.User) (*AuthResult, error) {
	token, claims, err := s.jwt.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, ExpiresAt: claims.ExpiresAt.Time, User: user}, nil
}

func userErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return newError(ErrNotFound, "User not found")
	}
	return err
}
