package service

import (
	"context"
	"testing"
	"time"

	"fixitnow-backend/app/model"
	"fixitnow-backend/app/repository"
	"fixitnow-backend/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuth(t *testing.T) (AuthService, *fakeUsers) {
	t.Helper()
	users := newFakeUsers()
	svc := NewAuthService(users, repository.NewTokenRepository(nil), utils.NewJWTManager("test-secret", time.Hour))
	return svc, users
}

func TestRegister(t *testing.T) {
	svc, _ := newAuth(t)
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterInput{Name: "Sam", Email: " Sam@Campus.edu ", Password: "secret1", StudentID: "S-1"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, model.RoleStudent, res.User.Role)
	assert.Equal(t, "sam@campus.edu", res.User.Email)
	assert.NotEqual(t, "secret1", res.User.PasswordHash)

	_, err = svc.Register(ctx, RegisterInput{Name: "Sam2", Email: "sam@campus.edu", Password: "secret1", StudentID: "S-2"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newAuth(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Name: "X", Email: "bad", Password: "123"})
	require.ErrorIs(t, err, ErrValidation)
	v := err.(Violations)
	assert.Contains(t, v, "email")
	assert.Contains(t, v, "password")
	assert.Contains(t, v, "studentId")

	_, err = svc.Register(ctx, RegisterInput{Name: "X", Email: "x@campus.edu", Password: "secret1", Role: model.RoleStaff})
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.(Violations), "department")

	_, err = svc.Register(ctx, RegisterInput{Name: "X", Email: "x@campus.edu", Password: "secret1", Role: model.RoleAdmin})
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.(Violations), "role")
}

func TestLogin(t *testing.T) {
	svc, users := newAuth(t)
	ctx := context.Background()
	u := users.add("Max", model.RoleMaintenance)

	res, err := svc.Login(ctx, "MAX@campus.edu", "secret1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, res.User.ID)

	_, err = svc.Login(ctx, "max@campus.edu", "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = svc.Login(ctx, "nobody@campus.edu", "secret1")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = users.SetActive(ctx, u.ID, false)
	require.NoError(t, err)
	_, err = svc.Login(ctx, "max@campus.edu", "secret1")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.EqualError(t, err, "Account is deactivated")
}

func TestAuthenticate_AndLogout(t *testing.T) {
	svc, users := newAuth(t)
	ctx := context.Background()
	u := users.add("Ada", model.RoleAdmin)

	res, err := svc.Login(ctx, "ada@campus.edu", "secret1")
	require.NoError(t, err)

	got, claims, err := svc.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	require.NoError(t, svc.Logout(ctx, claims))
	_, _, err = svc.Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, _, err = svc.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthenticate_DeactivatedUser(t *testing.T) {
	svc, users := newAuth(t)
	ctx := context.Background()
	u := users.add("Sam", model.RoleStudent)
	res, err := svc.Login(ctx, "sam@campus.edu", "secret1")
	require.NoError(t, err)

	_, err = users.SetActive(ctx, u.ID, false)
	require.NoError(t, err)
	_, _, err = svc.Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestMe_ProfileAndPassword(t *testing.T) {
	svc, users := newAuth(t)
	ctx := context.Background()
	u := users.add("Stan", model.RoleStaff)
	id := identity(u)

	s, err := svc.Me(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, u.ID, s.User.ID)
	assert.Equal(t, ViewsFor(model.RoleStaff), s.Views)

	name := "  Stanley "
	updated, err := svc.UpdateProfile(ctx, id, ProfileInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Stanley", updated.Name)
	assert.Equal(t, u.Email, updated.Email)

	err = svc.ChangePassword(ctx, id, ChangePasswordInput{CurrentPassword: "wrong", NewPassword: "newpass"})
	assert.ErrorIs(t, err, ErrValidation)
	require.NoError(t, svc.ChangePassword(ctx, id, ChangePasswordInput{CurrentPassword: "secret1", NewPassword: "newpass"}))

	_, err = svc.Login(ctx, u.Email, "newpass")
	assert.NoError(t, err)
}
