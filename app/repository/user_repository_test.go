package repository

import (
	"context"
	"testing"
	"time"

	"fixitnow-backend/app/model"
	"fixitnow-backend/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// each pooled connection would otherwise get its own empty database
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&model.User{}))
	return db
}

func seedUser(t *testing.T, repo UserRepository, name, email string, role model.Role, created time.Time) *model.User {
	t.Helper()
	u := &model.User{Name: name, Email: email, PasswordHash: "x", Role: role, IsActive: true, CreatedAt: created}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func TestUserRepository_CreateAndFind(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	u := seedUser(t, repo, "Ana", "  Ana@Campus.EDU ", model.RoleStudent, time.Now())
	assert.NotEqual(t, uuid.Nil, u.ID)
	assert.Equal(t, "ana@campus.edu", u.Email)

	got, err := repo.FindByEmail(ctx, "ANA@campus.edu")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, model.RoleStudent, got.Role)

	got, err = repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.Name)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	seedUser(t, repo, "Ana", "ana@campus.edu", model.RoleStudent, time.Now())

	err := repo.Create(context.Background(), &model.User{Name: "Other", Email: "ANA@campus.edu", PasswordHash: "x", Role: model.RoleStaff})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestUserRepository_ListAndCount(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	seedUser(t, repo, "S1", "s1@x.edu", model.RoleStudent, base)
	seedUser(t, repo, "S2", "s2@x.edu", model.RoleStudent, base.Add(time.Hour))
	seedUser(t, repo, "M1", "m1@x.edu", model.RoleMaintenance, base.Add(2*time.Hour))

	users, total, err := repo.List(ctx, UserFilter{}, utils.Page{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, users, 2)
	assert.Equal(t, "M1", users[0].Name)
	assert.Equal(t, "S2", users[1].Name)

	users, total, err = repo.List(ctx, UserFilter{Role: model.RoleStudent}, utils.Page{Page: 2, Limit: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, users, 1)
	assert.Equal(t, "S1", users[0].Name)

	n, err := repo.Count(ctx, UserFilter{Role: model.RoleMaintenance})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestUserRepository_ListMaintenanceActiveOnly(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	bob := seedUser(t, repo, "Bob", "bob@x.edu", model.RoleMaintenance, time.Now())
	carl := seedUser(t, repo, "Carl", "carl@x.edu", model.RoleMaintenance, time.Now())
	seedUser(t, repo, "Ana", "ana@x.edu", model.RoleStudent, time.Now())

	_, err := repo.SetActive(ctx, carl.ID, false)
	require.NoError(t, err)

	staff, err := repo.ListMaintenance(ctx)
	require.NoError(t, err)
	require.Len(t, staff, 1)
	assert.Equal(t, bob.ID, staff[0].ID)
	assert.Equal(t, "bob@x.edu", staff[0].Email)
}

func TestUserRepository_Updates(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()
	u := seedUser(t, repo, "Ana", "ana@x.edu", model.RoleStudent, time.Now())

	name, phone := "Ana Maria", "555-0101"
	got, err := repo.UpdateProfile(ctx, u.ID, ProfileUpdate{Name: &name, Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", got.Name)
	assert.Equal(t, "555-0101", got.Phone)
	assert.Equal(t, "ana@x.edu", got.Email)

	got, err = repo.UpdateRole(ctx, u.ID, model.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, got.Role)

	got, err = repo.SetActive(ctx, u.ID, false)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	require.NoError(t, repo.UpdatePassword(ctx, u.ID, "new-hash"))
	got, err = repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.PasswordHash)

	_, err = repo.SetActive(ctx, uuid.New(), true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepository_FindByIDs(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()
	a := seedUser(t, repo, "A", "a@x.edu", model.RoleStudent, time.Now())
	b := seedUser(t, repo, "B", "b@x.edu", model.RoleStaff, time.Now())
	seedUser(t, repo, "C", "c@x.edu", model.RoleStaff, time.Now())

	users, err := repo.FindByIDs(ctx, []uuid.UUID{a.ID, b.ID, uuid.New()})
	require.NoError(t, err)
	assert.Len(t, users, 2)

	users, err = repo.FindByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, users)
}
