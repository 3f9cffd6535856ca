package repository

import (
	"context"
	"errors"

	"fixitnow-backend/app/model"
	"fixitnow-backend/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserFilter narrows user listings. Zero values mean "no filter".
type UserFilter struct {
	Role model.Role
}

// ProfileUpdate holds the self-editable profile fields; nil means unchanged.
type ProfileUpdate struct {
	Name       *string
	Phone      *string
	Department *string
}

// UserRepository defines database operations for the User entity.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.User, error)
	List(ctx context.Context, filter UserFilter, page utils.Page) ([]model.User, int64, error)
	Count(ctx context.Context, filter UserFilter) (int64, error)
	ListMaintenance(ctx context.Context) ([]model.StaffContact, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, upd ProfileUpdate) (*model.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	UpdateRole(ctx context.Context, id uuid.UUID, role model.Role) (*model.User, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*model.User, error)
}

// userRepository is the gorm-backed UserRepository.
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a UserRepository over db. The db should be opened
// with TranslateError so unique violations surface as gorm.ErrDuplicatedKey.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user.
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}

// FindByID fetches one user by primary key.
func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// FindByEmail is used by login and duplicate checks. Matching is case-insensitive.
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("email = ?", model.NormalizeEmail(email)).
		First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// FindByIDs resolves a batch of references (complaint reporters/assignees).
func (r *userRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []model.User
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error
	return users, err
}

// List returns one page of users, newest first, plus the total match count.
func (r *userRepository) List(ctx context.Context, filter UserFilter, page utils.Page) ([]model.User, int64, error) {
	var total int64
	if err := r.scoped(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []model.User
	err := r.scoped(ctx, filter).
		Order("created_at DESC").
		Offset(int(page.Skip())).
		Limit(page.Limit).
		Find(&users).Error
	return users, total, err
}

// Count counts users matching filter.
func (r *userRepository) Count(ctx context.Context, filter UserFilter) (int64, error) {
	var total int64
	err := r.scoped(ctx, filter).Count(&total).Error
	return total, err
}

// ListMaintenance lists active maintenance accounts that can take assignments.
func (r *userRepository) ListMaintenance(ctx context.Context) ([]model.StaffContact, error) {
	var staff []model.StaffContact
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Select("id", "name", "email", "phone", "department").
		Where("role = ? AND is_active = ?", model.RoleMaintenance, true).
		Order("name ASC").
		Scan(&staff).Error
	return staff, err
}

// UpdateProfile changes name/phone/department. Email is never updated here.
func (r *userRepository) UpdateProfile(ctx context.Context, id uuid.UUID, upd ProfileUpdate) (*model.User, error) {
	changes := map[string]interface{}{}
	if upd.Name != nil {
		changes["name"] = *upd.Name
	}
	if upd.Phone != nil {
		changes["phone"] = *upd.Phone
	}
	if upd.Department != nil {
		changes["department"] = *upd.Department
	}
	if len(changes) == 0 {
		return r.FindByID(ctx, id)
	}
	return r.update(ctx, id, changes)
}

// UpdatePassword stores a new password hash.
func (r *userRepository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	_, err := r.update(ctx, id, map[string]interface{}{"password_hash": hash})
	return err
}

// UpdateRole changes the user's role (admin operation).
func (r *userRepository) UpdateRole(ctx context.Context, id uuid.UUID, role model.Role) (*model.User, error) {
	return r.update(ctx, id, map[string]interface{}{"role": role})
}

// SetActive activates or deactivates an account; accounts are never deleted.
func (r *userRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) (*model.User, error) {
	return r.update(ctx, id, map[string]interface{}{"is_active": active})
}

func (r *userRepository) update(ctx context.Context, id uuid.UUID, changes map[string]interface{}) (*model.User, error) {
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Updates(changes)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *userRepository) scoped(ctx context.Context, filter UserFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.User{})
	if filter.Role != "" {
		q = q.Where("role = ?", filter.Role)
	}
	return q
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
