package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an account stored in PostgreSQL (table users).
// Complaints in MongoDB reference users by the string form of ID.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string    `gorm:"not null" json:"name"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Role         Role      `gorm:"type:varchar(20);not null;index" json:"role"`
	Phone        string    `json:"phone,omitempty"`
	Department   string    `json:"department,omitempty"`
	StudentID    string    `gorm:"column:student_id" json:"studentId,omitempty"`
	IsActive     bool      `gorm:"not null;default:true" json:"isActive"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// BeforeCreate assigns an ID and normalises the email.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.Email = NormalizeEmail(u.Email)
	return nil
}

// Public returns the identity fields safe to embed in complaint payloads.
func (u *User) Public() *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{ID: u.ID.String(), Name: u.Name, Email: u.Email}
}

// UserSummary is the populated form of a user reference.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// StaffContact is the row returned by the maintenance staff listing.
type StaffContact struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone,omitempty"`
	Department string    `json:"department,omitempty"`
}

// NormalizeEmail trims and lower-cases an address so lookups and the
// unique index agree.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
