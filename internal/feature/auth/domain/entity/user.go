// Package entity defines the domain entities for the auth feature.
package entity

import (
	"time"

	"pricing_backend/internal/shared/authz"
)

// User represents a registered account.
// A user is created inactive and becomes active once its email is verified.
type User struct {
	ID uint `gorm:"primaryKey"`

	// Email is the login key. It is stored normalized (domain lower-cased).
	Email string `gorm:"uniqueIndex;size:255;not null"`

	Username string `gorm:"uniqueIndex;size:150;not null"`

	// Password is the bcrypt hash, never plaintext.
	Password string `gorm:"size:255;not null"`

	Role authz.Role `gorm:"size:50;not null;default:buyer"`

	IsActive    bool `gorm:"not null;default:false"`
	IsStaff     bool `gorm:"not null;default:false"`
	IsSuperuser bool `gorm:"not null;default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
