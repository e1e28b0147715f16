package model

import (
	"time"

	"github.com/google/uuid"
)

// User is the authentication identity (email + bcrypt hash).
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Email        string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	Active       bool      `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Company *Company `gorm:"foreignKey:CompanyID"`
}

// Profile is the display-facing user record, kept separate from the auth
// identity. Its insert on signup is best-effort: a failure is logged but the
// account is kept.
type Profile struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID    uuid.UUID `gorm:"type:uuid;not null;index"`
	UserID       uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	Name         string    `gorm:"not null"`
	Email        string    `gorm:"index;not null"`
	RegisteredAt time.Time `gorm:"not null"`
}
