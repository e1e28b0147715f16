package model

import (
	"time"

	"github.com/google/uuid"
)

// Customer is looked up case-insensitively by name during sale finalization
// and created on demand when no match exists. No uniqueness is enforced —
// duplicate near-matches are possible, resolution takes the first match.
type Customer struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"index;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
