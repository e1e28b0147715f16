package model

import (
	"time"

	"github.com/google/uuid"
)

// Company is the tenant. Every domain row carries a CompanyID and every
// repository query is scoped by it — the server-side equivalent of the
// row-level security the mobile client used to rely on.
type Company struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
