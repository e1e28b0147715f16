package model

import (
	"github.com/google/uuid"
)

// PaymentMethod is enumerated per company and selectable exactly once per sale.
type PaymentMethod struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Description string    `gorm:"not null"`
}
