package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog row. Code is an optional external barcode/GTIN,
// Price is nullable (products without a fixed price get one at sale time).
type Product struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID   uuid.UUID        `gorm:"type:uuid;not null;index"`
	Code        *string          `gorm:"index"`
	Description string           `gorm:"index;not null"`
	Price       *decimal.Decimal `gorm:"type:decimal(12,2)"`
	ImageURL    *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
