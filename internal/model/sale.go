package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sale is a persisted sale. Total is always recomputed from the items, never
// edited independently. PaymentMethodID is nil until the sale is finalized.
type Sale struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	CustomerID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	PaymentMethodID *uuid.UUID      `gorm:"type:uuid"`
	Total           decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	CreatedAt       time.Time

	Customer      *Customer      `gorm:"foreignKey:CustomerID"`
	PaymentMethod *PaymentMethod `gorm:"foreignKey:PaymentMethodID"`
	Items         []SaleItem     `gorm:"foreignKey:SaleID"`
}

// SaleItem is a persisted line item. Description is denormalized from the
// product at insert time for display. Subtotal arithmetic lives in the sale
// package; the stored values are kept exactly as entered (no clamping).
type SaleItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	SaleID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null"`
	Description string          `gorm:"not null"`
	Quantity    decimal.Decimal `gorm:"type:decimal(12,3);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Discount    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`

	Product *Product `gorm:"foreignKey:ProductID"`
}
