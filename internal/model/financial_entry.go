package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FinancialEntry is an immutable ledger row generated when a sale is
// finalized. The ledger screen only reads these — there is no mutation path.
// Kind: "receivable" (the only kind sales generate today).
type FinancialEntry struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	SaleID          *uuid.UUID      `gorm:"type:uuid;index"`
	CustomerID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	PaymentMethodID *uuid.UUID      `gorm:"type:uuid"`
	Amount          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Kind            string          `gorm:"type:varchar(20);not null;default:'receivable'"`
	DueDate         time.Time       `gorm:"not null;index"`
	CreatedAt       time.Time

	Customer      *Customer      `gorm:"foreignKey:CustomerID"`
	PaymentMethod *PaymentMethod `gorm:"foreignKey:PaymentMethodID"`
}
