package repository

import (
	"context"

	"github.com/Jvjesus89/ERPapp/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FinancialEntryRepository interface {
	CreateTx(tx *gorm.DB, e *model.FinancialEntry) error
	// DeleteBySaleTx removes the entries generated by a sale so a repeated
	// finalization replaces its ledger row instead of stacking duplicates.
	DeleteBySaleTx(tx *gorm.DB, companyID, saleID uuid.UUID) error
	// List returns entries joined with customer and payment method, ordered
	// by due date descending. customerSearch filters by case-insensitive
	// substring on the customer name.
	List(ctx context.Context, companyID uuid.UUID, customerSearch string) ([]model.FinancialEntry, error)
}

type financialRepo struct{ db *gorm.DB }

func NewFinancialEntryRepository(db *gorm.DB) FinancialEntryRepository {
	return &financialRepo{db: db}
}

func (r *financialRepo) CreateTx(tx *gorm.DB, e *model.FinancialEntry) error {
	return tx.Create(e).Error
}

func (r *financialRepo) DeleteBySaleTx(tx *gorm.DB, companyID, saleID uuid.UUID) error {
	return tx.Where("company_id = ? AND sale_id = ?", companyID, saleID).
		Delete(&model.FinancialEntry{}).Error
}

func (r *financialRepo) List(ctx context.Context, companyID uuid.UUID, customerSearch string) ([]model.FinancialEntry, error) {
	var entries []model.FinancialEntry
	q := r.db.WithContext(ctx).
		Preload("Customer").Preload("PaymentMethod").
		Where("financial_entries.company_id = ?", companyID)
	if customerSearch != "" {
		q = q.Joins("JOIN customers ON customers.id = financial_entries.customer_id").
			Where("customers.name ILIKE ?", "%"+customerSearch+"%")
	}
	err := q.Order("financial_entries.due_date DESC").Find(&entries).Error
	return entries, err
}
