package repository

import (
	"context"

	"github.com/Jvjesus89/ERPapp/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CustomerRepository interface {
	// FindByNameExactTx matches the full name case-insensitively.
	FindByNameExactTx(tx *gorm.DB, companyID uuid.UUID, name string) (*model.Customer, error)
	// FindByNameLikeTx returns the first case-insensitive substring match.
	FindByNameLikeTx(tx *gorm.DB, companyID uuid.UUID, name string) (*model.Customer, error)
	CreateTx(tx *gorm.DB, c *model.Customer) error
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*model.Customer, error)
}

type customerRepo struct{ db *gorm.DB }

func NewCustomerRepository(db *gorm.DB) CustomerRepository { return &customerRepo{db: db} }

func (r *customerRepo) FindByNameExactTx(tx *gorm.DB, companyID uuid.UUID, name string) (*model.Customer, error) {
	var c model.Customer
	err := tx.Where("company_id = ? AND name ILIKE ?", companyID, name).First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *customerRepo) FindByNameLikeTx(tx *gorm.DB, companyID uuid.UUID, name string) (*model.Customer, error) {
	var c model.Customer
	err := tx.Where("company_id = ? AND name ILIKE ?", companyID, "%"+name+"%").
		Order("created_at ASC").
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *customerRepo) CreateTx(tx *gorm.DB, c *model.Customer) error {
	return tx.Create(c).Error
}

func (r *customerRepo) FindByID(ctx context.Context, companyID, id uuid.UUID) (*model.Customer, error) {
	var c model.Customer
	err := r.db.WithContext(ctx).Where("company_id = ? AND id = ?", companyID, id).First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}
