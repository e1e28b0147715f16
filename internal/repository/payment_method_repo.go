package repository

import (
	"context"

	"github.com/Jvjesus89/ERPapp/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentMethodRepository interface {
	List(ctx context.Context, companyID uuid.UUID) ([]model.PaymentMethod, error)
	FindByIDTx(tx *gorm.DB, companyID, id uuid.UUID) (*model.PaymentMethod, error)
}

type paymentMethodRepo struct{ db *gorm.DB }

func NewPaymentMethodRepository(db *gorm.DB) PaymentMethodRepository {
	return &paymentMethodRepo{db: db}
}

func (r *paymentMethodRepo) List(ctx context.Context, companyID uuid.UUID) ([]model.PaymentMethod, error) {
	var methods []model.PaymentMethod
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("description ASC").
		Find(&methods).Error
	return methods, err
}

func (r *paymentMethodRepo) FindByIDTx(tx *gorm.DB, companyID, id uuid.UUID) (*model.PaymentMethod, error) {
	var pm model.PaymentMethod
	err := tx.Where("company_id = ? AND id = ?", companyID, id).First(&pm).Error
	if err != nil {
		return nil, err
	}
	return &pm, nil
}
