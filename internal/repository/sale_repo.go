package repository

import (
	"context"

	"github.com/Jvjesus89/ERPapp/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SaleRepository interface {
	CreateTx(tx *gorm.DB, s *model.Sale) error
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*model.Sale, error)
	List(ctx context.Context, companyID uuid.UUID) ([]model.Sale, error)
	AddItemTx(tx *gorm.DB, item *model.SaleItem) error
	UpdateItemTx(tx *gorm.DB, item *model.SaleItem) error
	DeleteItemTx(tx *gorm.DB, companyID, saleID, itemID uuid.UUID) error
	ListItemsTx(tx *gorm.DB, companyID, saleID uuid.UUID) ([]model.SaleItem, error)
	FindItemTx(tx *gorm.DB, companyID, saleID, itemID uuid.UUID) (*model.SaleItem, error)
	// UpdateTotalTx persists a recomputed total; the optional payment method
	// rides in the same mutation at finalization.
	UpdateTotalTx(tx *gorm.DB, companyID, id uuid.UUID, total decimal.Decimal, paymentMethodID *uuid.UUID) error
	// DeleteTx cascades: items first, then the sale row.
	DeleteTx(tx *gorm.DB, companyID, id uuid.UUID) error
	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type saleRepo struct{ db *gorm.DB }

func NewSaleRepository(db *gorm.DB) SaleRepository { return &saleRepo{db: db} }

func (r *saleRepo) DB() *gorm.DB { return r.db }

func (r *saleRepo) CreateTx(tx *gorm.DB, s *model.Sale) error {
	return tx.Create(s).Error
}

func (r *saleRepo) FindByID(ctx context.Context, companyID, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	err := r.db.WithContext(ctx).
		Preload("Items").Preload("Customer").Preload("PaymentMethod").
		Where("company_id = ? AND id = ?", companyID, id).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *saleRepo) List(ctx context.Context, companyID uuid.UUID) ([]model.Sale, error) {
	var sales []model.Sale
	err := r.db.WithContext(ctx).
		Preload("Items").Preload("Customer").
		Where("company_id = ?", companyID).
		Order("created_at DESC").
		Find(&sales).Error
	return sales, err
}

func (r *saleRepo) AddItemTx(tx *gorm.DB, item *model.SaleItem) error {
	return tx.Create(item).Error
}

func (r *saleRepo) UpdateItemTx(tx *gorm.DB, item *model.SaleItem) error {
	return tx.Save(item).Error
}

func (r *saleRepo) DeleteItemTx(tx *gorm.DB, companyID, saleID, itemID uuid.UUID) error {
	res := tx.Where("company_id = ? AND sale_id = ? AND id = ?", companyID, saleID, itemID).
		Delete(&model.SaleItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *saleRepo) ListItemsTx(tx *gorm.DB, companyID, saleID uuid.UUID) ([]model.SaleItem, error) {
	var items []model.SaleItem
	err := tx.Where("company_id = ? AND sale_id = ?", companyID, saleID).
		Order("id ASC").
		Find(&items).Error
	return items, err
}

func (r *saleRepo) FindItemTx(tx *gorm.DB, companyID, saleID, itemID uuid.UUID) (*model.SaleItem, error) {
	var item model.SaleItem
	err := tx.Where("company_id = ? AND sale_id = ? AND id = ?", companyID, saleID, itemID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *saleRepo) UpdateTotalTx(tx *gorm.DB, companyID, id uuid.UUID, total decimal.Decimal, paymentMethodID *uuid.UUID) error {
	updates := map[string]interface{}{"total": total}
	if paymentMethodID != nil {
		updates["payment_method_id"] = *paymentMethodID
	}
	res := tx.Model(&model.Sale{}).
		Where("company_id = ? AND id = ?", companyID, id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *saleRepo) DeleteTx(tx *gorm.DB, companyID, id uuid.UUID) error {
	if err := tx.Where("company_id = ? AND sale_id = ?", companyID, id).
		Delete(&model.SaleItem{}).Error; err != nil {
		return err
	}
	res := tx.Where("company_id = ? AND id = ?", companyID, id).Delete(&model.Sale{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
