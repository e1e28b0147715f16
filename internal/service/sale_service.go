package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Jvjesus89/ERPapp/internal/dto"
	"github.com/Jvjesus89/ERPapp/internal/model"
	"github.com/Jvjesus89/ERPapp/internal/repository"
	"github.com/Jvjesus89/ERPapp/internal/sale"
	"github.com/Jvjesus89/ERPapp/internal/worker"
)

var (
	ErrSaleNotFound          = errors.New("sale not found")
	ErrItemNotFound          = errors.New("sale item not found")
	ErrLineNotFound          = errors.New("draft line not found")
	ErrProductNotFound       = errors.New("product not found")
	ErrPaymentMethodNotFound = errors.New("payment method not found")
	ErrSaleHasNoItems        = errors.New("sale has no items")
)

// Tenant is the authenticated scope every operation runs under. Extracted
// from JWT claims by the handlers.
type Tenant struct {
	CompanyID uuid.UUID
	UserID    uuid.UUID
}

type SaleService interface {
	// Draft workflow — nothing below touches the database until FinalizeDraft.
	StartDraft(ctx context.Context, t Tenant, req dto.StartDraftRequest) (*dto.DraftResponse, error)
	GetDraft(ctx context.Context, t Tenant) (*dto.DraftResponse, error)
	UpsertDraftLine(ctx context.Context, t Tenant, req dto.DraftLineRequest) (*dto.DraftResponse, error)
	RemoveDraftLine(ctx context.Context, t Tenant, lineID int64) (*dto.DraftResponse, error)
	CancelDraft(ctx context.Context, t Tenant) error
	// FinalizeDraft commits the draft in one transaction. An empty draft is
	// silently discarded: (nil, nil) so the handler can answer 204.
	FinalizeDraft(ctx context.Context, t Tenant, req dto.FinalizeRequest) (*dto.SaleResponse, error)

	// Persisted sales.
	List(ctx context.Context, t Tenant) (*dto.SaleListResponse, error)
	Get(ctx context.Context, t Tenant, id uuid.UUID) (*dto.SaleResponse, error)
	AddItem(ctx context.Context, t Tenant, saleID uuid.UUID, req dto.SaleItemRequest) (*dto.SaleResponse, error)
	UpdateItem(ctx context.Context, t Tenant, saleID, itemID uuid.UUID, req dto.SaleItemRequest) (*dto.SaleResponse, error)
	RemoveItem(ctx context.Context, t Tenant, saleID, itemID uuid.UUID) (*dto.SaleResponse, error)
	Finalize(ctx context.Context, t Tenant, saleID uuid.UUID, req dto.FinalizeRequest) (*dto.SaleResponse, error)
	Delete(ctx context.Context, t Tenant, saleID uuid.UUID) error

	ListPaymentMethods(ctx context.Context, t Tenant) ([]dto.PaymentMethodResponse, error)
}

type saleService struct {
	saleRepo      repository.SaleRepository
	customerRepo  repository.CustomerRepository
	productRepo   repository.ProductRepository
	paymentRepo   repository.PaymentMethodRepository
	financialRepo repository.FinancialEntryRepository
	drafts        DraftStore
	dispatcher    *worker.Dispatcher
}

func NewSaleService(
	saleRepo repository.SaleRepository,
	customerRepo repository.CustomerRepository,
	productRepo repository.ProductRepository,
	paymentRepo repository.PaymentMethodRepository,
	financialRepo repository.FinancialEntryRepository,
	drafts DraftStore,
	dispatcher *worker.Dispatcher,
) SaleService {
	return &saleService{
		saleRepo:      saleRepo,
		customerRepo:  customerRepo,
		productRepo:   productRepo,
		paymentRepo:   paymentRepo,
		financialRepo: financialRepo,
		drafts:        drafts,
		dispatcher:    dispatcher,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// ─── Draft workflow ──────────────────────────────────────────────────────────

func (s *saleService) StartDraft(ctx context.Context, t Tenant, req dto.StartDraftRequest) (*dto.DraftResponse, error) {
	d := sale.NewDraft(req.CustomerName)
	if err := s.drafts.Save(ctx, t.CompanyID, t.UserID, d); err != nil {
		return nil, err
	}
	return draftToResponse(d), nil
}

func (s *saleService) GetDraft(ctx context.Context, t Tenant) (*dto.DraftResponse, error) {
	d, err := s.drafts.Load(ctx, t.CompanyID, t.UserID)
	if err != nil {
		return nil, err
	}
	return draftToResponse(d), nil
}

func (s *saleService) UpsertDraftLine(ctx context.Context, t Tenant, req dto.DraftLineRequest) (*dto.DraftResponse, error) {
	d, err := s.drafts.Load(ctx, t.CompanyID, t.UserID)
	if err != nil {
		return nil, err
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("invalid product_id: %w", err)
	}
	p, err := s.productRepo.FindByID(ctx, t.CompanyID, productID)
	if err != nil {
		return nil, ErrProductNotFound
	}
	qty, ok := sale.ParseAmountStrict(req.Quantity)
	if !ok || qty.Sign() <= 0 {
		return nil, sale.ErrInvalidQuantity
	}
	unitPrice := resolveUnitPrice(req.UnitPrice, p)
	if _, err := d.Upsert(req.LineID, p.ID, p.Description, qty, unitPrice, sale.ParseAmount(req.Discount)); err != nil {
		return nil, err
	}
	if err := s.drafts.Save(ctx, t.CompanyID, t.UserID, d); err != nil {
		return nil, err
	}
	return draftToResponse(d), nil
}

func (s *saleService) RemoveDraftLine(ctx context.Context, t Tenant, lineID int64) (*dto.DraftResponse, error) {
	d, err := s.drafts.Load(ctx, t.CompanyID, t.UserID)
	if err != nil {
		return nil, err
	}
	if !d.Remove(lineID) {
		return nil, ErrLineNotFound
	}
	if err := s.drafts.Save(ctx, t.CompanyID, t.UserID, d); err != nil {
		return nil, err
	}
	return draftToResponse(d), nil
}

func (s *saleService) CancelDraft(ctx context.Context, t Tenant) error {
	if _, err := s.drafts.Load(ctx, t.CompanyID, t.UserID); err != nil {
		return err
	}
	return s.drafts.Delete(ctx, t.CompanyID, t.UserID)
}

func (s *saleService) FinalizeDraft(ctx context.Context, t Tenant, req dto.FinalizeRequest) (*dto.SaleResponse, error) {
	d, err := s.drafts.Load(ctx, t.CompanyID, t.UserID)
	if err != nil {
		return nil, err
	}

	// Empty draft: nothing to persist. Discard and report no content.
	if d.Empty() {
		if err := s.drafts.Delete(ctx, t.CompanyID, t.UserID); err != nil {
			log.Warn().Err(err).Msg("failed to discard empty draft")
		}
		return nil, nil
	}

	paymentMethodID, err := uuid.Parse(req.PaymentMethodID)
	if err != nil {
		return nil, fmt.Errorf("invalid payment_method_id: %w", err)
	}

	var created *model.Sale
	err = runTx(ctx, s.saleRepo.DB(), func(tx *gorm.DB) error {
		if _, err := s.paymentRepo.FindByIDTx(tx, t.CompanyID, paymentMethodID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPaymentMethodNotFound
			}
			return err
		}

		customer, err := s.resolveCustomerTx(tx, t.CompanyID, d.CustomerName)
		if err != nil {
			return err
		}

		items := make([]model.SaleItem, 0, len(d.Lines))
		for _, l := range d.Lines {
			items = append(items, model.SaleItem{
				CompanyID:   t.CompanyID,
				ProductID:   l.ProductID,
				Description: l.Description,
				Quantity:    l.Quantity,
				UnitPrice:   l.UnitPrice,
				Discount:    l.Discount,
			})
		}
		newSale := &model.Sale{
			CompanyID:       t.CompanyID,
			CustomerID:      customer.ID,
			PaymentMethodID: &paymentMethodID,
			Total:           d.Total(),
			Items:           items,
		}
		if err := s.saleRepo.CreateTx(tx, newSale); err != nil {
			return err
		}

		entry := &model.FinancialEntry{
			CompanyID:       t.CompanyID,
			SaleID:          &newSale.ID,
			CustomerID:      customer.ID,
			PaymentMethodID: &paymentMethodID,
			Amount:          newSale.Total,
			Kind:            "receivable",
			DueDate:         time.Now().UTC(),
		}
		if err := s.financialRepo.CreateTx(tx, entry); err != nil {
			return err
		}

		created = newSale
		created.Customer = customer
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Draft is gone only after the commit — a crash mid-transaction leaves
	// it intact for retry.
	if err := s.drafts.Delete(ctx, t.CompanyID, t.UserID); err != nil {
		log.Warn().Err(err).Msg("sale committed but draft cleanup failed")
	}

	s.enqueueReceipt(ctx, t, created.ID, req.CustomerEmail)

	return saleToResponse(created), nil
}

// resolveCustomerTx implements the lookup-or-create chain: exact
// case-insensitive match, then substring match (oldest first), then create.
func (s *saleService) resolveCustomerTx(tx *gorm.DB, companyID uuid.UUID, name string) (*model.Customer, error) {
	c, err := s.customerRepo.FindByNameExactTx(tx, companyID, name)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	c, err = s.customerRepo.FindByNameLikeTx(tx, companyID, name)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	c = &model.Customer{CompanyID: companyID, Name: name}
	if err := s.customerRepo.CreateTx(tx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *saleService) enqueueReceipt(ctx context.Context, t Tenant, saleID uuid.UUID, email *string) {
	if s.dispatcher == nil {
		return
	}
	payload := worker.ReceiptPayload{SaleID: saleID, CompanyID: t.CompanyID}
	if email != nil {
		payload.CustomerEmail = *email
	}
	// Best effort: the sale is already committed, a full queue must not
	// fail the request.
	if err := s.dispatcher.EnqueueReceipt(ctx, payload); err != nil {
		log.Error().Str("sale_id", saleID.String()).Err(err).Msg("failed to enqueue receipt job")
	}
}

// ─── Persisted sales ─────────────────────────────────────────────────────────

func (s *saleService) List(ctx context.Context, t Tenant) (*dto.SaleListResponse, error) {
	sales, err := s.saleRepo.List(ctx, t.CompanyID)
	if err != nil {
		return nil, err
	}
	resp := &dto.SaleListResponse{Data: make([]dto.SaleListItem, 0, len(sales))}
	for i := range sales {
		v := &sales[i]
		item := dto.SaleListItem{
			ID:        v.ID.String(),
			Total:     v.Total.StringFixed(2),
			ItemCount: len(v.Items),
			CreatedAt: v.CreatedAt.UTC().Format(time.RFC3339),
		}
		if v.Customer != nil {
			item.CustomerName = v.Customer.Name
		}
		resp.Data = append(resp.Data, item)
	}
	resp.Total = len(resp.Data)
	return resp, nil
}

func (s *saleService) Get(ctx context.Context, t Tenant, id uuid.UUID) (*dto.SaleResponse, error) {
	v, err := s.saleRepo.FindByID(ctx, t.CompanyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSaleNotFound
		}
		return nil, err
	}
	return saleToResponse(v), nil
}

func (s *saleService) AddItem(ctx context.Context, t Tenant, saleID uuid.UUID, req dto.SaleItemRequest) (*dto.SaleResponse, error) {
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("invalid product_id: %w", err)
	}
	p, err := s.productRepo.FindByID(ctx, t.CompanyID, productID)
	if err != nil {
		return nil, ErrProductNotFound
	}
	qty, ok := sale.ParseAmountStrict(req.Quantity)
	if !ok || qty.Sign() <= 0 {
		return nil, sale.ErrInvalidQuantity
	}

	err = runTx(ctx, s.saleRepo.DB(), func(tx *gorm.DB) error {
		item := &model.SaleItem{
			CompanyID:   t.CompanyID,
			SaleID:      saleID,
			ProductID:   p.ID,
			Description: p.Description,
			Quantity:    qty,
			UnitPrice:   resolveUnitPrice(req.UnitPrice, p),
			Discount:    sale.ParseAmount(req.Discount),
		}
		if err := s.saleRepo.AddItemTx(tx, item); err != nil {
			return err
		}
		return s.recomputeTotalTx(tx, t.CompanyID, saleID, nil)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, t, saleID)
}

func (s *saleService) UpdateItem(ctx context.Context, t Tenant, saleID, itemID uuid.UUID, req dto.SaleItemRequest) (*dto.SaleResponse, error) {
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("invalid product_id: %w", err)
	}
	p, err := s.productRepo.FindByID(ctx, t.CompanyID, productID)
	if err != nil {
		return nil, ErrProductNotFound
	}
	qty, ok := sale.ParseAmountStrict(req.Quantity)
	if !ok || qty.Sign() <= 0 {
		return nil, sale.ErrInvalidQuantity
	}

	err = runTx(ctx, s.saleRepo.DB(), func(tx *gorm.DB) error {
		item, err := s.saleRepo.FindItemTx(tx, t.CompanyID, saleID, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrItemNotFound
			}
			return err
		}
		item.ProductID = p.ID
		item.Description = p.Description
		item.Quantity = qty
		item.UnitPrice = resolveUnitPrice(req.UnitPrice, p)
		item.Discount = sale.ParseAmount(req.Discount)
		if err := s.saleRepo.UpdateItemTx(tx, item); err != nil {
			return err
		}
		return s.recomputeTotalTx(tx, t.CompanyID, saleID, nil)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, t, saleID)
}

func (s *saleService) RemoveItem(ctx context.Context, t Tenant, saleID, itemID uuid.UUID) (*dto.SaleResponse, error) {
	err := runTx(ctx, s.saleRepo.DB(), func(tx *gorm.DB) error {
		if err := s.saleRepo.DeleteItemTx(tx, t.CompanyID, saleID, itemID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrItemNotFound
			}
			return err
		}
		return s.recomputeTotalTx(tx, t.CompanyID, saleID, nil)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, t, saleID)
}

// Finalize attaches a payment method to a persisted sale and writes the
// ledger entry, mirroring FinalizeDraft for sales edited after commit.
func (s *saleService) Finalize(ctx context.Context, t Tenant, saleID uuid.UUID, req dto.FinalizeRequest) (*dto.SaleResponse, error) {
	paymentMethodID, err := uuid.Parse(req.PaymentMethodID)
	if err != nil {
		return nil, fmt.Errorf("invalid payment_method_id: %w", err)
	}

	err = runTx(ctx, s.saleRepo.DB(), func(tx *gorm.DB) error {
		if _, err := s.paymentRepo.FindByIDTx(tx, t.CompanyID, paymentMethodID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPaymentMethodNotFound
			}
			return err
		}
		items, err := s.saleRepo.ListItemsTx(tx, t.CompanyID, saleID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrSaleHasNoItems
		}
		total := decimal.Zero
		for _, it := range items {
			total = total.Add(sale.Subtotal(it.Quantity, it.UnitPrice, it.Discount))
		}
		if err := s.saleRepo.UpdateTotalTx(tx, t.CompanyID, saleID, total, &paymentMethodID); err != nil {
			return err
		}

		current, err := s.saleRepo.FindByID(ctx, t.CompanyID, saleID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSaleNotFound
			}
			return err
		}
		// Replace any entry from an earlier finalization so repeating the
		// call (retry, or finalize after editing items) keeps one ledger
		// row per sale.
		if err := s.financialRepo.DeleteBySaleTx(tx, t.CompanyID, saleID); err != nil {
			return err
		}
		entry := &model.FinancialEntry{
			CompanyID:       t.CompanyID,
			SaleID:          &saleID,
			CustomerID:      current.CustomerID,
			PaymentMethodID: &paymentMethodID,
			Amount:          total,
			Kind:            "receivable",
			DueDate:         time.Now().UTC(),
		}
		return s.financialRepo.CreateTx(tx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.enqueueReceipt(ctx, t, saleID, req.CustomerEmail)

	return s.Get(ctx, t, saleID)
}

func (s *saleService) Delete(ctx context.Context, t Tenant, saleID uuid.UUID) error {
	err := runTx(ctx, s.saleRepo.DB(), func(tx *gorm.DB) error {
		return s.saleRepo.DeleteTx(tx, t.CompanyID, saleID)
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrSaleNotFound
	}
	return err
}

func (s *saleService) ListPaymentMethods(ctx context.Context, t Tenant) ([]dto.PaymentMethodResponse, error) {
	methods, err := s.paymentRepo.List(ctx, t.CompanyID)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.PaymentMethodResponse, 0, len(methods))
	for _, m := range methods {
		resp = append(resp, dto.PaymentMethodResponse{ID: m.ID.String(), Description: m.Description})
	}
	return resp, nil
}

// recomputeTotalTx re-derives the sale total from its items inside the same
// transaction as the mutation that invalidated it.
func (s *saleService) recomputeTotalTx(tx *gorm.DB, companyID, saleID uuid.UUID, paymentMethodID *uuid.UUID) error {
	items, err := s.saleRepo.ListItemsTx(tx, companyID, saleID)
	if err != nil {
		return err
	}
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(sale.Subtotal(it.Quantity, it.UnitPrice, it.Discount))
	}
	return s.saleRepo.UpdateTotalTx(tx, companyID, saleID, total, paymentMethodID)
}

// resolveUnitPrice: explicit input wins; blank or unparsable input falls back
// to the catalog price, or zero for products without one.
func resolveUnitPrice(raw string, p *model.Product) decimal.Decimal {
	if v, ok := sale.ParseAmountStrict(raw); ok {
		return v
	}
	if p.Price != nil {
		return *p.Price
	}
	return decimal.Zero
}

// ─── Mapping ─────────────────────────────────────────────────────────────────

func draftToResponse(d *sale.Draft) *dto.DraftResponse {
	resp := &dto.DraftResponse{
		CustomerName: d.CustomerName,
		Lines:        make([]dto.DraftLineResponse, 0, len(d.Lines)),
		Total:        d.Total().StringFixed(2),
		OpenedAt:     d.OpenedAt.Format(time.RFC3339),
	}
	for _, l := range d.Lines {
		resp.Lines = append(resp.Lines, dto.DraftLineResponse{
			LineID:      l.ID,
			ProductID:   l.ProductID.String(),
			Description: l.Description,
			Quantity:    l.Quantity.String(),
			UnitPrice:   l.UnitPrice.StringFixed(2),
			Discount:    l.Discount.StringFixed(2),
			Subtotal:    l.DisplaySubtotal().StringFixed(2),
		})
	}
	return resp
}

func saleToResponse(v *model.Sale) *dto.SaleResponse {
	resp := &dto.SaleResponse{
		ID:         v.ID.String(),
		CustomerID: v.CustomerID.String(),
		Total:      v.Total.StringFixed(2),
		Items:      make([]dto.SaleItemResponse, 0, len(v.Items)),
		CreatedAt:  v.CreatedAt.UTC().Format(time.RFC3339),
	}
	if v.Customer != nil {
		resp.CustomerName = v.Customer.Name
	}
	if v.PaymentMethod != nil {
		desc := v.PaymentMethod.Description
		resp.PaymentMethod = &desc
	}
	for _, it := range v.Items {
		display := sale.Subtotal(it.Quantity, it.UnitPrice, it.Discount)
		if display.Sign() < 0 {
			display = decimal.Zero
		}
		resp.Items = append(resp.Items, dto.SaleItemResponse{
			ID:          it.ID.String(),
			ProductID:   it.ProductID.String(),
			Description: it.Description,
			Quantity:    it.Quantity.String(),
			UnitPrice:   it.UnitPrice.StringFixed(2),
			Discount:    it.Discount.StringFixed(2),
			Subtotal:    display.StringFixed(2),
		})
	}
	return resp
}
