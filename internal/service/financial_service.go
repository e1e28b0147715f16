package service

import (
	"context"
	"time"

	"github.com/Jvjesus89/ERPapp/internal/dto"
	"github.com/Jvjesus89/ERPapp/internal/repository"
)

type FinancialService interface {
	List(ctx context.Context, t Tenant, filter dto.FinancialFilter) (*dto.FinancialListResponse, error)
}

type financialService struct {
	repo repository.FinancialEntryRepository
}

func NewFinancialService(repo repository.FinancialEntryRepository) FinancialService {
	return &financialService{repo: repo}
}

func (s *financialService) List(ctx context.Context, t Tenant, filter dto.FinancialFilter) (*dto.FinancialListResponse, error) {
	entries, err := s.repo.List(ctx, t.CompanyID, filter.Search)
	if err != nil {
		return nil, err
	}
	resp := &dto.FinancialListResponse{Data: make([]dto.FinancialEntryResponse, 0, len(entries))}
	for i := range entries {
		e := &entries[i]
		item := dto.FinancialEntryResponse{
			ID:      e.ID.String(),
			Amount:  e.Amount.StringFixed(2),
			Kind:    e.Kind,
			DueDate: e.DueDate.UTC().Format(time.RFC3339),
		}
		if e.Customer != nil {
			item.CustomerName = e.Customer.Name
		}
		if e.PaymentMethod != nil {
			desc := e.PaymentMethod.Description
			item.PaymentMethod = &desc
		}
		if e.SaleID != nil {
			id := e.SaleID.String()
			item.SaleID = &id
		}
		resp.Data = append(resp.Data, item)
	}
	resp.Total = len(resp.Data)
	return resp, nil
}
