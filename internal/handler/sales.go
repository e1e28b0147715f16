package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Jvjesus89/ERPapp/internal/apierror"
	"github.com/Jvjesus89/ERPapp/internal/dto"
	"github.com/Jvjesus89/ERPapp/internal/sale"
	"github.com/Jvjesus89/ERPapp/internal/service"
)

type SalesHandler struct{ svc service.SaleService }

func NewSalesHandler(svc service.SaleService) *SalesHandler { return &SalesHandler{svc: svc} }

func writeSaleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNoDraft),
		errors.Is(err, service.ErrSaleNotFound),
		errors.Is(err, service.ErrItemNotFound),
		errors.Is(err, service.ErrLineNotFound),
		errors.Is(err, service.ErrProductNotFound):
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
	case errors.Is(err, service.ErrPaymentMethodNotFound),
		errors.Is(err, service.ErrSaleHasNoItems),
		errors.Is(err, sale.ErrInvalidQuantity):
		c.JSON(http.StatusUnprocessableEntity, apierror.New(err.Error()))
	default:
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
	}
}

// ── Draft workflow ───────────────────────────────────────────────────────────

// StartDraft godoc
// @Summary Open a sale draft
// @Description Opens the caller's draft (one per user). A blank customer name defaults to the walk-in customer.
// @Tags sales
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.StartDraftRequest true "Customer"
// @Success 201 {object} dto.DraftResponse
// @Router /v1/sales/draft [post]
func (h *SalesHandler) StartDraft(c *gin.Context) {
	var req dto.StartDraftRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.StartDraft(c.Request.Context(), tenantFromClaims(c), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to open draft"))
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// GetDraft godoc
// @Summary Current sale draft
// @Tags sales
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.DraftResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/sales/draft [get]
func (h *SalesHandler) GetDraft(c *gin.Context) {
	resp, err := h.svc.GetDraft(c.Request.Context(), tenantFromClaims(c))
	if err != nil {
		writeSaleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpsertDraftLine godoc
// @Summary Add or edit a draft line
// @Description line_id 0 adds a new line; a known line_id replaces that line in place.
// @Tags sales
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.DraftLineRequest true "Line data"
// @Success 200 {object} dto.DraftResponse
// @Failure 422 {object} apierror.APIError
// @Router /v1/sales/draft/lines [put]
func (h *SalesHandler) UpsertDraftLine(c *gin.Context) {
	var req dto.DraftLineRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpsertDraftLine(c.Request.Context(), tenantFromClaims(c), req)
	if err != nil {
		writeSaleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RemoveDraftLine godoc
// @Summary Remove a draft line
// @Tags sales
// @Produce json
// @Security BearerAuth
// @Param lineId path int true "Line token"
// @Success 200 {object} dto.DraftResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/sales/draft/lines/{lineId} [delete]
func (h *SalesHandler) RemoveDraftLine(c *gin.Context) {
	lineID, err := strconv.ParseInt(c.Param("lineId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid line ID"))
		return
	}
	resp, err := h.svc.RemoveDraftLine(c.Request.Context(), tenantFromClaims(c), lineID)
	if err != nil {
		writeSaleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CancelDraft godoc
// @Summary Discard the current draft
// @Description Discards the draft without writing anything to the database.
// @Tags sales
// @Security BearerAuth
// @Success 204
// @Failure 404 {object} apierror.APIError
// @Router /v1/sales/draft [delete]
func (h *SalesHandler) CancelDraft(c *gin.Context) {
	if err := h.svc.CancelDraft(c.Request.Context(), tenantFromClaims(c)); err != nil {
		writeSaleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// FinalizeDraft godoc
// @Summary Finalize the current draft
// @Description Persists customer, sale, items and the ledger entry in one transaction. An empty draft is discarded and answered with 204.
// @Tags sales
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.FinalizeRequest true "Payment method"
// @Success 201 {object} dto.SaleResponse
// @Success 204
// @Failure 422 {object} apierror.APIError
// @Router /v1/sales/draft/finalize [post]
func (h *SalesHandler) FinalizeDraft(c *gin.Context) {
	var req dto.FinalizeRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.FinalizeDraft(c.Request.Context(), tenantFromClaims(c), req)
	if err != nil {
		writeSaleError(c, err)
		return
	}
	if resp == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ── Persisted sales ──────────────────────────────────────────────────────────

// List godoc
// @Summary List sales
// @Tags sales
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.SaleListResponse
// @Router /v1/sales [get]
func (h *SalesHandler) List(c *gin.Context) {
	resp, err := h.svc.List(c.Request.Context(), tenantFromClaims(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to list sales"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary Get a sale with its items
// @Tags sales
// @Produce json
// @Security BearerAuth
// @Param id path string true "Sale UUID"
// @Success 200 {object} dto.SaleResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/sales/{id} [get]
func (h *SalesHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), tenantFromClaims(c), id)
	if err != nil {
		writeSaleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AddItem godoc
// @Summary Add an item to a persisted sale
// @Description The sale total is recomputed from all items in the same transaction.
// @Tags sales
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Sale UUID"
// @Param body body dto.SaleItemRequest true "Item data"
// @Success 200 {object} dto.SaleResponse
// @Failure 422 {object} apierror.APIError
// @Router /v1/sales/{id}/items [post]
func (h *SalesHandler) AddItem(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	var req dto.SaleItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AddItem(c.Request.Context(), tenantFromClaims(c), id, req)
	if err != nil {
		writeSaleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateItem godoc
// @Summary Update an item of a persisted sale
// @Tags sales
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Sale UUID"
// @Param itemId path string true "Item UUID"
// @Param body body dto.SaleItemRequest true "Item data"
// @Success 200 {object} dto.SaleResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/sales/{id}/items/{itemId} [put]
func (h *SalesHandler) UpdateItem(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid item ID"))
		return
	}
	var req dto.SaleItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateItem(c.Request.Context(), tenantFromClaims(c), id, itemID, req)
	if err != nil {
		writeSaleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RemoveItem godoc
// @Summary Remove an item from a persisted sale
// @Tags sales
// @Produce json
// @Security BearerAuth
// @Param id path string true "Sale UUID"
// @Param itemId path string true "Item UUID"
// @Success 200 {object} dto.SaleResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/sales/{id}/items/{itemId} [delete]
func (h *SalesHandler) RemoveItem(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid item ID"))
		return
	}
	resp, err := h.svc.RemoveItem(c.Request.Context(), tenantFromClaims(c), id, itemID)
	if err != nil {
		writeSaleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Finalize godoc
// @Summary Finalize a persisted sale
// @Description Attaches the payment method, recomputes the total and writes the ledger entry.
// @Tags sales
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Sale UUID"
// @Param body body dto.FinalizeRequest true "Payment method"
// @Success 200 {object} dto.SaleResponse
// @Failure 422 {object} apierror.APIError
// @Router /v1/sales/{id}/finalize [post]
func (h *SalesHandler) Finalize(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	var req dto.FinalizeRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Finalize(c.Request.Context(), tenantFromClaims(c), id, req)
	if err != nil {
		writeSaleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Delete godoc
// @Summary Delete a sale and its items
// @Tags sales
// @Security BearerAuth
// @Param id path string true "Sale UUID"
// @Success 204
// @Failure 404 {object} apierror.APIError
// @Router /v1/sales/{id} [delete]
func (h *SalesHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	if err := h.svc.Delete(c.Request.Context(), tenantFromClaims(c), id); err != nil {
		writeSaleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListPaymentMethods godoc
// @Summary List payment methods
// @Tags sales
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.PaymentMethodResponse
// @Router /v1/payment-methods [get]
func (h *SalesHandler) ListPaymentMethods(c *gin.Context) {
	resp, err := h.svc.ListPaymentMethods(c.Request.Context(), tenantFromClaims(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to list payment methods"))
		return
	}
	c.JSON(http.StatusOK, resp)
}
