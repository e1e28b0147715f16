package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Jvjesus89/ERPapp/internal/apierror"
	"github.com/Jvjesus89/ERPapp/internal/dto"
	"github.com/Jvjesus89/ERPapp/internal/infra"
	"github.com/Jvjesus89/ERPapp/internal/service"
)

type ProductsHandler struct{ svc service.ProductService }

func NewProductsHandler(svc service.ProductService) *ProductsHandler {
	return &ProductsHandler{svc: svc}
}

// List godoc
// @Summary List products
// @Description Returns the company catalog, optionally filtered by a case-insensitive description search.
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param search query string false "Description substring"
// @Success 200 {object} dto.ProductListResponse
// @Router /v1/products [get]
func (h *ProductsHandler) List(c *gin.Context) {
	var filter dto.ProductFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.List(c.Request.Context(), tenantFromClaims(c), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to list products"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary Get a product
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product UUID"
// @Success 200 {object} dto.ProductResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/products/{id} [get]
func (h *ProductsHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), tenantFromClaims(c), id)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, apierror.New(err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to load product"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Create godoc
// @Summary Create a product
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.SaveProductRequest true "Product data"
// @Success 201 {object} dto.ProductResponse
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/products [post]
func (h *ProductsHandler) Create(c *gin.Context) {
	var req dto.SaveProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), tenantFromClaims(c), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Update godoc
// @Summary Update a product
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product UUID"
// @Param body body dto.SaveProductRequest true "Product data"
// @Success 200 {object} dto.ProductResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/products/{id} [put]
func (h *ProductsHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	var req dto.SaveProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), tenantFromClaims(c), id, req)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, apierror.New(err.Error()))
			return
		}
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Delete godoc
// @Summary Delete a product
// @Tags products
// @Security BearerAuth
// @Param id path string true "Product UUID"
// @Success 204
// @Failure 404 {object} apierror.APIError
// @Router /v1/products/{id} [delete]
func (h *ProductsHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	if err := h.svc.Delete(c.Request.Context(), tenantFromClaims(c), id); err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, apierror.New(err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to delete product"))
		return
	}
	c.Status(http.StatusNoContent)
}

// LookupBarcode godoc
// @Summary Look up a scanned barcode
// @Description Queries the external product database. A miss is a 200 with found=false; an unreachable upstream is 502.
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param code path string true "Numeric barcode, min 8 digits"
// @Success 200 {object} dto.BarcodeLookupResponse
// @Failure 400 {object} apierror.APIError
// @Failure 502 {object} apierror.APIError
// @Router /v1/products/barcode/{code} [get]
func (h *ProductsHandler) LookupBarcode(c *gin.Context) {
	resp, err := h.svc.LookupBarcode(c.Request.Context(), tenantFromClaims(c), c.Param("code"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidBarcode):
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		case errors.Is(err, infra.ErrCircuitOpen), errors.Is(err, infra.ErrLookupUnavailable):
			c.JSON(http.StatusBadGateway, apierror.New("Barcode lookup service unavailable"))
		default:
			c.JSON(http.StatusBadGateway, apierror.New("Barcode lookup failed"))
		}
		return
	}
	c.JSON(http.StatusOK, resp)
}
