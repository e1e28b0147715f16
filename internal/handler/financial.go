package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Jvjesus89/ERPapp/internal/apierror"
	"github.com/Jvjesus89/ERPapp/internal/dto"
	"github.com/Jvjesus89/ERPapp/internal/service"
)

type FinancialHandler struct{ svc service.FinancialService }

func NewFinancialHandler(svc service.FinancialService) *FinancialHandler {
	return &FinancialHandler{svc: svc}
}

// List godoc
// @Summary Financial ledger
// @Description Returns the ledger ordered by due date descending, optionally filtered by customer name.
// @Tags financial
// @Produce json
// @Security BearerAuth
// @Param search query string false "Customer name substring"
// @Success 200 {object} dto.FinancialListResponse
// @Router /v1/financial [get]
func (h *FinancialHandler) List(c *gin.Context) {
	var filter dto.FinancialFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.List(c.Request.Context(), tenantFromClaims(c), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to list financial entries"))
		return
	}
	c.JSON(http.StatusOK, resp)
}
