package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sandyland/sams-core/internal/kernel"
	"github.com/sandyland/sams-core/internal/service"
)

// CreditBalanceHandler exposes §4.F's per-unit credit ledger.
type CreditBalanceHandler struct {
	credit *service.CreditBalanceService
}

func NewCreditBalanceHandler(credit *service.CreditBalanceService) *CreditBalanceHandler {
	return &CreditBalanceHandler{credit: credit}
}

func (h *CreditBalanceHandler) Get(c echo.Context) error {
	bal, err := h.credit.Get(c.Request().Context(), c.Param("tenantId"), c.Param("unitId"))
	if err != nil {
		return RespondError(c, err)
	}
	return c.JSON(http.StatusOK, bal)
}

type applyCreditRequest struct {
	Delta         int64  `json:"delta"`
	TransactionID string `json:"transactionId"`
	Reason        string `json:"reason"`
}

func (h *CreditBalanceHandler) Apply(c echo.Context) error {
	var req applyCreditRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, err.Error(), nil)
	}
	bal, err := h.credit.Apply(c.Request().Context(), c.Param("tenantId"), c.Param("unitId"), kernel.Centavos(req.Delta), req.TransactionID, req.Reason)
	if err != nil {
		return RespondError(c, err)
	}
	return c.JSON(http.StatusOK, bal)
}
