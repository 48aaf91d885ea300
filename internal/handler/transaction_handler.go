package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sandyland/sams-core/internal/domain"
	"github.com/sandyland/sams-core/internal/kernel"
	"github.com/sandyland/sams-core/internal/middleware"
	"github.com/sandyland/sams-core/internal/service"
)

// TransactionHandler exposes §4.E's create/list/get/delete over HTTP.
type TransactionHandler struct {
	engine *service.TransactionEngine
}

func NewTransactionHandler(engine *service.TransactionEngine) *TransactionHandler {
	return &TransactionHandler{engine: engine}
}

type createTransactionRequest struct {
	Date          time.Time           `json:"date"`
	Amount        int64               `json:"amount"`
	CategoryID    string              `json:"categoryId"`
	Allocations   []domain.Allocation `json:"allocations,omitempty"`
	PaymentMethod string              `json:"paymentMethod"`
	AccountID     string              `json:"accountId"`
	Vendor        string              `json:"vendor"`
	UnitID        string              `json:"unitId"`
	Notes         string              `json:"notes"`
	PaySeq        string              `json:"paySeq,omitempty"`
}

func (h *TransactionHandler) Create(c echo.Context) error {
	tenantID := c.Param("tenantId")
	var req createTransactionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, err.Error(), nil)
	}
	principal := middleware.GetPrincipal(c)

	docID, err := h.engine.Create(c.Request().Context(), tenantID, service.TransactionDraft{
		Date:          req.Date,
		Amount:        kernel.Centavos(req.Amount),
		CategoryID:    req.CategoryID,
		Allocations:   req.Allocations,
		PaymentMethod: req.PaymentMethod,
		AccountID:     req.AccountID,
		Vendor:        req.Vendor,
		UnitID:        req.UnitID,
		Notes:         req.Notes,
		PaySeq:        req.PaySeq,
	}, principal.UserID)
	if err != nil {
		return RespondError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]string{"id": docID})
}

func (h *TransactionHandler) Get(c echo.Context) error {
	tenantID := c.Param("tenantId")
	txn, err := h.engine.Get(c.Request().Context(), tenantID, c.Param("docId"))
	if err != nil {
		return RespondError(c, err)
	}
	return c.JSON(http.StatusOK, txn)
}

func (h *TransactionHandler) List(c echo.Context) error {
	tenantID := c.Param("tenantId")
	filters := domain.TransactionFilters{
		UnitID:     c.QueryParam("unitId"),
		CategoryID: c.QueryParam("categoryId"),
	}
	txns, err := h.engine.List(c.Request().Context(), tenantID, filters)
	if err != nil {
		return RespondError(c, err)
	}
	return c.JSON(http.StatusOK, txns)
}

func (h *TransactionHandler) Delete(c echo.Context) error {
	tenantID := c.Param("tenantId")
	principal := middleware.GetPrincipal(c)
	if err := h.engine.Delete(c.Request().Context(), tenantID, c.Param("docId"), principal.IsSuperAdmin, principal.UserID); err != nil {
		return RespondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
