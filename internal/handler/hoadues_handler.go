package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sandyland/sams-core/internal/kernel"
	"github.com/sandyland/sams-core/internal/service"
)

// HOADuesHandler exposes §4.G's per-unit dues ledger.
type HOADuesHandler struct {
	dues *service.HOADuesService
}

func NewHOADuesHandler(dues *service.HOADuesService) *HOADuesHandler {
	return &HOADuesHandler{dues: dues}
}

func (h *HOADuesHandler) ListYear(c echo.Context) error {
	tenantID := c.Param("tenantId")
	fiscalYear, err := strconv.Atoi(c.Param("fiscalYear"))
	if err != nil {
		return NewValidationError(c, "fiscalYear must be an integer", nil)
	}
	unitIDs := c.QueryParams()["unitId"]
	recs, err := h.dues.ListYear(c.Request().Context(), tenantID, unitIDs, fiscalYear)
	if err != nil {
		return RespondError(c, err)
	}
	return c.JSON(http.StatusOK, recs)
}

type recordDuesPaymentRequest struct {
	Slots []struct {
		Month       int   `json:"month"`
		Amount      int64 `json:"amount"`
		BasePaid    int64 `json:"basePaid"`
		PenaltyPaid int64 `json:"penaltyPaid"`
	} `json:"slots"`
	TransactionID string    `json:"transactionId"`
	PaymentDate   time.Time `json:"paymentDate"`
}

func (h *HOADuesHandler) RecordPayment(c echo.Context) error {
	tenantID := c.Param("tenantId")
	unitID := c.Param("unitId")
	fiscalYear, err := strconv.Atoi(c.Param("fiscalYear"))
	if err != nil {
		return NewValidationError(c, "fiscalYear must be an integer", nil)
	}
	var req recordDuesPaymentRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, err.Error(), nil)
	}
	slots := make([]service.MonthPayment, len(req.Slots))
	for i, s := range req.Slots {
		slots[i] = service.MonthPayment{
			Month:       s.Month,
			Amount:      kernel.Centavos(s.Amount),
			BasePaid:    kernel.Centavos(s.BasePaid),
			PenaltyPaid: kernel.Centavos(s.PenaltyPaid),
		}
	}
	rec, err := h.dues.RecordPayment(c.Request().Context(), tenantID, unitID, fiscalYear, slots, req.TransactionID, req.PaymentDate)
	if err != nil {
		return RespondError(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *HOADuesHandler) ReversePayment(c echo.Context) error {
	tenantID := c.Param("tenantId")
	unitID := c.Param("unitId")
	fiscalYear, err := strconv.Atoi(c.Param("fiscalYear"))
	if err != nil {
		return NewValidationError(c, "fiscalYear must be an integer", nil)
	}
	if err := h.dues.ReversePayment(c.Request().Context(), tenantID, unitID, fiscalYear, c.Param("transactionId")); err != nil {
		return RespondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
