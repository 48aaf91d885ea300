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

// PaymentHandler exposes §4.K's preview/commit payment distribution.
type PaymentHandler struct {
	distributor *service.PaymentDistributor
}

func NewPaymentHandler(distributor *service.PaymentDistributor) *PaymentHandler {
	return &PaymentHandler{distributor: distributor}
}

type paymentRequest struct {
	UnitID           string             `json:"unitId"`
	Amount           int64              `json:"amount"`
	AsOfDate         time.Time          `json:"asOfDate,omitempty"`
	SelectedMonth    time.Time          `json:"selectedMonth,omitempty"`
	DuesFiscalYear   int                `json:"duesFiscalYear"`
	PaymentMethod    string             `json:"paymentMethod"`
	AccountID        string             `json:"accountId"`
	Notes            string             `json:"notes"`
	WaterConfig      domain.WaterConfig `json:"waterConfig"`
	PreviewSignature string             `json:"previewSignature,omitempty"`
}

func (h *PaymentHandler) toInput(c echo.Context, req paymentRequest) service.PaymentInput {
	in := service.PaymentInput{
		TenantID:         c.Param("tenantId"),
		UnitID:           req.UnitID,
		Amount:           kernel.Centavos(req.Amount),
		DuesFiscalYear:   req.DuesFiscalYear,
		WaterConfig:      req.WaterConfig,
		PaymentMethod:    req.PaymentMethod,
		AccountID:        req.AccountID,
		Notes:            req.Notes,
		PreviewSignature: req.PreviewSignature,
	}
	if !req.AsOfDate.IsZero() {
		in.AsOfDate = &req.AsOfDate
	}
	if !req.SelectedMonth.IsZero() {
		in.SelectedMonth = &req.SelectedMonth
	}
	return in
}

func (h *PaymentHandler) Preview(c echo.Context) error {
	var req paymentRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, err.Error(), nil)
	}
	plan, err := h.distributor.Preview(c.Request().Context(), h.toInput(c, req))
	if err != nil {
		return RespondError(c, err)
	}
	return c.JSON(http.StatusOK, plan)
}

func (h *PaymentHandler) Commit(c echo.Context) error {
	var req paymentRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, err.Error(), nil)
	}
	principal := middleware.GetPrincipal(c)
	docID, plan, err := h.distributor.Commit(c.Request().Context(), h.toInput(c, req), principal.UserID)
	if err != nil {
		return RespondError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{"transactionId": docID, "plan": plan})
}
