package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sandyland/sams-core/internal/domain"
	"github.com/sandyland/sams-core/internal/service"
)

// ReportHandler exposes §4.M's statement-of-account and budget-vs-actual
// aggregation endpoints.
type ReportHandler struct {
	reports *service.ReportAggregator
}

func NewReportHandler(reports *service.ReportAggregator) *ReportHandler {
	return &ReportHandler{reports: reports}
}

func (h *ReportHandler) StatementOfAccount(c echo.Context) error {
	tenantID := c.Param("tenantId")
	unitID := c.Param("unitId")
	fiscalYear, err := strconv.Atoi(c.QueryParam("fiscalYear"))
	if err != nil {
		return NewValidationError(c, "fiscalYear must be an integer", nil)
	}
	frequency := domain.DuesFrequency(c.QueryParam("frequency"))
	if frequency == "" {
		frequency = domain.DuesFrequencyMonthly
	}
	stmt, err := h.reports.StatementOfAccount(c.Request().Context(), tenantID, unitID, fiscalYear, time.Now().UTC(), frequency)
	if err != nil {
		return RespondError(c, err)
	}
	return c.JSON(http.StatusOK, stmt)
}

// CorruptTransactions lists transactions flagged corrupt during import.
func (h *ReportHandler) CorruptTransactions(c echo.Context) error {
	tenantID := c.Param("tenantId")
	txs, err := h.reports.CorruptTransactions(c.Request().Context(), tenantID)
	if err != nil {
		return RespondError(c, err)
	}
	return c.JSON(http.StatusOK, txs)
}

func (h *ReportHandler) BudgetVsActual(c echo.Context) error {
	tenantID := c.Param("tenantId")
	fiscalYear, err := strconv.Atoi(c.QueryParam("fiscalYear"))
	if err != nil {
		return NewValidationError(c, "fiscalYear must be an integer", nil)
	}
	report, err := h.reports.BudgetVsActual(c.Request().Context(), tenantID, fiscalYear, time.Now().UTC())
	if err != nil {
		return RespondError(c, err)
	}
	return c.JSON(http.StatusOK, report)
}
