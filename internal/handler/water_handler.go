package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sandyland/sams-core/internal/service"
)

// WaterHandler exposes §4.H's meter readings and §4.I's generated bills.
type WaterHandler struct {
	readings *service.WaterReadingsService
	bills    *service.WaterBillGenerator
}

func NewWaterHandler(readings *service.WaterReadingsService, bills *service.WaterBillGenerator) *WaterHandler {
	return &WaterHandler{readings: readings, bills: bills}
}

func atoiParam(c echo.Context, name string) (int, error) {
	return strconv.Atoi(c.Param(name))
}

func (h *WaterHandler) GetReadings(c echo.Context) error {
	fy, err := atoiParam(c, "fiscalYear")
	if err != nil {
		return NewValidationError(c, "fiscalYear must be an integer", nil)
	}
	fm, err := atoiParam(c, "fiscalMonth")
	if err != nil {
		return NewValidationError(c, "fiscalMonth must be an integer", nil)
	}
	readings, err := h.readings.Get(c.Request().Context(), c.Param("tenantId"), fy, fm)
	if err != nil {
		return RespondError(c, err)
	}
	return c.JSON(http.StatusOK, readings)
}

type upsertReadingsRequest struct {
	Readings       map[string]int `json:"readings"`
	CarWashCounts  map[string]int `json:"carWashCounts"`
	BoatWashCounts map[string]int `json:"boatWashCounts"`
	CommonArea     int            `json:"commonArea"`
}

func (h *WaterHandler) UpsertReadings(c echo.Context) error {
	fy, err := atoiParam(c, "fiscalYear")
	if err != nil {
		return NewValidationError(c, "fiscalYear must be an integer", nil)
	}
	fm, err := atoiParam(c, "fiscalMonth")
	if err != nil {
		return NewValidationError(c, "fiscalMonth must be an integer", nil)
	}
	var req upsertReadingsRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, err.Error(), nil)
	}
	readings, err := h.readings.Upsert(c.Request().Context(), c.Param("tenantId"), fy, fm, req.Readings, req.CarWashCounts, req.BoatWashCounts, req.CommonArea)
	if err != nil {
		return RespondError(c, err)
	}
	return c.JSON(http.StatusOK, readings)
}

func (h *WaterHandler) GetBill(c echo.Context) error {
	fy, err := atoiParam(c, "fiscalYear")
	if err != nil {
		return NewValidationError(c, "fiscalYear must be an integer", nil)
	}
	q, err := atoiParam(c, "quarter")
	if err != nil {
		return NewValidationError(c, "quarter must be an integer", nil)
	}
	bill, err := h.bills.Get(c.Request().Context(), c.Param("tenantId"), fy, q)
	if err != nil {
		return RespondError(c, err)
	}
	return c.JSON(http.StatusOK, bill)
}
