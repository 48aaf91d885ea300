package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sandyland/sams-core/internal/domain"
	"github.com/sandyland/sams-core/internal/service"
)

// PenaltyHandler exposes §4.J's on-demand recalculation, mirroring the
// same pass the monthly scheduler runs automatically.
type PenaltyHandler struct {
	recalc *service.PenaltyRecalculator
}

func NewPenaltyHandler(recalc *service.PenaltyRecalculator) *PenaltyHandler {
	return &PenaltyHandler{recalc: recalc}
}

type recalcRequest struct {
	WaterConfig domain.WaterConfig `json:"waterConfig"`
}

func (h *PenaltyHandler) Recalc(c echo.Context) error {
	var req recalcRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, err.Error(), nil)
	}
	tally, err := h.recalc.RecalcTenant(c.Request().Context(), c.Param("tenantId"), req.WaterConfig, time.Now().UTC())
	if err != nil {
		return RespondError(c, err)
	}
	return c.JSON(http.StatusOK, tally)
}
