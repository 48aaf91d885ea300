package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sandyland/sams-core/internal/importpurge"
	"github.com/sandyland/sams-core/internal/middleware"
	"github.com/sandyland/sams-core/internal/ports"
)

// ImportPurgeHandler exposes §4.L's admin-only import and purge operations.
// Both require super-admin; a tenant administrator cannot rewrite or wipe
// their own tenant's tree.
type ImportPurgeHandler struct {
	importer *importpurge.Importer
	purger   *importpurge.Purger
	files    ports.ImportFileStore
}

func NewImportPurgeHandler(importer *importpurge.Importer, purger *importpurge.Purger, files ports.ImportFileStore) *ImportPurgeHandler {
	return &ImportPurgeHandler{importer: importer, purger: purger, files: files}
}

type runImportRequest struct {
	ImportID string `json:"importId"`
}

func (h *ImportPurgeHandler) Import(c echo.Context) error {
	principal := middleware.GetPrincipal(c)
	if !principal.IsSuperAdmin {
		return NewForbiddenError(c, "import requires super-admin")
	}
	tenantID := c.Param("tenantId")
	var req runImportRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, err.Error(), nil)
	}
	if req.ImportID == "" {
		req.ImportID = uuid.NewString()
	}
	bundle, err := importpurge.LoadBundle(c.Request().Context(), h.files, tenantID, req.ImportID)
	if err != nil {
		return NewValidationError(c, err.Error(), nil)
	}
	meta, err := h.importer.Run(c.Request().Context(), tenantID, bundle, principal.UserID)
	if err != nil {
		return RespondError(c, err)
	}
	return c.JSON(http.StatusOK, meta)
}

type purgeRequest struct {
	Exclude []string `json:"exclude"`
	Execute bool     `json:"execute"`
}

func (h *ImportPurgeHandler) Purge(c echo.Context) error {
	principal := middleware.GetPrincipal(c)
	if !principal.IsSuperAdmin {
		return NewForbiddenError(c, "purge requires super-admin")
	}
	tenantID := c.Param("tenantId")
	var req purgeRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, err.Error(), nil)
	}
	report, err := h.purger.Purge(c.Request().Context(), tenantID, req.Exclude, req.Execute, principal.UserID)
	if err != nil {
		return RespondError(c, err)
	}
	return c.JSON(http.StatusOK, report)
}
