package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sandyland/sams-core/internal/apperr"
)

// ProblemDetails represents an RFC 7807 Problem Details response
type ProblemDetails struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Status   int               `json:"status"`
	Detail   string            `json:"detail,omitempty"`
	Instance string            `json:"instance,omitempty"`
	Errors   []ValidationError `json:"errors,omitempty"`
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error types
const (
	ErrorTypeValidation = "https://sams.app/errors/validation"
	ErrorTypeNotFound   = "https://sams.app/errors/not-found"
	ErrorTypeForbidden  = "https://sams.app/errors/forbidden"
	ErrorTypeConflict   = "https://sams.app/errors/conflict"
	ErrorTypeConfig     = "https://sams.app/errors/config"
	ErrorTypeIntegrity  = "https://sams.app/errors/integrity"
	ErrorTypeTimeout    = "https://sams.app/errors/store-timeout"
	ErrorTypeSafety     = "https://sams.app/errors/safety-check-failed"
	ErrorTypeInternal   = "https://sams.app/errors/internal"
)

// kindStatus maps an apperr.Kind to the HTTP status and problem-type URI
// used to report it at the boundary.
var kindStatus = map[apperr.Kind]struct {
	status int
	typ    string
	title  string
}{
	apperr.InvalidInput:      {http.StatusBadRequest, ErrorTypeValidation, "Validation Error"},
	apperr.NotFound:          {http.StatusNotFound, ErrorTypeNotFound, "Not Found"},
	apperr.Forbidden:         {http.StatusForbidden, ErrorTypeForbidden, "Forbidden"},
	apperr.Conflict:          {http.StatusConflict, ErrorTypeConflict, "Conflict"},
	apperr.ConfigError:       {http.StatusBadRequest, ErrorTypeConfig, "Configuration Error"},
	apperr.Integrity:         {http.StatusInternalServerError, ErrorTypeIntegrity, "Integrity Violation"},
	apperr.StoreTimeout:      {http.StatusServiceUnavailable, ErrorTypeTimeout, "Store Unavailable"},
	apperr.SafetyCheckFailed: {http.StatusBadRequest, ErrorTypeSafety, "Safety Check Failed"},
	apperr.Internal:          {http.StatusInternalServerError, ErrorTypeInternal, "Internal Server Error"},
}

// RespondError writes the ProblemDetails response appropriate for err's Kind.
// Unrecognized errors are reported as apperr.Internal.
func RespondError(c echo.Context, err error) error {
	kind := apperr.KindOf(err)
	mapping, ok := kindStatus[kind]
	if !ok {
		mapping = kindStatus[apperr.Internal]
	}
	return c.JSON(mapping.status, ProblemDetails{
		Type:     mapping.typ,
		Title:    mapping.title,
		Status:   mapping.status,
		Detail:   err.Error(),
		Instance: c.Request().URL.Path,
	})
}

// NewValidationError creates a validation error response
func NewValidationError(c echo.Context, detail string, errors []ValidationError) error {
	return c.JSON(http.StatusBadRequest, ProblemDetails{
		Type:     ErrorTypeValidation,
		Title:    "Validation Error",
		Status:   http.StatusBadRequest,
		Detail:   detail,
		Instance: c.Request().URL.Path,
		Errors:   errors,
	})
}

// NewNotFoundError creates a not found error response
func NewNotFoundError(c echo.Context, detail string) error {
	return c.JSON(http.StatusNotFound, ProblemDetails{
		Type:     ErrorTypeNotFound,
		Title:    "Not Found",
		Status:   http.StatusNotFound,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewForbiddenError creates a forbidden error response
func NewForbiddenError(c echo.Context, detail string) error {
	return c.JSON(http.StatusForbidden, ProblemDetails{
		Type:     ErrorTypeForbidden,
		Title:    "Forbidden",
		Status:   http.StatusForbidden,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewConflictError creates a conflict error response
func NewConflictError(c echo.Context, detail string) error {
	return c.JSON(http.StatusConflict, ProblemDetails{
		Type:     ErrorTypeConflict,
		Title:    "Conflict",
		Status:   http.StatusConflict,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewInternalError creates an internal error response
func NewInternalError(c echo.Context, detail string) error {
	return c.JSON(http.StatusInternalServerError, ProblemDetails{
		Type:     ErrorTypeInternal,
		Title:    "Internal Server Error",
		Status:   http.StatusInternalServerError,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}
