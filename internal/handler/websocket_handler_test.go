package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	appmw "github.com/sandyland/sams-core/internal/middleware"
	"github.com/sandyland/sams-core/internal/websocket"
	"github.com/stretchr/testify/assert"
)

var testAllowedOrigins = []string{"http://localhost:3000", "https://sams.app"}

// withPrincipal simulates PrincipalMiddleware having already run and
// injected a Principal into the request context.
func withPrincipal(req *http.Request, userID string, isSuperAdmin bool, tenantIDs ...string) *http.Request {
	access := make(map[string]bool)
	for _, t := range tenantIDs {
		access[t] = true
	}
	ctx := context.WithValue(req.Context(), appmw.UserIDKey, userID)
	ctx = context.WithValue(ctx, appmw.IsSuperAdminKey, isSuperAdmin)
	ctx = context.WithValue(ctx, appmw.PropertyAccessKey, access)
	return req.WithContext(ctx)
}

func TestWebSocketHandler_HandleWS_MissingTenant(t *testing.T) {
	e := echo.New()
	hub := websocket.NewHub()
	h := NewWebSocketHandler(hub, testAllowedOrigins)

	req := withPrincipal(httptest.NewRequest(http.MethodGet, "/ws", nil), "user-1", false, "AVII")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.HandleWS(c)

	assert.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestWebSocketHandler_HandleWS_NoTenantAccess(t *testing.T) {
	e := echo.New()
	hub := websocket.NewHub()
	h := NewWebSocketHandler(hub, testAllowedOrigins)

	req := withPrincipal(httptest.NewRequest(http.MethodGet, "/ws", nil), "user-1", false, "MTC")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("tenantId")
	c.SetParamValues("AVII")

	err := h.HandleWS(c)

	assert.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusForbidden, httpErr.Code)
}

func TestWebSocketHandler_HandleWS_Authorized_NoUpgrade(t *testing.T) {
	e := echo.New()
	hub := websocket.NewHub()
	h := NewWebSocketHandler(hub, testAllowedOrigins)

	// Authorized but not a WebSocket upgrade request
	req := withPrincipal(httptest.NewRequest(http.MethodGet, "/ws", nil), "user-1", false, "AVII")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("tenantId")
	c.SetParamValues("AVII")

	err := h.HandleWS(c)

	// gorilla/websocket returns an error when upgrade fails (no upgrade headers).
	// We're testing that access control passes before the upgrade attempt.
	assert.Error(t, err)
	assert.NotContains(t, err.Error(), "forbidden")
}

func TestWebSocketHandler_HandleWS_SuperAdmin_AnyTenant(t *testing.T) {
	e := echo.New()
	hub := websocket.NewHub()
	h := NewWebSocketHandler(hub, testAllowedOrigins)

	req := withPrincipal(httptest.NewRequest(http.MethodGet, "/ws", nil), "admin-1", true)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("tenantId")
	c.SetParamValues("AVII")

	err := h.HandleWS(c)

	assert.Error(t, err)
	assert.NotContains(t, err.Error(), "forbidden")
}

func TestWebSocketHandler_CheckOrigin(t *testing.T) {
	hub := websocket.NewHub()
	h := NewWebSocketHandler(hub, testAllowedOrigins)

	tests := []struct {
		name     string
		origin   string
		expected bool
	}{
		{"allowed origin", "http://localhost:3000", true},
		{"allowed origin https", "https://sams.app", true},
		{"disallowed origin", "https://evil.com", false},
		{"empty origin (same-origin)", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			result := h.checkOrigin(req)
			assert.Equal(t, tt.expected, result)
		})
	}
}
