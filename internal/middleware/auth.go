package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// UserIDKey is the context key for the authenticated user's ID
	UserIDKey contextKey = "user_id"
	// IsSuperAdminKey is the context key for the super-admin flag
	IsSuperAdminKey contextKey = "is_super_admin"
	// PropertyAccessKey is the context key for the per-tenant access map
	PropertyAccessKey contextKey = "property_access"
)

// headers a trusted upstream gateway is expected to set once it has
// authenticated the caller. This middleware does not itself validate
// credentials; it only trusts and parses what the gateway asserts.
const (
	headerUserID      = "X-User-Id"
	headerSuperAdmin  = "X-Super-Admin"
	headerPropertyIDs = "X-Property-Access"
)

// Principal describes the pre-authenticated caller for the lifetime of one request
type Principal struct {
	UserID         string
	IsSuperAdmin   bool
	PropertyAccess map[string]bool
}

// HasAccess reports whether the principal can act on the given tenant
func (p Principal) HasAccess(tenantID string) bool {
	if p.IsSuperAdmin {
		return true
	}
	return p.PropertyAccess[tenantID]
}

// PrincipalMiddleware injects a Principal parsed from upstream-asserted headers
type PrincipalMiddleware struct{}

// NewPrincipalMiddleware creates a new PrincipalMiddleware
func NewPrincipalMiddleware() *PrincipalMiddleware {
	return &PrincipalMiddleware{}
}

// Authenticate returns an Echo middleware that reads the pre-authenticated
// principal asserted by an upstream gateway and injects it into the request context
func (m *PrincipalMiddleware) Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID := c.Request().Header.Get(headerUserID)
			if userID == "" {
				return unauthorizedError(c, "missing principal")
			}

			isSuperAdmin := strings.EqualFold(c.Request().Header.Get(headerSuperAdmin), "true")

			access := make(map[string]bool)
			raw := c.Request().Header.Get(headerPropertyIDs)
			if raw != "" {
				for _, tenantID := range strings.Split(raw, ",") {
					tenantID = strings.TrimSpace(tenantID)
					if tenantID != "" {
						access[tenantID] = true
					}
				}
			}

			principal := Principal{
				UserID:         userID,
				IsSuperAdmin:   isSuperAdmin,
				PropertyAccess: access,
			}

			ctx := context.WithValue(c.Request().Context(), UserIDKey, principal.UserID)
			ctx = context.WithValue(ctx, IsSuperAdminKey, principal.IsSuperAdmin)
			ctx = context.WithValue(ctx, PropertyAccessKey, principal.PropertyAccess)
			c.SetRequest(c.Request().WithContext(ctx))

			log.Debug().
				Str("user_id", principal.UserID).
				Bool("is_super_admin", principal.IsSuperAdmin).
				Msg("principal authenticated")

			return next(c)
		}
	}
}

// GetPrincipal extracts the Principal from the request context
func GetPrincipal(c echo.Context) Principal {
	ctx := c.Request().Context()
	userID, _ := ctx.Value(UserIDKey).(string)
	isSuperAdmin, _ := ctx.Value(IsSuperAdminKey).(bool)
	access, _ := ctx.Value(PropertyAccessKey).(map[string]bool)
	if access == nil {
		access = make(map[string]bool)
	}
	return Principal{
		UserID:         userID,
		IsSuperAdmin:   isSuperAdmin,
		PropertyAccess: access,
	}
}

// RequireTenantAccess returns a middleware that rejects requests whose
// principal lacks access to the tenant named by the given path parameter
func RequireTenantAccess(tenantParam string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tenantID := c.Param(tenantParam)
			principal := GetPrincipal(c)
			if !principal.HasAccess(tenantID) {
				return forbiddenError(c, "no access to this property")
			}
			return next(c)
		}
	}
}
