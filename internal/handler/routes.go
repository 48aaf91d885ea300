package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/sandyland/sams-core/internal/middleware"
)

// Handlers bundles every domain handler RegisterRoutes wires up, so the
// entrypoint only has one value to assemble and pass down.
type Handlers struct {
	Transaction *TransactionHandler
	Credit      *CreditBalanceHandler
	HOADues     *HOADuesHandler
	Water       *WaterHandler
	Payment     *PaymentHandler
	Penalty     *PenaltyHandler
	Report      *ReportHandler
	ImportPurge *ImportPurgeHandler
	WebSocket   *WebSocketHandler
}

// RegisterRoutes wires every tenant-scoped API route behind the principal
// middleware and a per-tenant access check.
func RegisterRoutes(e *echo.Echo, principalMW *middleware.PrincipalMiddleware, rateLimiter *middleware.RateLimiter, h *Handlers) {
	api := e.Group("/api/v1")
	api.Use(principalMW.Authenticate())

	e.GET("/api/v1/openapi.json", ServeOpenAPI3Spec)

	tenant := api.Group("/tenants/:tenantId",
		middleware.RequireTenantAccess("tenantId"),
		middleware.RateLimitMiddleware(rateLimiter, "tenantId"),
	)

	tenant.GET("/ws", h.WebSocket.HandleWS)

	txns := tenant.Group("/transactions")
	txns.POST("", h.Transaction.Create)
	txns.GET("", h.Transaction.List)
	txns.GET("/:docId", h.Transaction.Get)
	txns.DELETE("/:docId", h.Transaction.Delete)

	credit := tenant.Group("/units/:unitId/credit")
	credit.GET("", h.Credit.Get)
	credit.POST("/apply", h.Credit.Apply)

	dues := tenant.Group("/dues")
	dues.GET("/:fiscalYear", h.HOADues.ListYear)
	dues.POST("/units/:unitId/:fiscalYear/payments", h.HOADues.RecordPayment)
	dues.DELETE("/units/:unitId/:fiscalYear/payments/:transactionId", h.HOADues.ReversePayment)

	water := tenant.Group("/water")
	water.GET("/readings/:fiscalYear/:fiscalMonth", h.Water.GetReadings)
	water.PUT("/readings/:fiscalYear/:fiscalMonth", h.Water.UpsertReadings)
	water.GET("/bills/:fiscalYear/:quarter", h.Water.GetBill)

	payments := tenant.Group("/payments")
	payments.POST("/preview", h.Payment.Preview)
	payments.POST("", h.Payment.Commit)

	tenant.POST("/penalties/recalc", h.Penalty.Recalc)

	reports := tenant.Group("/reports")
	reports.GET("/units/:unitId/statement", h.Report.StatementOfAccount)
	reports.GET("/budget-vs-actual", h.Report.BudgetVsActual)
	reports.GET("/corrupt-transactions", h.Report.CorruptTransactions)

	admin := tenant.Group("/admin")
	admin.POST("/import", h.ImportPurge.Import)
	admin.POST("/purge", h.ImportPurge.Purge)
}
