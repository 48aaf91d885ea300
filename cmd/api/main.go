package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sandyland/sams-core/internal/audit"
	"github.com/sandyland/sams-core/internal/config"
	"github.com/sandyland/sams-core/internal/domain"
	"github.com/sandyland/sams-core/internal/handler"
	"github.com/sandyland/sams-core/internal/importpurge"
	"github.com/sandyland/sams-core/internal/jobslot"
	"github.com/sandyland/sams-core/internal/kernel"
	"github.com/sandyland/sams-core/internal/middleware"
	"github.com/sandyland/sams-core/internal/ports"
	"github.com/sandyland/sams-core/internal/scheduler"
	"github.com/sandyland/sams-core/internal/service"
	"github.com/sandyland/sams-core/internal/store"
	"github.com/sandyland/sams-core/internal/store/memstore"
	"github.com/sandyland/sams-core/internal/store/pgstore"
	"github.com/sandyland/sams-core/internal/websocket"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	docStore, closeStore := newStore(cfg)
	defer closeStore()

	loc := kernel.TenantZone(cfg.TenantTimezoneOffsetMinutes)
	auditLog := audit.New(docStore)
	ids := kernel.NewIDGenerator(loc, time.Now, time.Now().UnixNano())
	hub := websocket.NewHub()
	jobs := jobslot.NewRegistry()

	waterReadings := service.NewWaterReadingsService(docStore)
	penaltyRecalc := service.NewPenaltyRecalculator(docStore)
	penaltyRecalc.SetEventPublisher(hub)
	waterBills := service.NewWaterBillGenerator(docStore, waterReadings, penaltyRecalc, cfg.DefaultFiscalYearStartMonth, loc)
	waterBills.SetEventPublisher(hub)
	hoaDues := service.NewHOADuesService(docStore, cfg.DefaultFiscalYearStartMonth, 0, loc)
	txnEngine := service.NewTransactionEngine(docStore, ids, auditLog, hoaDues, waterBills)
	txnEngine.SetEventPublisher(hub)
	credit := service.NewCreditBalanceService(docStore)
	paymentDistributor := service.NewPaymentDistributor(docStore, ids, credit, hoaDues, waterBills, auditLog)
	paymentDistributor.SetEventPublisher(hub)
	reports := service.NewReportAggregator(docStore, credit, cfg.DefaultFiscalYearStartMonth, loc)

	importer := importpurge.NewImporter(docStore, auditLog, jobs)
	importer.SetEventPublisher(hub)
	purger := importpurge.NewPurger(docStore, auditLog, jobs)
	purger.SetEventPublisher(hub)

	var importFiles ports.ImportFileStore
	if cfg.S3.Bucket != "" {
		importFiles, err = ports.NewS3ImportFileStore(context.Background(), cfg.S3)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize import bundle store")
		}
	}

	lister := &storeTenantLister{store: docStore}
	sched := scheduler.New(lister, func(ctx context.Context, tenantID string) error {
		tenantDoc, err := docStore.Get(ctx, "clients/"+tenantID)
		if err != nil {
			return err
		}
		var tenant domain.Tenant
		if err := store.FromDoc(tenantDoc, &tenant); err != nil {
			return err
		}
		_, err = penaltyRecalc.RecalcTenant(ctx, tenantID, tenant.Water, time.Now().In(loc))
		return err
	}, cfg.PenaltyRecalcCronDay, time.Hour)

	schedCtx, cancelSched := context.WithCancel(context.Background())
	defer cancelSched()
	go sched.Run(schedCtx)

	principalMW := middleware.NewPrincipalMiddleware()
	rateLimiter := middleware.NewRateLimiter()
	defer rateLimiter.Stop()

	handlers := &handler.Handlers{
		Transaction: handler.NewTransactionHandler(txnEngine),
		Credit:      handler.NewCreditBalanceHandler(credit),
		HOADues:     handler.NewHOADuesHandler(hoaDues),
		Water:       handler.NewWaterHandler(waterReadings, waterBills),
		Payment:     handler.NewPaymentHandler(paymentDistributor),
		Penalty:     handler.NewPenaltyHandler(penaltyRecalc),
		Report:      handler.NewReportHandler(reports),
		ImportPurge: handler.NewImportPurgeHandler(importer, purger, importFiles),
		WebSocket:   handler.NewWebSocketHandler(hub, cfg.CORSOrigins),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomiddleware.RequestID())

	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	e.Use(zerologMiddleware())
	e.Use(echomiddleware.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	handler.RegisterRoutes(e, principalMW, rateLimiter, handlers)

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// newStore picks the document-store backend: pgstore against cfg.DatabaseURL
// when set, memstore otherwise (local development and tests).
func newStore(cfg *config.Config) (store.Store, func()) {
	if cfg.DatabaseURL == "" {
		log.Warn().Msg("DATABASE_URL not set, using in-memory store")
		return memstore.New(), func() {}
	}

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Connected to database")
	return pgstore.New(pool), pool.Close
}

// storeTenantLister lists every tenant document under "clients" for the
// monthly scheduler to visit.
type storeTenantLister struct {
	store store.Store
}

func (l *storeTenantLister) ListTenantIDs(ctx context.Context) ([]string, error) {
	docs, err := l.store.ListDocs(ctx, "clients")
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		if i := strings.LastIndex(d.Path, "/"); i >= 0 {
			ids = append(ids, d.Path[i+1:])
		} else {
			ids = append(ids, d.Path)
		}
	}
	return ids, nil
}

// zerologMiddleware logs each request's method, path, status, and latency.
func zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			log.Info().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Msg("request")

			return nil
		}
	}
}
