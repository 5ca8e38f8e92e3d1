package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/finwatch/dividend-backend/config"
	"github.com/finwatch/dividend-backend/database"
	"github.com/finwatch/dividend-backend/handlers"
	"github.com/finwatch/dividend-backend/jobs"
	"github.com/finwatch/dividend-backend/services"
	"github.com/finwatch/dividend-backend/shared"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.LoadConfig()

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	if err := database.Connect(cfg.DatabaseURL); err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := database.Migrate("database/schema.sql"); err != nil {
		logrus.Warnf("Migration warning: %v", err)
	}

	// Cancelled on SIGINT/SIGTERM; an in-flight refresh cycle aborts cleanly
	// during its pacing delay instead of finishing the remaining companies
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scraper := services.NewYahooFinanceScraper(nil)
	companyStore := services.NewCompanyStore(database.DB)
	dividendStore := services.NewDividendStore(database.DB)
	nameIndex := services.NewCompanyNameIndex()
	dividendCache := services.NewDividendCache(cfg.GetCacheTTL(), 1000)
	ingestionMetrics := shared.NewIngestionMetrics()

	companyService := services.NewCompanyService(scraper, companyStore, dividendStore, nameIndex, dividendCache)
	financeService := services.NewFinanceService(companyStore, dividendStore, dividendCache)

	refreshJob := jobs.NewDividendRefreshJob(companyStore, scraper, dividendStore, dividendCache, ingestionMetrics, cfg.GetPacingDelay())

	companyHandler := handlers.NewCompanyHandler(companyService)
	financeHandler := handlers.NewFinanceHandler(financeService)

	// Warm the autocomplete index from the store on startup
	go func() {
		time.Sleep(2 * time.Second) // Wait for database to be ready
		if err := companyService.WarmIndex(ctx); err != nil {
			logrus.Warnf("Autocomplete index warmup failed: %v", err)
		}
	}()

	// Periodic ingestion trigger. The job itself skips overlapping triggers,
	// so a slow cycle never races a second one.
	go func() {
		refreshTicker := time.NewTicker(cfg.GetScrapeInterval())
		defer refreshTicker.Stop()

		// Run once shortly after startup
		startupTimer := time.NewTimer(10 * time.Second)
		defer startupTimer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-startupTimer.C:
				refreshJob.Run(ctx)
			case <-refreshTicker.C:
				refreshJob.Run(ctx)
			}
		}
	}()

	app := fiber.New()

	app.Use(logger.New())
	app.Use(cors.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		dbStatus := "ok"
		if err := database.HealthCheck(); err != nil {
			dbStatus = err.Error()
		}
		return c.JSON(fiber.Map{
			"status":    "ok",
			"database":  dbStatus,
			"ingestion": ingestionMetrics.Snapshot(),
			"timestamp": time.Now().Unix(),
		})
	})

	company := app.Group("/company")
	company.Get("/autocomplete", companyHandler.Autocomplete)
	company.Get("/autocomplete/index", companyHandler.IndexSearch)
	company.Get("/", companyHandler.ListCompanies)
	company.Post("/", companyHandler.AddCompany)
	company.Delete("/:ticker", companyHandler.DeleteCompany)

	finance := app.Group("/finance")
	finance.Get("/dividend/:companyName", financeHandler.GetDividendsByCompanyName)

	// Shut the server down when the signal context fires
	go func() {
		<-ctx.Done()
		logrus.Info("Shutting down server")
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	logrus.Infof("Server starting on port %s", cfg.ServerPort)
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		logrus.Fatalf("Server failed to start: %v", err)
	}

	ingestionMetrics.LogSummary()
}
