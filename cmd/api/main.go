package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/bharatprops/lifecycle-api/docs"
	"github.com/bharatprops/lifecycle-api/internal/auth"
	"github.com/bharatprops/lifecycle-api/internal/config"
	"github.com/bharatprops/lifecycle-api/internal/database"
	"github.com/bharatprops/lifecycle-api/internal/http/handler"
	"github.com/bharatprops/lifecycle-api/internal/http/middleware"
	"github.com/bharatprops/lifecycle-api/internal/http/router"
	"github.com/bharatprops/lifecycle-api/internal/jobs"
	"github.com/bharatprops/lifecycle-api/internal/logger"
	"github.com/bharatprops/lifecycle-api/internal/repository"
	"github.com/bharatprops/lifecycle-api/internal/service"
)

// @title Bharat Properties Lifecycle API
// @version 1.0
// @description Lead lifecycle engine for real-estate sales: scoring, pipeline stage guard, and lead-to-contact conversion

// @contact.name API Support
// @contact.email support@bharatprops.in

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token
// @Security BearerAuth

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&cfg.Logging, &cfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Environment),
		zap.Int("port", cfg.App.Port),
	)

	// Configure Swagger host based on environment
	switch cfg.App.Environment {
	case "production":
		docs.SwaggerInfo.Host = "api.bharatprops.in"
	default:
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", cfg.App.Port)
	}

	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// AutoMigrate keeps the schema current in development; everywhere
	// else the goose migrations own the schema.
	if cfg.App.Environment == "development" {
		if err := database.AutoMigrate(db); err != nil {
			return fmt.Errorf("failed to auto-migrate: %w", err)
		}
		log.Info("Auto-migration completed")
	}

	// Initialize repositories
	leadRepo := repository.NewLeadRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	contactRepo := repository.NewContactRepository(db)
	historyRepo := repository.NewStageHistoryRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	// Initialize services
	settingsService := service.NewSettingsService(settingsRepo, cfg.Engine.DefaultEnforcement, log)
	leadService := service.NewLeadService(leadRepo, activityRepo, historyRepo, settingsService, log)
	conversionService := service.NewConversionService(leadRepo, contactRepo, settingsService, log)
	contactService := service.NewContactService(contactRepo, log)

	// Initialize middleware
	authMiddleware := auth.NewMiddleware(cfg, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	// Initialize handlers
	leadHandler := handler.NewLeadHandler(leadService, log)
	stageHandler := handler.NewStageHandler(leadService, log)
	conversionHandler := handler.NewConversionHandler(conversionService, log)
	contactHandler := handler.NewContactHandler(contactService, log)
	settingsHandler := handler.NewSettingsHandler(settingsService, log)

	// Setup router
	rt := router.NewRouter(
		cfg,
		log,
		db,
		authMiddleware,
		rateLimiter,
		leadHandler,
		stageHandler,
		conversionHandler,
		contactHandler,
		settingsHandler,
	)

	// Start the scheduler with the nightly pipeline sweep
	var scheduler *jobs.Scheduler
	if cfg.Jobs.Enabled {
		scheduler = jobs.NewScheduler(log)

		sweep := jobs.NewSweepJob(
			leadRepo,
			activityRepo,
			historyRepo,
			settingsService,
			cfg.Jobs.StallAfterDays,
			30*time.Minute,
			log,
		)
		if err := scheduler.AddJob(jobs.SweepJobName, cfg.Jobs.SweepSchedule, sweep.Run); err != nil {
			log.Error("Failed to register pipeline sweep job", zap.Error(err))
		} else {
			scheduler.Start()
			log.Info("Scheduler started with pipeline sweep job",
				zap.String("cron_expr", cfg.Jobs.SweepSchedule),
				zap.Int("stall_after_days", cfg.Jobs.StallAfterDays),
			)
		}
	} else {
		log.Info("Background jobs disabled", zap.Bool("jobs_enabled", cfg.Jobs.Enabled))
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	// Wait for interrupt signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		// Stop scheduler if running
		if scheduler != nil {
			ctx := scheduler.Stop()
			<-ctx.Done()
			log.Info("Scheduler stopped")
		}

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
