package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bharatprops/lifecycle-api/internal/auth"
	"github.com/bharatprops/lifecycle-api/internal/config"
	"github.com/bharatprops/lifecycle-api/internal/database"
	"github.com/bharatprops/lifecycle-api/internal/domain"
	"github.com/bharatprops/lifecycle-api/internal/http/handler"
	"github.com/bharatprops/lifecycle-api/internal/http/middleware"

	_ "github.com/bharatprops/lifecycle-api/docs" // generated swagger docs
)

type Router struct {
	cfg               *config.Config
	logger            *zap.Logger
	db                *gorm.DB
	authMiddleware    *auth.Middleware
	rateLimiter       *middleware.RateLimiter
	leadHandler       *handler.LeadHandler
	stageHandler      *handler.StageHandler
	conversionHandler *handler.ConversionHandler
	contactHandler    *handler.ContactHandler
	settingsHandler   *handler.SettingsHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	leadHandler *handler.LeadHandler,
	stageHandler *handler.StageHandler,
	conversionHandler *handler.ConversionHandler,
	contactHandler *handler.ContactHandler,
	settingsHandler *handler.SettingsHandler,
) *Router {
	return &Router{
		cfg:               cfg,
		logger:            logger,
		db:                db,
		authMiddleware:    authMiddleware,
		rateLimiter:       rateLimiter,
		leadHandler:       leadHandler,
		stageHandler:      stageHandler,
		conversionHandler: conversionHandler,
		contactHandler:    contactHandler,
		settingsHandler:   settingsHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)

	// Health check (basic liveness probe)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Database health check (readiness probe with pool stats)
	r.Get("/health/db", func(w http.ResponseWriter, r *http.Request) {
		stats, err := database.HealthCheckWithStats(rt.db)
		if err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status":  "unhealthy",
				"error":   err.Error(),
				"service": "database",
			})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "healthy",
			"service": "database",
			"stats": map[string]interface{}{
				"max_open_connections": stats.MaxOpenConnections,
				"open_connections":     stats.OpenConnections,
				"in_use":               stats.InUse,
				"idle":                 stats.Idle,
				"wait_count":           stats.WaitCount,
				"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
			},
		})
	})

	// Combined readiness check
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		checks := make(map[string]interface{})
		allHealthy := true

		if err := database.HealthCheck(rt.db); err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			checks["database"] = map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			}
			allHealthy = false
		} else {
			checks["database"] = map[string]interface{}{
				"status": "healthy",
			}
		}

		w.Header().Set("Content-Type", "application/json")
		status := http.StatusOK
		statusText := "healthy"
		if !allHealthy {
			status = http.StatusServiceUnavailable
			statusText = "unhealthy"
		}
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": statusText,
			"checks": checks,
		})
	})

	// Swagger documentation
	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.Authenticate)

			// Leads
			r.Route("/leads", func(r chi.Router) {
				r.Get("/", rt.leadHandler.ListLeads)
				r.Get("/pipeline", rt.leadHandler.PipelineCounts)
				r.Get("/{id}", rt.leadHandler.GetLead)
				r.Get("/{id}/activities", rt.leadHandler.ListActivities)
				r.Get("/{id}/score", rt.leadHandler.GetScore)
				r.Get("/{id}/stage-history", rt.stageHandler.ListStageHistory)
				r.Get("/{id}/convert", rt.conversionHandler.GetConversionStatus)

				// Mutations need a pipeline-write role
				r.Group(func(r chi.Router) {
					r.Use(rt.authMiddleware.RequirePipelineWrite)

					r.Post("/", rt.leadHandler.CreateLead)
					r.Put("/{id}", rt.leadHandler.UpdateLead)
					r.Delete("/{id}", rt.leadHandler.DeleteLead)
					r.Post("/{id}/activities", rt.leadHandler.LogActivity)
					r.Put("/{id}/stage", rt.stageHandler.ChangeStage)
					r.Post("/{id}/convert", rt.conversionHandler.ConvertLead)
					r.Post("/{id}/events", rt.conversionHandler.ReportEvent)
				})
			})

			// Pipeline guard dry-run
			r.Post("/pipeline/validate", rt.stageHandler.ValidateStage)

			// Contacts (created by conversion, read-only here)
			r.Route("/contacts", func(r chi.Router) {
				r.Get("/", rt.contactHandler.ListContacts)
				r.Get("/search", rt.contactHandler.SearchContacts)
				r.Get("/{id}", rt.contactHandler.GetContact)
			})

			// Engine settings (admin only for writes)
			r.Route("/settings/engine", func(r chi.Router) {
				r.Get("/", rt.settingsHandler.GetSettings)
				r.With(rt.authMiddleware.RequireRole(domain.RoleAdmin)).
					Put("/", rt.settingsHandler.UpdateSettings)
			})
		})
	})

	return r
}
