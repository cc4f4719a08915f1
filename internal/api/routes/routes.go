package routes

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/legaltrack-ph/legaltrack/backend/internal/api/handlers"
	"github.com/legaltrack-ph/legaltrack/backend/internal/api/middleware"
	"github.com/legaltrack-ph/legaltrack/backend/internal/config"
	"github.com/legaltrack-ph/legaltrack/backend/internal/database"
	"github.com/legaltrack-ph/legaltrack/backend/internal/metrics"
	"github.com/legaltrack-ph/legaltrack/backend/internal/models"
	"github.com/legaltrack-ph/legaltrack/backend/internal/services"
)

// LGU-facing case routes are shared by the two submitting roles.
var submitterRoles = []string{models.RoleLGUAdmin, models.RoleCapitolReceiving}

// Register wires up API routes and performs automatic migrations.
func Register(router *gin.Engine, db *gorm.DB, cfg config.Config) (*services.Scheduler, error) {
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	registry := prometheus.NewRegistry()
	metrics.Register(registry)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	router.GET("/api/v1/health", handlers.HealthHandler)

	// Services
	authService := services.NewAuthService(db, cfg)
	auditService := services.NewAuditService(db)
	userService := services.NewUserService(db, cfg, authService)
	caseService := services.NewCaseService(db)
	notifier := services.NewNotificationService(cfg.NotifyURLs)
	workflowService := services.NewWorkflowService(db, notifier)
	documentService := services.NewDocumentService(db, cfg.MediaDir)
	reportService := services.NewReportService(db)
	supportService := services.NewSupportService(db)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, cfg.IsProduction())
	userHandler := handlers.NewUserHandler(userService)
	caseHandler := handlers.NewCaseHandler(caseService, auditService)
	workflowHandler := handlers.NewWorkflowHandler(workflowService, caseHandler)
	documentHandler := handlers.NewDocumentHandler(documentService, caseHandler)
	reportHandler := handlers.NewReportHandler(reportService)
	auditHandler := handlers.NewAuditHandler(auditService)
	supportHandler := handlers.NewSupportHandler(supportService)
	trackerHandler := handlers.NewTrackerHandler(caseService)

	api := router.Group("/api/v1")

	// Public routes: login, onboarding, tracker, FAQs, feedback.
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/activate", authHandler.Activate)
	api.POST("/auth/forgot-password", authHandler.ForgotPassword)
	api.GET("/track/:trackingID", trackerHandler.Track)
	api.GET("/faqs", supportHandler.PublicFAQs)
	api.POST("/feedback", supportHandler.SubmitFeedback)

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(authService))
	protected.Use(middleware.ForcePasswordChange(
		"/api/v1/auth/change-password",
		"/api/v1/auth/logout",
		"/api/v1/auth/me",
	))
	{
		protected.POST("/auth/logout", authHandler.Logout)
		protected.GET("/auth/me", authHandler.Me)
		protected.POST("/auth/change-password", authHandler.ChangePassword)

		// Drafts and submissions
		cases := protected.Group("/cases")
		{
			cases.GET("", caseHandler.List)
			cases.POST("", middleware.RequireAnyRole(submitterRoles...), caseHandler.CreateDraft)
			cases.GET("/drafts", middleware.RequireAnyRole(submitterRoles...), caseHandler.ListDrafts)
			cases.DELETE("/drafts/:draftID", middleware.RequireAnyRole(submitterRoles...), caseHandler.DeleteDraft)

			cases.GET("/:key", caseHandler.Get)
			cases.PUT("/:key/details", caseHandler.UpdateDetails)
			cases.PUT("/:key/checklist", caseHandler.UpdateChecklist)
			cases.POST("/:key/remarks", caseHandler.AddRemark)
			cases.GET("/:key/history", caseHandler.History)

			cases.POST("/:key/documents", documentHandler.Upload)
			cases.GET("/:key/documents/:docID", documentHandler.Download)
			cases.DELETE("/:key/documents/:docID", documentHandler.Delete)

			// Pipeline transitions; each handler re-checks role and status.
			cases.POST("/:key/finalize", workflowHandler.Finalize)
			cases.POST("/:key/receive", workflowHandler.Receive)
			cases.POST("/:key/return", workflowHandler.ReturnToLGU)
			cases.POST("/:key/assign", workflowHandler.Assign)
			cases.POST("/:key/submit-for-approval", workflowHandler.SubmitForApproval)
			cases.POST("/:key/return-to-receiving", workflowHandler.ReturnToReceiving)
			cases.POST("/:key/approve", workflowHandler.Approve)
			cases.POST("/:key/return-for-correction", workflowHandler.ReturnForCorrection)
			cases.POST("/:key/number", workflowHandler.AssignNumber)
			cases.POST("/:key/release", workflowHandler.Release)
		}

		protected.GET("/examiners",
			middleware.RequireAnyRole(models.RoleCapitolReceiving, models.RoleSuperAdmin),
			userHandler.Examiners)

		// Reports
		reports := protected.Group("/reports")
		reports.Use(middleware.RequireAnyRole(models.RoleSuperAdmin, models.RoleCapitolApprover))
		{
			reports.GET("/summary", reportHandler.Summary)
			reports.GET("/status-breakdown", reportHandler.StatusBreakdown)
			reports.GET("/monthly", reportHandler.Monthly)
			reports.GET("/export", reportHandler.ExportCSV)
		}

		// Administration
		admin := protected.Group("/admin")
		admin.Use(middleware.RequireRole(models.RoleSuperAdmin))
		{
			admin.POST("/users", userHandler.Create)
			admin.GET("/users", userHandler.List)
			admin.PUT("/users/:id", userHandler.Update)
			admin.POST("/users/:id/toggle-active", userHandler.ToggleActive)
			admin.POST("/users/:id/resend-activation", userHandler.ResendActivation)

			admin.GET("/audit", auditHandler.List)
			admin.GET("/audit/export", auditHandler.ExportCSV)

			admin.GET("/faqs", supportHandler.ListFAQs)
			admin.POST("/faqs", supportHandler.CreateFAQ)
			admin.PUT("/faqs/:id", supportHandler.UpdateFAQ)
			admin.DELETE("/faqs/:id", supportHandler.DeleteFAQ)

			admin.GET("/feedback", supportHandler.ListFeedback)
			admin.POST("/feedback/:id/resolve", supportHandler.ResolveFeedback)
		}
	}

	scheduler := services.NewScheduler(userService)
	return scheduler, nil
}
