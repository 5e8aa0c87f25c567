package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"homease-backend/internal/handlers"
	"homease-backend/internal/metrics"
	"homease-backend/internal/middleware"
	"homease-backend/internal/models"
)

func newRouter(a *app) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(metrics.Middleware())
	router.Use(middleware.RequestLogger(a.logger))

	authHandler := handlers.NewAuthHandler(a.auth, a.cfg, a.logger)
	pagesHandler := handlers.NewPagesHandler(a.assessments, a.leads, a.contractors, a.cfg, a.logger)
	assessmentHandler := handlers.NewAssessmentHandler(a.assessments, a.logger)
	projectsHandler := handlers.NewProjectsHandler(a.assessments, a.logger)
	leadsHandler := handlers.NewLeadsHandler(a.leads, a.logger)
	contractorsHandler := handlers.NewContractorsHandler(a.contractors, a.logger)
	webhookHandler := handlers.NewStripeWebhookHandler(a.webhooks, a.logger)
	arHandler := handlers.NewARHandler(a.frames, a.cfg, a.logger)

	// Health and metrics (no auth)
	router.GET("/health", handlers.HealthHandler)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Stripe webhook (no auth, signature verified)
	router.POST("/api/webhooks/stripe", webhookHandler.HandleWebhook)

	// AR scanner, shared frame budget across every caller
	frameLimit := middleware.FrameRateLimit(middleware.NewFrameLimiter(a.cfg.ARMaxFramesPerSecond))
	for _, base := range []string{"/api/ar-assessment", "/api/ar-assessment.ts"} {
		ar := router.Group(base, middleware.OptionalAuth(a.cfg))
		ar.GET("", arHandler.Capabilities)
		ar.POST("", frameLimit, arHandler.ProcessFrame)
		ar.POST("/segment", frameLimit, arHandler.Segment)
	}

	// JSON API
	router.POST("/api/v1/auth/login", authHandler.APILogin)
	router.POST("/api/v1/auth/signup", authHandler.APISignup)

	api := router.Group("/api/v1", middleware.AuthMiddleware(a.cfg))

	homeowner := api.Group("", middleware.RequireRole(a.db, models.RoleHomeowner))
	homeowner.POST("/assessments", assessmentHandler.Submit)
	homeowner.GET("/assessments", assessmentHandler.List)
	homeowner.DELETE("/assessments/:id", assessmentHandler.Delete)
	homeowner.POST("/assessments/:id/visualize", assessmentHandler.Visualize)
	homeowner.POST("/assessments/quick", assessmentHandler.QuickAnalysis)
	homeowner.GET("/projects", projectsHandler.ListProjects)

	shared := api.Group("", middleware.RequireRole(a.db, models.RoleHomeowner, models.RoleContractor))
	shared.GET("/assessments/:id", assessmentHandler.Get)
	shared.GET("/projects/:id", projectsHandler.GetProject)

	contractor := api.Group("", middleware.RequireRole(a.db, models.RoleContractor))
	contractor.GET("/leads", leadsHandler.List)
	contractor.GET("/leads/:id", leadsHandler.Get)
	contractor.POST("/leads/:id/checkout", leadsHandler.Checkout)
	contractor.GET("/contractor/profile", contractorsHandler.GetProfile)
	contractor.PUT("/contractor/profile", contractorsHandler.UpdateProfile)
	contractor.POST("/contractor/onboarding", contractorsHandler.StartOnboarding)

	admin := api.Group("/admin", middleware.RequireRole(a.db, models.RoleAdmin))
	admin.POST("/payouts", contractorsHandler.Payout)

	// Server-rendered pages, guarded by redirects
	pages := router.Group("", middleware.AccessMiddleware(a.cfg, a.db, a.auth, a.logger))
	pages.GET("/", pagesHandler.Landing)
	pages.GET("/login", pagesHandler.Login)
	pages.POST("/login", authHandler.Login)
	pages.GET("/signup", pagesHandler.Signup)
	pages.POST("/signup", authHandler.Signup)
	pages.GET("/auth/oauth/:provider", authHandler.OAuthStart)
	pages.GET("/auth/callback", authHandler.Callback)
	pages.POST("/logout", authHandler.Logout)
	pages.GET("/dashboard", func(c *gin.Context) {
		c.Redirect(http.StatusFound, middleware.DashboardFor(middleware.CurrentRole(c)))
	})

	pages.GET("/homeowner/dashboard", pagesHandler.HomeownerDashboard)
	pages.GET("/homeowner/assess", pagesHandler.AssessForm)
	pages.POST("/homeowner/assess", pagesHandler.SubmitAssessment)
	pages.GET("/homeowner/projects/:id", pagesHandler.ProjectDetail)
	pages.GET("/homeowner/scan", pagesHandler.Scanner)

	pages.GET("/contractor/dashboard", pagesHandler.ContractorDashboard)
	pages.GET("/contractor/leads", pagesHandler.Leads)
	pages.GET("/contractor/leads/:id", pagesHandler.LeadDetail)
	pages.POST("/contractor/leads/:id/checkout", pagesHandler.LeadCheckout)
	pages.GET("/contractor/profile", pagesHandler.ContractorProfile)
	pages.POST("/contractor/profile", pagesHandler.UpdateContractorProfile)
	pages.POST("/contractor/onboarding", pagesHandler.StartOnboarding)

	pages.GET("/admin/dashboard", pagesHandler.AdminDashboard)
	pages.POST("/admin/payouts", pagesHandler.AdminPayout)

	return router
}
