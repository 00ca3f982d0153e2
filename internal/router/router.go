package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/formcraft-backend/internal/config"
	"github.com/stemsi/formcraft-backend/internal/handler"
	"github.com/stemsi/formcraft-backend/internal/metrics"
	"github.com/stemsi/formcraft-backend/internal/middleware"
	"github.com/stemsi/formcraft-backend/internal/model"
	"github.com/stemsi/formcraft-backend/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Form       *handler.FormHandler
	Builder    *handler.BuilderHandler
	Fill       *handler.FillHandler
	Submission *handler.SubmissionHandler
	WS         *handler.WSHandler
	Health     *handler.HealthHandler
}

// Options carries the cross-cutting pieces the router wires in. Metrics
// and SubmitLimiter may be nil.
type Options struct {
	Metrics       *metrics.Metrics
	SubmitLimiter *middleware.RateLimiter
	Log           zerolog.Logger
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
//
// Each route group also fixes the render mode its views use: builder
// session routes are BUILDER_EDIT, the form preview is BUILDER_PREVIEW,
// filling a form is LEARNER_SUBMISSION and every stored-response view is
// VIEW_SUBMISSION.
func SetupRouter(handlers *Handlers, cfg *config.Config, opts Options) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID", middleware.ActorHeader}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Content-Disposition"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware(opts.Log))
	if opts.Metrics != nil {
		router.Use(middleware.Metrics(opts.Metrics))
	}
	router.Use(middleware.Brotli())
	router.Use(middleware.Actor(cfg.DefaultActor))

	if handlers.Health != nil {
		router.GET("/health", handlers.Health.Health)
	}
	if opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	// ─── 1. Admin: dashboard and stored forms ──────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.NoStore())
	{
		adminAPI.GET("/forms", handlers.Form.List)
		adminAPI.GET("/forms/:id", handlers.Form.Get)
		adminAPI.DELETE("/forms/:id", handlers.Form.Delete)
		adminAPI.PATCH("/forms/:id/visibility", handlers.Form.SetVisibility)
		adminAPI.GET("/forms/:id/preview",
			middleware.WithMode(model.ModeBuilderPreview),
			handlers.Form.Preview,
		)

		// Responses
		adminAPI.GET("/forms/:id/responses", handlers.Submission.List)
		adminAPI.GET("/forms/:id/responses/export", handlers.Submission.Export)
		adminAPI.GET("/forms/:id/responses/:response_id",
			middleware.WithMode(model.ModeViewSubmission),
			handlers.Submission.View,
		)
	}

	// ─── 2. Admin: builder sessions ────────────────────────────────────
	builderAPI := adminAPI.Group("/builder/sessions")
	builderAPI.Use(middleware.WithMode(model.ModeBuilderEdit))
	{
		builderAPI.POST("", handlers.Builder.Start)
		builderAPI.GET("/:id", handlers.Builder.Get)
		builderAPI.DELETE("/:id", handlers.Builder.Close)
		builderAPI.PUT("/:id/config", handlers.Builder.UpdateConfig)
		builderAPI.POST("/:id/save", handlers.Builder.Save)

		builderAPI.POST("/:id/drag/start", handlers.Builder.DragStart)
		builderAPI.POST("/:id/drag/over", handlers.Builder.DragOver)
		builderAPI.POST("/:id/drag/drop", handlers.Builder.Drop)
		builderAPI.POST("/:id/drag/cancel", handlers.Builder.Cancel)

		builderAPI.PUT("/:id/active", handlers.Builder.SetActive)
		builderAPI.POST("/:id/fields", handlers.Builder.InsertField)
		builderAPI.PATCH("/:id/fields/:field_id", handlers.Builder.UpdateField)
		builderAPI.DELETE("/:id/fields/:field_id", handlers.Builder.RemoveField)
		builderAPI.POST("/:id/fields/:field_id/duplicate", handlers.Builder.DuplicateField)
		builderAPI.POST("/:id/fields/:field_id/options", handlers.Builder.AddOption)
		builderAPI.PATCH("/:id/fields/:field_id/options/:option_id", handlers.Builder.UpdateOption)
		builderAPI.DELETE("/:id/fields/:field_id/options/:option_id", handlers.Builder.DeleteOption)
	}

	previewAPI := builderAPI.Group("/:id/preview")
	previewAPI.Use(middleware.WithMode(model.ModeBuilderPreview))
	{
		previewAPI.GET("", handlers.Builder.Preview)
		previewAPI.POST("/answers", handlers.Builder.PreviewAnswer)
		previewAPI.DELETE("/answers", handlers.Builder.ClearPreview)
		previewAPI.POST("/fields/:field_id/upload", handlers.Builder.PreviewUpload)
	}

	// ─── 3. Learner ────────────────────────────────────────────────────
	learnerAPI := router.Group("/api/v1/learner")
	{
		learnerAPI.GET("/forms", middleware.CacheControl(30), handlers.Form.ListAvailable)

		fill := learnerAPI.Group("/forms/:id")
		fill.Use(middleware.WithMode(model.ModeLearnerSubmission))
		{
			fill.GET("", handlers.Fill.Open)
			fill.POST("/fields/:field_id/upload", handlers.Fill.Upload)
			if opts.SubmitLimiter != nil {
				fill.POST("/submit", opts.SubmitLimiter.Middleware(), handlers.Fill.Submit)
			} else {
				fill.POST("/submit", handlers.Fill.Submit)
			}
		}

		learnerAPI.GET("/submissions", middleware.NoStore(), handlers.Fill.MySubmissions)
		learnerAPI.GET("/submissions/:response_id",
			middleware.NoStore(),
			middleware.WithMode(model.ModeViewSubmission),
			handlers.Fill.ViewSubmission,
		)
	}

	// ─── 4. WebSocket ──────────────────────────────────────────────────
	if handlers.WS != nil {
		ws := router.Group("/ws/v1")
		{
			ws.GET("/builder/sessions/:id/stream", handlers.WS.BuilderStream)
		}
	}

	return router
}
