package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizrunner/internal/config"
	"github.com/stemsi/quizrunner/internal/handler"
	"github.com/stemsi/quizrunner/internal/middleware"
	"github.com/stemsi/quizrunner/internal/response"
)

// questionsMaxAge is how long clients may cache the question set. The set is
// loaded once at startup and never changes while the process runs.
const questionsMaxAge = 300

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Quiz     *handler.QuizHandler
	Question *handler.QuestionHandler
	WS       *handler.WSHandler
	Health   *handler.HealthHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// limiter guards session creation and may be nil to disable rate limiting.
func SetupRouter(
	handlers *Handlers,
	limiter *middleware.RateLimiter,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.AccessLog(log))
	router.Use(middleware.Brotli())

	router.NoRoute(func(c *gin.Context) {
		response.Fail(c, response.ErrNotFound)
	})

	// Health check.
	router.GET("/health", handlers.Health.Health)

	// ─── 1. Question Set (Read Only) ───────────────────────────────────
	api := router.Group("/api/v1")
	api.GET("/questions", middleware.CacheControl(questionsMaxAge), handlers.Question.ListQuestions)

	// ─── 2. Quiz Sessions ──────────────────────────────────────────────
	sessions := api.Group("/sessions")
	sessions.Use(middleware.NoStore())
	{
		if limiter != nil {
			sessions.POST("", limiter.Middleware(), handlers.Quiz.StartSession)
		} else {
			sessions.POST("", handlers.Quiz.StartSession)
		}
		sessions.GET("/:id", handlers.Quiz.GetSession)
		sessions.DELETE("/:id", handlers.Quiz.EndSession)

		sessions.POST("/:id/select", handlers.Quiz.SelectOption)
		sessions.POST("/:id/judge", handlers.Quiz.Judge)
		sessions.POST("/:id/next", handlers.Quiz.Next)
		sessions.POST("/:id/previous", handlers.Quiz.Previous)
		sessions.POST("/:id/reset", handlers.Quiz.Reset)
		sessions.POST("/:id/return", handlers.Quiz.ReturnToQuiz)
		sessions.GET("/:id/report", handlers.Quiz.GetReport)
	}

	// ─── 3. WebSocket Group ────────────────────────────────────────────
	ws := router.Group("/ws/v1")
	{
		ws.GET("/sessions/:id/stream", handlers.WS.SessionStream)
	}

	return router
}
