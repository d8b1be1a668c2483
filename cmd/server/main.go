package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizrunner/internal/config"
	"github.com/stemsi/quizrunner/internal/database"
	"github.com/stemsi/quizrunner/internal/handler"
	"github.com/stemsi/quizrunner/internal/logger"
	"github.com/stemsi/quizrunner/internal/middleware"
	"github.com/stemsi/quizrunner/internal/questionset"
	"github.com/stemsi/quizrunner/internal/repository"
	"github.com/stemsi/quizrunner/internal/router"
	"github.com/stemsi/quizrunner/internal/service"
	"github.com/stemsi/quizrunner/internal/validator"
	"github.com/stemsi/quizrunner/internal/worker"
)

const sweepInterval = time.Minute

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Str("question_source", cfg.QuestionSource).
		Msg("Starting quiz runner")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.JudgmentLog && cfg.RedisURL == "" {
		log.Fatal().Msg("JUDGMENT_LOG needs REDIS_URL for its queue")
	}

	checks := map[string]handler.CheckFunc{}

	// ─── Connect to PostgreSQL (optional) ──────────────────────────────
	var pool *pgxpool.Pool
	if cfg.NeedsPostgres() {
		var err error
		pool, err = database.NewPostgresPool(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer pool.Close()
		checks["postgres"] = pool.Ping
	}

	// ─── Connect to Redis (optional) ───────────────────────────────────
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		var err error
		rdb, err = database.NewRedisClient(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	// ─── Load Question Set ─────────────────────────────────────────────
	var lister questionset.Lister
	if pool != nil {
		lister = repository.NewQuestionRepository(pool)
	}
	questions, err := questionset.NewLoader(cfg.QuestionSource, cfg.QuestionFile, lister, log).Load(ctx)
	if err != nil {
		var ve *questionset.ValidationError
		if errors.As(err, &ve) {
			log.Fatal().
				Str("question_id", ve.QuestionID).
				Int("index", ve.Index).
				Str("reason", ve.Reason).
				Msg("Question set is invalid")
		}
		log.Fatal().Err(err).Msg("Failed to load question set")
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup
	runWorker := func(fn func(context.Context)) {
		workers.Add(1)
		go func() {
			defer workers.Done()
			fn(workerCtx)
		}()
	}

	// ─── Initialize Session Store ─────────────────────────────────────
	var store repository.SessionStore
	if rdb != nil {
		store = repository.NewRedisSessionStore(rdb, cfg.SessionTTL)
		log.Info().Dur("ttl", cfg.SessionTTL).Msg("Sessions stored in Redis")
	} else {
		mem := repository.NewMemorySessionStore(cfg.SessionTTL)
		runWorker(func(ctx context.Context) { mem.StartSweeper(ctx, sweepInterval) })
		store = mem
		log.Info().Dur("ttl", cfg.SessionTTL).Msg("Sessions stored in memory")
	}

	var publisher service.JudgmentPublisher
	if cfg.JudgmentLog {
		publisher = service.NewRedisJudgmentPublisher(rdb)
		judgmentWorker := worker.NewJudgmentWorker(repository.NewJudgmentRepository(pool), rdb, log)
		runWorker(judgmentWorker.Start)
	}

	// ─── Initialize Services & Handlers ────────────────────────────────
	quizService := service.NewQuizService(questions, store, publisher, log)

	handlers := &router.Handlers{
		Quiz:     handler.NewQuizHandler(quizService, log),
		Question: handler.NewQuestionHandler(quizService),
		WS:       handler.NewWSHandler(quizService, log, cfg.AllowedOrigins),
		Health:   handler.NewHealthHandler(checks, log),
	}

	var limiter *middleware.RateLimiter
	if cfg.RateLimitPerMinute > 0 {
		limiter = middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
		runWorker(limiter.StartCleanup)
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(handlers, limiter, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", srv.Addr).Int("questions", len(questions)).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for queues to drain.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
