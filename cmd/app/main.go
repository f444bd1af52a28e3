// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"

	"rag-document-backend/internal/config"
	"rag-document-backend/internal/domain/model"
	"rag-document-backend/internal/domain/ports/adapter"
	"rag-document-backend/internal/domain/ports/service"
	aiAdapters "rag-document-backend/internal/infra/adapters/ai"
	pg "rag-document-backend/internal/infra/db/postgres"
	"rag-document-backend/internal/infra/logging"
	"rag-document-backend/internal/infra/metrics"
	red "rag-document-backend/internal/infra/redis"
	"rag-document-backend/internal/infra/sched"
	"rag-document-backend/internal/infra/services"
	"rag-document-backend/internal/infra/storage"
	"rag-document-backend/internal/infra/web"
	"rag-document-backend/internal/infra/worker"
	"rag-document-backend/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (noop AI adapter fallback)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.PoolSize)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	txManager := pg.NewTxManager(pool)
	go samplePoolStats(ctx, pool)

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)

	// ---- File store ----
	fileStore, err := storage.NewLocalFileStore(cfg.Storage.Dir)
	if err != nil {
		logger.Fatal().Err(err).Msg("file store")
	}

	// ---- Repositories ----
	jobRepo := pg.NewJobRepo(pool)
	collRepo := pg.NewCollectionRepoCacheDecorator(pg.NewCollectionRepo(pool), redisClient, cfg.Redis.TTL)
	docRepo := pg.NewDocumentRepo(pool)

	// ---- AI adapter (OpenAI -> Gemini -> noop in dev) ----
	ai, err := buildAIAdapter(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("ai adapter")
	}

	// ---- Services ----
	registry := service.NewRegistry()
	services.RegisterAll(registry, services.Deps{
		Collections:    collRepo,
		Documents:      docRepo,
		AI:             ai,
		Files:          fileStore,
		Log:            logger,
		ChatModel:      cfg.AI.ChatModel,
		EmbeddingModel: cfg.AI.EmbeddingModel,
	})
	logger.Info().Strs("services", registry.Names()).Msg("services registered")

	// ---- Use cases ----
	defaults := model.JobDefaults{
		MaxDuration: time.Duration(cfg.Jobs.MaxDurationMinutes) * time.Minute,
		MaxAttempts: cfg.Jobs.MaxAttempts,
	}
	jobUC := usecase.NewJobUseCase(jobRepo, registry, defaults, logger)
	collUC := usecase.NewCollectionUseCase(collRepo, docRepo, txManager, logger)
	cleanupUC := usecase.NewCleanupUseCase(jobRepo, fileStore, txManager, logger)

	// ---- Worker pool ----
	workerPool := worker.NewPool(cfg.Jobs.Workers, logger)
	workerPool.Start(ctx)
	defer workerPool.Stop()
	runner := worker.NewJobRunner(workerPool, jobUC, logger)

	// ---- Retention worker ----
	retention := sched.NewRetentionWorker(cfg.Retention.Interval, cfg.Retention.MaxAge, cleanupUC, logger)
	go func() { _ = retention.Run(ctx) }()

	// ---- HTTP server ----
	auth := web.NewAuthManager(cfg.Server.JWTSecret, !cfg.Runtime.Dev, cfg.Server.SessionTTL)
	if auth == nil {
		logger.Warn().Msg("server.jwt_secret not set, session tokens disabled")
	}
	srv := web.NewServer(jobUC, collUC, runner, rateLimiter, fileStore, auth, cfg.Server.APIKey, cfg.Jobs.QueueRatePerMinute, logger)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: srv.Router(),
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
	}
	cancel()
}

func buildAIAdapter(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (adapter.AIServiceAdapter, error) {
	switch {
	case cfg.AI.OpenAIKey != "":
		inner, err := aiAdapters.NewOpenAIAdapter(cfg.AI.OpenAIKey, cfg.AI.ChatModel, cfg.AI.OpenAIBaseURL)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("provider", "openai").Str("model", cfg.AI.ChatModel).Msg("ai adapter ready")
		return aiAdapters.NewLimitedAI(inner, 8), nil
	case cfg.AI.GeminiKey != "":
		inner, err := aiAdapters.NewGeminiAdapter(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiURL, cfg.AI.ChatModel, 0)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("provider", "gemini").Str("model", cfg.AI.ChatModel).Msg("ai adapter ready")
		return aiAdapters.NewLimitedAI(inner, 8), nil
	case cfg.Runtime.Dev:
		logger.Warn().Msg("no AI provider configured; using noop adapter (dev mode)")
		return aiAdapters.NewNoopAIAdapter(), nil
	default:
		return nil, fmt.Errorf("no AI provider configured: set ai.openai_key or ai.gemini_key")
	}
}

func samplePoolStats(ctx context.Context, pool *pgxpool.Pool) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st := pool.Stat()
			metrics.SetDBPoolStats(st.TotalConns(), st.IdleConns(), st.AcquiredConns())
		}
	}
}
