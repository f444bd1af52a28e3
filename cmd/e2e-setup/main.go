package main

import (
	"context"
	"flag"
	"log"

	"rag-document-backend/internal/config"
	"rag-document-backend/internal/infra/db/postgres"
	"rag-document-backend/internal/infra/logging"
	"rag-document-backend/internal/infra/redis"
	"rag-document-backend/internal/usecase"
)

// This script is for setting up a clean, predictable database state
// for manual end-to-end testing.
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}
	logger := logging.New(cfg.Log, true)

	// --- Connect to Postgres ---
	pool, err := postgres.NewPgxPool(ctx, cfg.Database.URL, 5)
	if err != nil {
		log.Fatalf("postgres connection failed: %v", err)
	}
	defer pool.Close()

	// --- Connect to Redis ---
	redisClient, err := redis.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis connection failed: %v", err)
	}
	defer redisClient.Close()

	log.Println("--- Starting E2E Environment Setup ---")

	// 1. Clean the Redis cache to remove any stale data.
	log.Println("[1/3] Wiping Redis cache...")
	if err := redisClient.FlushDB(ctx); err != nil {
		log.Fatalf("failed to flush redis: %v", err)
	}

	// 2. Clean the database completely.
	log.Println("[2/3] Wiping all existing database data...")
	_, err = pool.Exec(ctx, `TRUNCATE jobs, documents, collections RESTART IDENTITY CASCADE;`)
	if err != nil {
		log.Fatalf("failed to truncate tables: %v", err)
	}

	// 3. Seed a collection so search/chat flows work out of the box.
	log.Println("[3/3] Seeding test collection...")
	collUC := usecase.NewCollectionUseCase(
		postgres.NewCollectionRepo(pool),
		postgres.NewDocumentRepo(pool),
		postgres.NewTxManager(pool),
		logger,
	)
	coll, err := collUC.Create(ctx, "e2e", "end-to-end test collection", cfg.AI.EmbeddingModel)
	if err != nil {
		log.Fatalf("failed to create test collection: %v", err)
	}
	log.Printf("test collection ready: %s", coll.ID)

	log.Println("--- E2E Environment Setup Complete ---")
}
