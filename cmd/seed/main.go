package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"rag-document-backend/internal/config"
	pg "rag-document-backend/internal/infra/db/postgres"
	"rag-document-backend/internal/infra/logging"
	"rag-document-backend/internal/usecase"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.Log, false)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	collRepo := pg.NewCollectionRepo(pool)
	docRepo := pg.NewDocumentRepo(pool)
	collUC := usecase.NewCollectionUseCase(collRepo, docRepo, pg.NewTxManager(pool), logger)

	// If collections already exist, do nothing
	existing, err := collUC.List(ctx)
	if err != nil {
		log.Fatalf("list collections: %v", err)
	}
	if len(existing) > 0 {
		fmt.Printf("%d collections already present. No changes.\n", len(existing))
		for _, c := range existing {
			fmt.Printf("  - %s (id=%s, model=%s)\n", c.Name, c.ID, c.EmbeddingModel)
		}
		return
	}

	seed := []struct {
		Name        string
		Description string
		Model       string
	}{
		{"handbook", "Internal handbook and policies", cfg.AI.EmbeddingModel},
		{"runbooks", "Operational runbooks", cfg.AI.EmbeddingModel},
	}

	for _, s := range seed {
		c, err := collUC.Create(ctx, s.Name, s.Description, s.Model)
		if err != nil {
			log.Fatalf("create collection %q: %v", s.Name, err)
		}
		fmt.Printf("seeded: %s (id=%s, model=%s)\n", c.Name, c.ID, c.EmbeddingModel)
	}

	fmt.Println("Seeding complete.")
}
