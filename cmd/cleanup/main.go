// File: cmd/cleanup/main.go
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
	"rag-document-backend/internal/infra/storage"
	"rag-document-backend/internal/usecase"
)

// One-shot retention cleanup. The same logic runs periodically inside the
// app; this binary exists for operators who want a manual or cron-driven
// pass with an explicit cutoff.
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	before := flag.String("before", "", "delete jobs created before this date (YYYY-MM-DD); default is now minus retention.max_age")
	dryRun := flag.Bool("dry-run", false, "log candidates without deleting")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, false)

	cutoff := time.Now().UTC().Add(-cfg.Retention.MaxAge)
	if *before != "" {
		t, err := time.Parse("2006-01-02", *before)
		if err != nil {
			log.Fatalf("invalid -before value %q: %v", *before, err)
		}
		cutoff = t.UTC()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	fileStore, err := storage.NewLocalFileStore(cfg.Storage.Dir)
	if err != nil {
		log.Fatalf("file store: %v", err)
	}

	cleanupUC := usecase.NewCleanupUseCase(pg.NewJobRepo(pool), fileStore, pg.NewTxManager(pool), logger)

	n, err := cleanupUC.Cleanup(ctx, cutoff, *dryRun)
	if err != nil {
		log.Fatalf("cleanup: %v", err)
	}
	if *dryRun {
		fmt.Printf("%d jobs would be deleted (created before %s)\n", n, cutoff.Format(time.RFC3339))
		return
	}
	fmt.Printf("%d jobs deleted (created before %s)\n", n, cutoff.Format(time.RFC3339))
}
