package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"rag-document-backend/internal/config"
	"rag-document-backend/internal/domain/model"
	"rag-document-backend/internal/domain/ports/service"
	aiAdapters "rag-document-backend/internal/infra/adapters/ai"
	pg "rag-document-backend/internal/infra/db/postgres"
	"rag-document-backend/internal/infra/logging"
	"rag-document-backend/internal/infra/services"
	"rag-document-backend/internal/infra/storage"
	"rag-document-backend/internal/infra/worker"
	"rag-document-backend/internal/usecase"
)

// End-to-end walkthrough of the job lifecycle against a real database:
// create a collection, enqueue an ingest job, watch it acquire its lease,
// run and complete, then search over the ingested chunks. Uses the noop AI
// adapter so no provider keys are needed.
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}
	logger := logging.New(cfg.Log, true)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	jobRepo := pg.NewJobRepo(pool)
	collRepo := pg.NewCollectionRepo(pool)
	docRepo := pg.NewDocumentRepo(pool)

	fileStore, err := storage.NewLocalFileStore(cfg.Storage.Dir)
	if err != nil {
		log.Fatalf("file store: %v", err)
	}

	registry := service.NewRegistry()
	services.RegisterAll(registry, services.Deps{
		Collections:    collRepo,
		Documents:      docRepo,
		AI:             aiAdapters.NewNoopAIAdapter(),
		Files:          fileStore,
		Log:            logger,
		ChatModel:      cfg.AI.ChatModel,
		EmbeddingModel: cfg.AI.EmbeddingModel,
	})

	defaults := model.JobDefaults{
		MaxDuration: time.Duration(cfg.Jobs.MaxDurationMinutes) * time.Minute,
		MaxAttempts: cfg.Jobs.MaxAttempts,
	}
	jobUC := usecase.NewJobUseCase(jobRepo, registry, defaults, logger)
	collUC := usecase.NewCollectionUseCase(collRepo, docRepo, pg.NewTxManager(pool), logger)

	workerPool := worker.NewPool(2, logger)
	workerPool.Start(ctx)
	defer workerPool.Stop()
	runner := worker.NewJobRunner(workerPool, jobUC, logger)

	// collection
	name := fmt.Sprintf("demo-%d", time.Now().Unix())
	coll, err := collUC.Create(ctx, name, "job lifecycle demo", cfg.AI.EmbeddingModel)
	if err != nil {
		log.Fatalf("collection create: %v", err)
	}
	fmt.Printf("collection: %s (%s)\n", coll.Name, coll.ID)

	// ingest
	ingest := enqueue(ctx, jobUC, runner, services.NameIngest, map[string]any{
		"collection": coll.ID,
		"documents": []any{
			map[string]any{"title": "greeting", "content": "hello from the demo pipeline"},
			map[string]any{"title": "farewell", "content": "goodbye from the demo pipeline"},
		},
	})
	waitForJob(ctx, jobUC, ingest)

	// search
	search := enqueue(ctx, jobUC, runner, services.NameSearch, map[string]any{
		"collection": coll.ID,
		"query":      "hello",
		"top_k":      2,
	})
	waitForJob(ctx, jobUC, search)

	fmt.Println("demo complete")
}

func enqueue(ctx context.Context, jobUC *usecase.JobUseCase, runner *worker.JobRunner, svc string, payload map[string]any) string {
	job, err := jobUC.Create(ctx, svc, payload)
	if err != nil {
		log.Fatalf("create %s job: %v", svc, err)
	}
	if err := runner.Dispatch(job.ID); err != nil {
		log.Fatalf("dispatch %s job: %v", svc, err)
	}
	fmt.Printf("enqueued %s job %s\n", svc, job.ID)
	return job.ID
}

func waitForJob(ctx context.Context, jobUC *usecase.JobUseCase, id string) {
	for {
		select {
		case <-ctx.Done():
			log.Fatalf("timed out waiting for job %s", id)
		case <-time.After(200 * time.Millisecond):
		}
		job, err := jobUC.Get(ctx, id)
		if err != nil {
			log.Fatalf("get job %s: %v", id, err)
		}
		if job.CompletedAt != nil {
			fmt.Printf("job %s finished: %v\n", id, job.Result)
			return
		}
	}
}
