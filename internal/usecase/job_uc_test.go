package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"rag-document-backend/internal/domain"
	"rag-document-backend/internal/domain/model"
	"rag-document-backend/internal/domain/ports/service"
)

func newLogger() *zerolog.Logger { l := zerolog.Nop(); return &l }

// fakeService lets each test script the validate/execute behavior.
type fakeService struct {
	validate func(payload map[string]any) error
	execute  func(ctx context.Context, payload map[string]any) (map[string]any, error)
}

func (f *fakeService) Validate(payload map[string]any) error {
	if f.validate == nil {
		return nil
	}
	return f.validate(payload)
}

func (f *fakeService) Execute(ctx context.Context, payload map[string]any) (map[string]any, error) {
	return f.execute(ctx, payload)
}

func newRegistryWith(name string, svc service.Service) *service.Registry {
	reg := service.NewRegistry()
	reg.Register(name, func() (service.Service, error) { return svc, nil })
	return reg
}

func testJobDefaults() model.JobDefaults {
	return model.JobDefaults{MaxDuration: time.Hour, MaxAttempts: 1}
}

func TestJobUseCase_Create(t *testing.T) {
	repo := newMemJobRepo()
	uc := NewJobUseCase(repo, service.NewRegistry(), testJobDefaults(), newLogger())
	ctx := context.Background()

	t.Run("empty service name is rejected", func(t *testing.T) {
		if _, err := uc.Create(ctx, "  ", nil); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("unknown service names are accepted", func(t *testing.T) {
		job, err := uc.Create(ctx, "no.such.service", map[string]any{"k": "v"})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		stored, err := repo.FindByID(ctx, nil, job.ID)
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if stored.Service != "no.such.service" {
			t.Errorf("service = %q", stored.Service)
		}
		if stored.CompletedAt != nil {
			t.Error("new job must not be completed")
		}
	})
}

func TestJobUseCase_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("successful run persists the service result", func(t *testing.T) {
		repo := newMemJobRepo()
		svc := &fakeService{
			execute: func(_ context.Context, payload map[string]any) (map[string]any, error) {
				if payload[model.PayloadKeyJobID] == nil {
					t.Error("expected job id injected into payload")
				}
				return map[string]any{"answer": 42}, nil
			},
		}
		uc := NewJobUseCase(repo, newRegistryWith("echo", svc), testJobDefaults(), newLogger())

		job, _ := uc.Create(ctx, "echo", map[string]any{"q": "life"})
		uc.Run(ctx, job.ID)

		done, _ := repo.FindByID(ctx, nil, job.ID)
		if done.CompletedAt == nil {
			t.Fatal("expected job to be completed")
		}
		if done.Result["answer"] != 42 {
			t.Errorf("result = %v", done.Result)
		}
		if done.LockedUntil == nil {
			t.Error("expected lease to have been taken")
		}
	})

	t.Run("service error becomes an error result", func(t *testing.T) {
		repo := newMemJobRepo()
		svc := &fakeService{
			execute: func(context.Context, map[string]any) (map[string]any, error) {
				return nil, errors.New("upstream timeout")
			},
		}
		uc := NewJobUseCase(repo, newRegistryWith("flaky", svc), testJobDefaults(), newLogger())

		job, _ := uc.Create(ctx, "flaky", nil)
		uc.Run(ctx, job.ID)

		done, _ := repo.FindByID(ctx, nil, job.ID)
		if done.CompletedAt == nil {
			t.Fatal("expected job to be completed")
		}
		if done.Result["error"] != "upstream timeout" {
			t.Errorf("result = %v", done.Result)
		}
	})

	t.Run("panicking service becomes an error result", func(t *testing.T) {
		repo := newMemJobRepo()
		svc := &fakeService{
			execute: func(context.Context, map[string]any) (map[string]any, error) {
				panic("index out of range")
			},
		}
		uc := NewJobUseCase(repo, newRegistryWith("buggy", svc), testJobDefaults(), newLogger())

		job, _ := uc.Create(ctx, "buggy", nil)
		uc.Run(ctx, job.ID) // must not propagate the panic

		done, _ := repo.FindByID(ctx, nil, job.ID)
		if done.CompletedAt == nil {
			t.Fatal("expected job to be completed")
		}
		if done.Result["error"] != "panic: index out of range" {
			t.Errorf("result = %v", done.Result)
		}
	})

	t.Run("validation failure marks the payload invalid", func(t *testing.T) {
		repo := newMemJobRepo()
		svc := &fakeService{
			validate: func(map[string]any) error { return errors.New("missing field") },
			execute: func(context.Context, map[string]any) (map[string]any, error) {
				t.Error("execute must not run after failed validation")
				return nil, nil
			},
		}
		uc := NewJobUseCase(repo, newRegistryWith("strict", svc), testJobDefaults(), newLogger())

		job, _ := uc.Create(ctx, "strict", nil)
		uc.Run(ctx, job.ID)

		done, _ := repo.FindByID(ctx, nil, job.ID)
		if done.CompletedAt == nil {
			t.Fatal("expected job to be completed")
		}
		msg, _ := done.Result["error"].(string)
		if msg == "" {
			t.Fatalf("expected error result, got %v", done.Result)
		}
	})

	t.Run("unresolvable service completes with error result", func(t *testing.T) {
		repo := newMemJobRepo()
		uc := NewJobUseCase(repo, service.NewRegistry(), testJobDefaults(), newLogger())

		job, _ := uc.Create(ctx, "ghost", nil)
		uc.Run(ctx, job.ID)

		done, _ := repo.FindByID(ctx, nil, job.ID)
		if done.CompletedAt == nil {
			t.Fatal("expected job to be completed")
		}
		if done.Result["error"] != `service "ghost" not found` {
			t.Errorf("result = %v", done.Result)
		}
		if done.MaxAttempts != 1 {
			t.Errorf("resolution failure must not cost an attempt, got %d", done.MaxAttempts)
		}
	})

	t.Run("locked job loses the lease race", func(t *testing.T) {
		repo := newMemJobRepo()
		ran := false
		svc := &fakeService{
			execute: func(context.Context, map[string]any) (map[string]any, error) {
				ran = true
				return map[string]any{}, nil
			},
		}
		uc := NewJobUseCase(repo, newRegistryWith("once", svc), testJobDefaults(), newLogger())

		job, _ := uc.Create(ctx, "once", nil)

		// Simulate a concurrent worker holding the lease.
		until := time.Now().UTC().Add(time.Hour)
		if err := repo.Acquire(ctx, nil, job.ID, until); err != nil {
			t.Fatalf("pre-acquire: %v", err)
		}

		uc.Run(ctx, job.ID)

		if ran {
			t.Error("service must not run without the lease")
		}
		done, _ := repo.FindByID(ctx, nil, job.ID)
		if done.CompletedAt == nil {
			t.Fatal("losing the race still completes the job with an error result")
		}
		if _, ok := done.Result["error"]; !ok {
			t.Errorf("expected error result, got %v", done.Result)
		}
	})

	t.Run("missing job is a silent no-op", func(t *testing.T) {
		repo := newMemJobRepo()
		uc := NewJobUseCase(repo, service.NewRegistry(), testJobDefaults(), newLogger())
		uc.Run(ctx, "does-not-exist") // must not panic
	})
}

func TestJobUseCase_Complete(t *testing.T) {
	ctx := context.Background()

	t.Run("idempotent on terminal jobs", func(t *testing.T) {
		repo := newMemJobRepo()
		uc := NewJobUseCase(repo, service.NewRegistry(), testJobDefaults(), newLogger())

		job, _ := uc.Create(ctx, "svc", nil)
		uc.Complete(ctx, job.ID, map[string]any{"first": true})
		uc.Complete(ctx, job.ID, map[string]any{"second": true})

		done, _ := repo.FindByID(ctx, nil, job.ID)
		if done.Result["first"] != true {
			t.Errorf("first result was overwritten: %v", done.Result)
		}
		if _, ok := done.Result["second"]; ok {
			t.Error("second completion must be a no-op")
		}
	})

	t.Run("late results for expired jobs are dropped", func(t *testing.T) {
		repo := newMemJobRepo()
		uc := NewJobUseCase(repo, service.NewRegistry(), testJobDefaults(), newLogger())

		job, _ := uc.Create(ctx, "svc", nil)
		past := time.Now().UTC().Add(-time.Minute)
		stored, _ := repo.FindByID(ctx, nil, job.ID)
		stored.ExpiresAt = &past
		if err := repo.Save(ctx, nil, stored); err != nil {
			t.Fatalf("save: %v", err)
		}

		uc.Complete(ctx, job.ID, map[string]any{"late": true})

		after, _ := repo.FindByID(ctx, nil, job.ID)
		if after.CompletedAt != nil {
			t.Error("expired job must not be marked completed")
		}
		if after.Result != nil {
			t.Errorf("late result must be dropped, got %v", after.Result)
		}
	})

	t.Run("save failure costs an attempt and retries once", func(t *testing.T) {
		repo := newMemJobRepo()
		uc := NewJobUseCase(repo, service.NewRegistry(), testJobDefaults(), newLogger())

		job, _ := uc.Create(ctx, "svc", nil)
		repo.failSaves = 1
		repo.saveErr = errors.New("connection reset")

		uc.Complete(ctx, job.ID, map[string]any{"ok": true})

		done, _ := repo.FindByID(ctx, nil, job.ID)
		if done.CompletedAt == nil {
			t.Fatal("retry save should have landed")
		}
		if done.Result["error"] != "connection reset" {
			t.Errorf("result = %v", done.Result)
		}
		if done.MaxAttempts != 0 {
			t.Errorf("expected attempt budget spent, got %d", done.MaxAttempts)
		}
	})

	t.Run("second save failure leaves the job non-terminal", func(t *testing.T) {
		repo := newMemJobRepo()
		uc := NewJobUseCase(repo, service.NewRegistry(), testJobDefaults(), newLogger())

		job, _ := uc.Create(ctx, "svc", nil)
		repo.failSaves = 2
		repo.saveErr = errors.New("disk full")

		uc.Complete(ctx, job.ID, map[string]any{"ok": true})

		done, _ := repo.FindByID(ctx, nil, job.ID)
		if done.CompletedAt != nil {
			t.Error("job must stay non-terminal after both saves fail")
		}
	})
}

func TestJobUseCase_List(t *testing.T) {
	ctx := context.Background()
	repo := newMemJobRepo()
	uc := NewJobUseCase(repo, service.NewRegistry(), testJobDefaults(), newLogger())

	for i := 0; i < 7; i++ {
		if _, err := uc.Create(ctx, "collection.ingest", nil); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	for i := 0; i < 3; i++ {
		if _, err := uc.Create(ctx, "collection.search", nil); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	t.Run("filters by service", func(t *testing.T) {
		jobs, p, err := uc.List(ctx, model.JobFilter{Service: "collection.search"})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(jobs) != 3 || p.Count != 3 {
			t.Errorf("got %d jobs, count %d", len(jobs), p.Count)
		}
	})

	t.Run("paginates with ceil page count", func(t *testing.T) {
		jobs, p, err := uc.List(ctx, model.JobFilter{Page: 2, PageSize: 4})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if p.Count != 10 || p.PageCount != 3 || p.PageSize != 4 {
			t.Errorf("pagination = %+v", p)
		}
		if len(jobs) != 4 || p.PageItems != 4 {
			t.Errorf("expected 4 items on page 2, got %d (meta %d)", len(jobs), p.PageItems)
		}
	})

	t.Run("completed filter is tri-state", func(t *testing.T) {
		completed := true
		jobs, _, err := uc.List(ctx, model.JobFilter{Completed: &completed})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(jobs) != 0 {
			t.Errorf("no jobs are completed yet, got %d", len(jobs))
		}
	})
}
