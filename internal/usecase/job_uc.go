package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"rag-document-backend/internal/domain"
	"rag-document-backend/internal/domain/model"
	"rag-document-backend/internal/domain/ports/repository"
	"rag-document-backend/internal/domain/ports/service"
	"rag-document-backend/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// JobUseCase orchestrates the job lifecycle: creation, leased execution,
// and completion. Nothing that happens during a run escapes to the caller;
// every failure mode ends up in the persisted result document.
type JobUseCase struct {
	jobs     repository.JobRepository
	registry *service.Registry
	defaults model.JobDefaults
	log      *zerolog.Logger
}

func NewJobUseCase(jobs repository.JobRepository, registry *service.Registry, defaults model.JobDefaults, logger *zerolog.Logger) *JobUseCase {
	ucLog := logger.With().Str("component", "JobUseCase").Logger()
	return &JobUseCase{
		jobs:     jobs,
		registry: registry,
		defaults: defaults,
		log:      &ucLog,
	}
}

// Create enqueues a job for the named service. Unknown service names are
// accepted here; resolution failures surface as an error result when the
// job runs, so callers polling the record see what went wrong.
func (uc *JobUseCase) Create(ctx context.Context, serviceName string, payload map[string]any) (*model.Job, error) {
	if strings.TrimSpace(serviceName) == "" {
		return nil, domain.ErrInvalidArgument
	}
	job := model.NewJob(serviceName, payload, uc.defaults)
	if err := uc.jobs.Create(ctx, nil, job); err != nil {
		return nil, err
	}
	metrics.IncJobCreated(serviceName)
	uc.log.Info().Str("job_id", job.ID).Str("service", serviceName).Msg("job created")
	return job, nil
}

// Get returns domain.ErrNotFound when no job matches.
func (uc *JobUseCase) Get(ctx context.Context, id string) (*model.Job, error) {
	return uc.jobs.FindByID(ctx, nil, id)
}

// List returns one page of jobs plus pagination metadata.
func (uc *JobUseCase) List(ctx context.Context, filter model.JobFilter) ([]*model.Job, model.Pagination, error) {
	filter.Normalize()
	jobs, count, err := uc.jobs.List(ctx, nil, filter)
	if err != nil {
		return nil, model.Pagination{}, err
	}
	return jobs, model.NewPagination(count, filter.Page, filter.PageSize, len(jobs)), nil
}

// Run executes one attempt of the job. It is fire-and-forget: lookup
// failures are logged and swallowed, and every other outcome (including a
// lost lease race) is recorded through Complete.
func (uc *JobUseCase) Run(ctx context.Context, id string) {
	job, err := uc.jobs.FindByID(ctx, nil, id)
	if err != nil {
		uc.log.Warn().Err(err).Str("job_id", id).Msg("run: job lookup failed")
		return
	}

	until := time.Now().UTC().Add(job.LeaseDuration(uc.defaults.MaxDuration))
	if err := uc.jobs.Acquire(ctx, nil, job.ID, until); err != nil {
		if errors.Is(err, domain.ErrJobNotAvailable) {
			metrics.IncLeaseAcquisition("unavailable")
			uc.Complete(ctx, job.ID, errorResult(err))
			return
		}
		metrics.IncLeaseAcquisition("error")
		uc.log.Error().Err(err).Str("job_id", job.ID).Msg("run: lease acquisition failed")
		uc.Complete(ctx, job.ID, errorResult(err))
		return
	}
	metrics.IncLeaseAcquisition("acquired")
	job.LockedUntil = &until

	var result map[string]any
	defer func() { uc.Complete(ctx, job.ID, result) }()

	svc, err := uc.registry.Resolve(job.Service)
	if err != nil {
		// Resolution failure does not count against the attempt budget.
		uc.log.Error().Err(err).Str("job_id", job.ID).Str("service", job.Service).Msg("run: service resolution failed")
		result = errorResult(err)
		return
	}

	payload := job.PayloadCopy()
	payload[model.PayloadKeyJobID] = job.ID

	start := time.Now()
	out, err := uc.invoke(ctx, svc, payload)
	if err != nil {
		uc.log.Error().Err(err).Str("job_id", job.ID).Str("service", job.Service).
			Dur("duration", time.Since(start)).Msg("job failed")
		result = errorResult(err)
		return
	}
	uc.log.Info().Str("job_id", job.ID).Str("service", job.Service).
		Dur("duration", time.Since(start)).Msg("job succeeded")
	result = out
}

// invoke shields Run from a panicking service implementation: the panic
// becomes an error result like any other execution failure.
func (uc *JobUseCase) invoke(ctx context.Context, svc service.Service, payload map[string]any) (out map[string]any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return service.Run(ctx, svc, payload)
}

// Complete marks the job terminal with the given result. Late results for
// expired jobs are dropped by policy; completion of an already-completed
// job is a no-op. A persistence failure costs one attempt and is retried
// exactly once.
func (uc *JobUseCase) Complete(ctx context.Context, id string, result map[string]any) {
	job, err := uc.jobs.FindByID(ctx, nil, id)
	if err != nil {
		uc.log.Warn().Err(err).Str("job_id", id).Msg("complete: job lookup failed")
		return
	}
	now := time.Now().UTC()
	if job.CompletedAt != nil {
		uc.log.Debug().Str("job_id", id).Msg("complete: job already terminal")
		return
	}
	if job.Expired(now) {
		metrics.IncJobProcessed("dropped")
		uc.log.Warn().Str("job_id", id).Time("expired", *job.ExpiresAt).
			Msg("complete: job expired, dropping late result")
		return
	}

	job.CompletedAt = &now
	job.Result = result
	if err := uc.jobs.Save(ctx, nil, job); err != nil {
		uc.log.Error().Err(err).Str("job_id", id).Msg("complete: save failed, retrying with error result")
		job.Result = errorResult(err)
		job.DecrementAttempts()
		if err2 := uc.jobs.Save(ctx, nil, job); err2 != nil {
			// The job stays non-terminal here; the counter is the alert.
			metrics.IncJobStuck()
			uc.log.Error().Err(err2).Str("job_id", id).Msg("complete: retry save failed, giving up")
			return
		}
		metrics.IncJobProcessed("failed")
		return
	}
	if _, failed := result["error"]; failed {
		metrics.IncJobProcessed("failed")
	} else {
		metrics.IncJobProcessed("completed")
	}
}

func errorResult(err error) map[string]any {
	return map[string]any{"error": err.Error()}
}
