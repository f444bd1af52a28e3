package worker

import (
	"context"

	"github.com/rs/zerolog"

	"rag-document-backend/internal/usecase"
)

// JobRunner bridges the HTTP layer and the pool: handlers enqueue a job id
// and return 202, the pool runs the attempt in the background.
type JobRunner struct {
	pool *Pool
	jobs *usecase.JobUseCase
	log  *zerolog.Logger
}

func NewJobRunner(pool *Pool, jobs *usecase.JobUseCase, logger *zerolog.Logger) *JobRunner {
	runnerLog := logger.With().Str("component", "JobRunner").Logger()
	return &JobRunner{pool: pool, jobs: jobs, log: &runnerLog}
}

// Dispatch schedules a single run attempt for the job. The run itself
// never returns an error; all failures end up in the job's result.
func (r *JobRunner) Dispatch(jobID string) error {
	return r.pool.Submit(func(ctx context.Context) error {
		r.jobs.Run(ctx, jobID)
		return nil
	})
}
