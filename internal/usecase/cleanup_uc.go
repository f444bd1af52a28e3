package usecase

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"rag-document-backend/internal/domain/model"
	"rag-document-backend/internal/domain/ports/repository"
	"rag-document-backend/internal/domain/ports/storage"
	"rag-document-backend/internal/infra/metrics"
)

// CleanupUseCase removes job history past an age threshold together with
// any output files the jobs left behind.
type CleanupUseCase struct {
	jobs  repository.JobRepository
	files storage.FileStore
	tm    repository.TransactionManager
	log   *zerolog.Logger
}

func NewCleanupUseCase(jobs repository.JobRepository, files storage.FileStore, tm repository.TransactionManager, logger *zerolog.Logger) *CleanupUseCase {
	ucLog := logger.With().Str("component", "CleanupUseCase").Logger()
	return &CleanupUseCase{jobs: jobs, files: files, tm: tm, log: &ucLog}
}

// Cleanup deletes every job created before the cutoff and returns the
// number of deleted rows. With dryRun set it only logs the candidates and
// returns their count. File cleanup runs after the delete has committed;
// individual failures are logged and counted but never affect the return
// value, since the rows are already gone.
func (uc *CleanupUseCase) Cleanup(ctx context.Context, before time.Time, dryRun bool) (int, error) {
	before = before.UTC()

	if dryRun {
		candidates, err := uc.jobs.FindBefore(ctx, nil, before)
		if err != nil {
			return 0, err
		}
		for _, j := range candidates {
			uc.log.Info().
				Str("job_id", j.ID).
				Time("created", j.CreatedAt).
				Str("service", j.Service).
				Str("state", jobState(j)).
				Msg("cleanup candidate (dry run)")
		}
		return len(candidates), nil
	}

	var deleted []*model.Job
	err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		var err error
		deleted, err = uc.jobs.DeleteBefore(ctx, tx, before)
		return err
	})
	if err != nil {
		return 0, err
	}
	if len(deleted) == 0 {
		return 0, nil
	}
	metrics.AddRetentionDeleted(len(deleted))

	failures := 0
	for _, j := range deleted {
		if err := uc.files.CleanupJobFiles(ctx, j.ID); err != nil {
			failures++
			metrics.IncRetentionFileCleanupFailure()
			uc.log.Error().Err(err).Str("job_id", j.ID).Msg("cleanup: job file removal failed")
		}
	}
	uc.log.Info().Int("deleted", len(deleted)).Int("file_failures", failures).
		Time("before", before).Msg("retention cleanup finished")
	return len(deleted), nil
}

func jobState(j *model.Job) string {
	if j.CompletedAt != nil {
		return "completed"
	}
	return "pending"
}
