package repository

import (
	"context"
	"time"

	"rag-document-backend/internal/domain/model"
)

// JobRepository is the durable store for job records.
type JobRepository interface {
	// Create inserts a new job row.
	Create(ctx context.Context, qx Tx, job *model.Job) error

	// FindByID returns domain.ErrNotFound when no row matches.
	FindByID(ctx context.Context, qx Tx, id string) (*model.Job, error)

	// Save persists in-place mutations (result, completed_at, locked_until,
	// max_attempts).
	Save(ctx context.Context, qx Tx, job *model.Job) error

	// Acquire takes the execution lease in a single conditional UPDATE
	// guarded by the availability predicate. It returns
	// domain.ErrJobNotAvailable when the job is completed, expired, still
	// under a live lease, or out of attempts, and never mutates the row in
	// that case.
	Acquire(ctx context.Context, qx Tx, id string, until time.Time) error

	// List returns one page of jobs sorted by creation time descending,
	// plus the total count matching the filter.
	List(ctx context.Context, qx Tx, filter model.JobFilter) ([]*model.Job, int, error)

	// FindBefore returns every job created strictly before the cutoff,
	// oldest first, without deleting anything.
	FindBefore(ctx context.Context, qx Tx, cutoff time.Time) ([]*model.Job, error)

	// DeleteBefore removes every job created strictly before the cutoff and
	// returns the deleted records.
	DeleteBefore(ctx context.Context, qx Tx, cutoff time.Time) ([]*model.Job, error)
}
