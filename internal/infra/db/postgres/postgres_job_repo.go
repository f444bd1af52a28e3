package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"rag-document-backend/internal/domain"
	"rag-document-backend/internal/domain/model"
	"rag-document-backend/internal/domain/ports/repository"
)

var _ repository.JobRepository = (*jobRepo)(nil)

type jobRepo struct {
	pool *pgxpool.Pool
}

func NewJobRepo(pool *pgxpool.Pool) *jobRepo {
	return &jobRepo{pool: pool}
}

const jobColumns = `id, service, payload, created_at, expires_at, locked_until, max_attempts, completed_at, result`

// availableWhere is the availability invariant expressed in SQL. It guards
// the lease update so acquisition is a single atomic statement.
const availableWhere = `completed_at IS NULL
  AND (expires_at IS NULL OR expires_at > $2)
  AND (locked_until IS NULL OR locked_until <= $2)
  AND max_attempts > 0`

func (r *jobRepo) Create(ctx context.Context, qx repository.Tx, job *model.Job) error {
	payload, err := marshalPayload(job.Payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	result, err := marshalDoc(job.Result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	const q = `
INSERT INTO jobs (` + jobColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);`
	_, err = execSQL(ctx, r.pool, qx, q,
		job.ID, job.Service, payload, job.CreatedAt, job.ExpiresAt,
		job.LockedUntil, job.MaxAttempts, job.CompletedAt, result)
	return err
}

func (r *jobRepo) FindByID(ctx context.Context, qx repository.Tx, id string) (*model.Job, error) {
	const q = `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1;`
	row, err := pickRow(ctx, r.pool, qx, q, id)
	if err != nil {
		return nil, err
	}
	return scanJob(row)
}

func (r *jobRepo) Save(ctx context.Context, qx repository.Tx, job *model.Job) error {
	payload, err := marshalPayload(job.Payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	result, err := marshalDoc(job.Result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	const q = `
UPDATE jobs SET
  payload = $2,
  expires_at = $3,
  locked_until = $4,
  max_attempts = $5,
  completed_at = $6,
  result = $7
WHERE id = $1;`
	tag, err := execSQL(ctx, r.pool, qx, q,
		job.ID, payload, job.ExpiresAt, job.LockedUntil,
		job.MaxAttempts, job.CompletedAt, result)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Acquire takes the lease with one conditional UPDATE. Zero rows affected
// means the job was completed, expired, locked, or out of attempts at the
// moment the statement ran; the caller cannot tell which, and does not
// need to.
func (r *jobRepo) Acquire(ctx context.Context, qx repository.Tx, id string, until time.Time) error {
	const q = `
UPDATE jobs SET locked_until = $3
WHERE id = $1 AND ` + availableWhere + `;`
	tag, err := execSQL(ctx, r.pool, qx, q, id, time.Now().UTC(), until)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a missing row from an unavailable one.
		if _, ferr := r.FindByID(ctx, qx, id); ferr != nil {
			return ferr
		}
		return domain.ErrJobNotAvailable
	}
	return nil
}

func (r *jobRepo) List(ctx context.Context, qx repository.Tx, filter model.JobFilter) ([]*model.Job, int, error) {
	filter.Normalize()

	where, args := buildJobWhere(filter)

	var count int
	countQ := `SELECT COUNT(*) FROM jobs` + where + `;`
	row, err := pickRow(ctx, r.pool, qx, countQ, args...)
	if err != nil {
		return nil, 0, err
	}
	if err := row.Scan(&count); err != nil {
		return nil, 0, err
	}

	pageQ := fmt.Sprintf(`SELECT `+jobColumns+` FROM jobs`+where+`
ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d;`, len(args)+1, len(args)+2)
	args = append(args, filter.PageSize, filter.Offset())

	rows, err := pickRows(ctx, r.pool, qx, pageQ, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var jobs []*model.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, 0, err
		}
		jobs = append(jobs, j)
	}
	return jobs, count, rows.Err()
}

func (r *jobRepo) FindBefore(ctx context.Context, qx repository.Tx, cutoff time.Time) ([]*model.Job, error) {
	const q = `SELECT ` + jobColumns + ` FROM jobs WHERE created_at < $1 ORDER BY created_at;`
	rows, err := pickRows(ctx, r.pool, qx, q, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*model.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (r *jobRepo) DeleteBefore(ctx context.Context, qx repository.Tx, cutoff time.Time) ([]*model.Job, error) {
	jobs, err := r.FindBefore(ctx, qx, cutoff)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, nil
	}

	const deleteQ = `DELETE FROM jobs WHERE created_at < $1;`
	if _, err := execSQL(ctx, r.pool, qx, deleteQ, cutoff); err != nil {
		return nil, err
	}
	return jobs, nil
}

func buildJobWhere(filter model.JobFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	arg := func(v interface{}) int {
		args = append(args, v)
		return len(args)
	}
	if filter.MinDate != nil {
		conds = append(conds, fmt.Sprintf("created_at >= $%d", arg(*filter.MinDate)))
	}
	if filter.MaxDate != nil {
		conds = append(conds, fmt.Sprintf("created_at <= $%d", arg(*filter.MaxDate)))
	}
	if filter.Service != "" {
		conds = append(conds, fmt.Sprintf("service = $%d", arg(filter.Service)))
	}
	if filter.Completed != nil {
		if *filter.Completed {
			conds = append(conds, "completed_at IS NOT NULL")
		} else {
			conds = append(conds, "completed_at IS NULL")
		}
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanJob(row pgx.Row) (*model.Job, error) {
	var (
		j       model.Job
		payload []byte
		result  []byte
	)
	err := row.Scan(
		&j.ID, &j.Service, &payload, &j.CreatedAt, &j.ExpiresAt,
		&j.LockedUntil, &j.MaxAttempts, &j.CompletedAt, &result,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &j.Payload); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
	}
	if len(result) > 0 {
		if err := json.Unmarshal(result, &j.Result); err != nil {
			return nil, fmt.Errorf("decode result: %w", err)
		}
	}
	return &j, nil
}

// marshalDoc keeps NULL for absent documents instead of the string "null".
func marshalDoc(doc map[string]any) ([]byte, error) {
	if doc == nil {
		return nil, nil
	}
	return json.Marshal(doc)
}

// marshalPayload encodes a missing payload as an empty object; the payload
// column is NOT NULL.
func marshalPayload(doc map[string]any) ([]byte, error) {
	if doc == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(doc)
}
