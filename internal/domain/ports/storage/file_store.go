package storage

import "context"

// FileStore keeps output artifacts associated with a job, keyed by job id.
type FileStore interface {
	// WriteJobFile stores one named artifact for the job.
	WriteJobFile(ctx context.Context, jobID, name string, data []byte) (path string, err error)

	// JobFiles lists artifact paths previously written for the job.
	JobFiles(ctx context.Context, jobID string) ([]string, error)

	// CleanupJobFiles removes every artifact associated with the job.
	CleanupJobFiles(ctx context.Context, jobID string) error
}
