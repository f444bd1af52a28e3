package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	ports "rag-document-backend/internal/domain/ports/storage"
)

var _ ports.FileStore = (*LocalFileStore)(nil)

// LocalFileStore keeps job output artifacts on the local filesystem, one
// directory per job id.
type LocalFileStore struct {
	dir string
}

func NewLocalFileStore(dir string) (*LocalFileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &LocalFileStore{dir: dir}, nil
}

func (s *LocalFileStore) WriteJobFile(_ context.Context, jobID, name string, data []byte) (string, error) {
	if jobID == "" || !validName(name) {
		return "", fmt.Errorf("invalid artifact name %q", name)
	}
	jobDir := filepath.Join(s.dir, jobID)
	if err := os.MkdirAll(jobDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(jobDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func (s *LocalFileStore) JobFiles(_ context.Context, jobID string) ([]string, error) {
	jobDir := filepath.Join(s.dir, jobID)
	entries, err := os.ReadDir(jobDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() {
			out = append(out, filepath.Join(jobDir, e.Name()))
		}
	}
	return out, nil
}

func (s *LocalFileStore) CleanupJobFiles(_ context.Context, jobID string) error {
	if jobID == "" {
		return fmt.Errorf("empty job id")
	}
	return os.RemoveAll(filepath.Join(s.dir, jobID))
}

// validName rejects path traversal in artifact names.
func validName(name string) bool {
	return name != "" && !strings.ContainsAny(name, `/\`) && name != "." && name != ".."
}
