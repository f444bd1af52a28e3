package web

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"

	"rag-document-backend/internal/domain"
	"rag-document-backend/internal/domain/model"
	"rag-document-backend/internal/domain/ports/repository"
)

// In-memory repositories so handler tests exercise the full stack below
// the router without a database.

type memJobRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Job
}

func newMemJobRepo() *memJobRepo {
	return &memJobRepo{store: make(map[string]*model.Job)}
}

func (m *memJobRepo) Create(ctx context.Context, _ repository.Tx, job *model.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *job
	m.store[job.ID] = &cp
	return nil
}

func (m *memJobRepo) FindByID(ctx context.Context, _ repository.Tx, id string) (*model.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (m *memJobRepo) Save(ctx context.Context, _ repository.Tx, job *model.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[job.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *job
	m.store[job.ID] = &cp
	return nil
}

func (m *memJobRepo) Acquire(ctx context.Context, _ repository.Tx, id string, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	if !j.Available(time.Now().UTC()) {
		return domain.ErrJobNotAvailable
	}
	u := until
	j.LockedUntil = &u
	return nil
}

func (m *memJobRepo) List(ctx context.Context, _ repository.Tx, filter model.JobFilter) ([]*model.Job, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var all []*model.Job
	for _, j := range m.store {
		if filter.Service != "" && j.Service != filter.Service {
			continue
		}
		if filter.Completed != nil && (j.CompletedAt != nil) != *filter.Completed {
			continue
		}
		cp := *j
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, k int) bool { return all[i].CreatedAt.After(all[k].CreatedAt) })
	total := len(all)
	start := filter.Offset()
	if start > total {
		start = total
	}
	end := start + filter.PageSize
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (m *memJobRepo) FindBefore(ctx context.Context, _ repository.Tx, cutoff time.Time) ([]*model.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Job
	for _, j := range m.store {
		if j.CreatedAt.Before(cutoff) {
			cp := *j
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memJobRepo) DeleteBefore(ctx context.Context, _ repository.Tx, cutoff time.Time) ([]*model.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Job
	for id, j := range m.store {
		if j.CreatedAt.Before(cutoff) {
			cp := *j
			out = append(out, &cp)
			delete(m.store, id)
		}
	}
	return out, nil
}

type memCollectionRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Collection
}

func newMemCollectionRepo() *memCollectionRepo {
	return &memCollectionRepo{store: make(map[string]*model.Collection)}
}

func (m *memCollectionRepo) Save(ctx context.Context, _ repository.Tx, c *model.Collection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, other := range m.store {
		if id != c.ID && other.Name == c.Name {
			return domain.ErrAlreadyExists
		}
	}
	cp := *c
	m.store[c.ID] = &cp
	return nil
}

func (m *memCollectionRepo) FindByID(ctx context.Context, _ repository.Tx, id string) (*model.Collection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memCollectionRepo) FindByName(ctx context.Context, _ repository.Tx, name string) (*model.Collection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.store {
		if c.Name == name {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memCollectionRepo) ListAll(ctx context.Context, _ repository.Tx) ([]*model.Collection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Collection, 0, len(m.store))
	for _, c := range m.store {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memCollectionRepo) Delete(ctx context.Context, _ repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.store, id)
	return nil
}

type memDocumentRepo struct {
	mu    sync.RWMutex
	store map[string][]*model.Document
}

func newMemDocumentRepo() *memDocumentRepo {
	return &memDocumentRepo{store: make(map[string][]*model.Document)}
}

func (m *memDocumentRepo) SaveBatch(ctx context.Context, _ repository.Tx, docs []*model.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range docs {
		cp := *d
		m.store[d.CollectionID] = append(m.store[d.CollectionID], &cp)
	}
	return nil
}

func (m *memDocumentRepo) FindByID(ctx context.Context, _ repository.Tx, id string) (*model.Document, error) {
	return nil, domain.ErrNotFound
}

func (m *memDocumentRepo) ListByCollection(ctx context.Context, _ repository.Tx, collectionID string, offset, limit int) ([]*model.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.store[collectionID], nil
}

func (m *memDocumentRepo) CountByCollection(ctx context.Context, _ repository.Tx, collectionID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.store[collectionID]), nil
}

func (m *memDocumentRepo) TopKByEmbedding(ctx context.Context, _ repository.Tx, collectionID string, _ []float32, k int) ([]*model.ScoredDocument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	docs := m.store[collectionID]
	if k > len(docs) {
		k = len(docs)
	}
	out := make([]*model.ScoredDocument, 0, k)
	for _, d := range docs[:k] {
		out = append(out, &model.ScoredDocument{Document: *d, Score: 1})
	}
	return out, nil
}

func (m *memDocumentRepo) DeleteByCollection(ctx context.Context, _ repository.Tx, collectionID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.store[collectionID])
	delete(m.store, collectionID)
	return n, nil
}

type mockTxManager struct{}

func (m *mockTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, nil)
}

// memFiles records job artifacts in memory.
type memFiles struct {
	mu    sync.Mutex
	files map[string][]string
}

func newMemFiles() *memFiles { return &memFiles{files: make(map[string][]string)} }

func (m *memFiles) WriteJobFile(_ context.Context, jobID, name string, _ []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[jobID] = append(m.files[jobID], name)
	return jobID + "/" + name, nil
}

func (m *memFiles) JobFiles(_ context.Context, jobID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.files[jobID], nil
}

func (m *memFiles) CleanupJobFiles(_ context.Context, jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, jobID)
	return nil
}
