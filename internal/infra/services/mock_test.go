package services

import (
	"context"
	"sync"

	"rag-document-backend/internal/domain"
	"rag-document-backend/internal/domain/model"
	"rag-document-backend/internal/domain/ports/repository"
)

type memCollections struct {
	mu    sync.RWMutex
	store map[string]*model.Collection
}

func newMemCollections(cs ...*model.Collection) *memCollections {
	m := &memCollections{store: make(map[string]*model.Collection)}
	for _, c := range cs {
		m.store[c.ID] = c
	}
	return m
}

func (m *memCollections) Save(ctx context.Context, _ repository.Tx, c *model.Collection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.store[c.ID] = &cp
	return nil
}

func (m *memCollections) FindByID(ctx context.Context, _ repository.Tx, id string) (*model.Collection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memCollections) FindByName(ctx context.Context, _ repository.Tx, name string) (*model.Collection, error) {
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

func (m *memCollections) ListAll(ctx context.Context, _ repository.Tx) ([]*model.Collection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Collection, 0, len(m.store))
	for _, c := range m.store {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memCollections) Delete(ctx context.Context, _ repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, id)
	return nil
}

type memDocuments struct {
	mu    sync.RWMutex
	store map[string][]*model.Document
}

func newMemDocuments() *memDocuments {
	return &memDocuments{store: make(map[string][]*model.Document)}
}

func (m *memDocuments) SaveBatch(ctx context.Context, _ repository.Tx, docs []*model.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range docs {
		cp := *d
		m.store[d.CollectionID] = append(m.store[d.CollectionID], &cp)
	}
	return nil
}

func (m *memDocuments) FindByID(ctx context.Context, _ repository.Tx, id string) (*model.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, docs := range m.store {
		for _, d := range docs {
			if d.ID == id {
				cp := *d
				return &cp, nil
			}
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memDocuments) ListByCollection(ctx context.Context, _ repository.Tx, collectionID string, offset, limit int) ([]*model.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	docs := m.store[collectionID]
	if offset > len(docs) {
		offset = len(docs)
	}
	end := offset + limit
	if end > len(docs) {
		end = len(docs)
	}
	return docs[offset:end], nil
}

func (m *memDocuments) CountByCollection(ctx context.Context, _ repository.Tx, collectionID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.store[collectionID]), nil
}

func (m *memDocuments) TopKByEmbedding(ctx context.Context, _ repository.Tx, collectionID string, _ []float32, k int) ([]*model.ScoredDocument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	docs := m.store[collectionID]
	if k > len(docs) {
		k = len(docs)
	}
	out := make([]*model.ScoredDocument, 0, k)
	for i, d := range docs[:k] {
		out = append(out, &model.ScoredDocument{Document: *d, Score: 1 - float64(i)*0.1})
	}
	return out, nil
}

func (m *memDocuments) DeleteByCollection(ctx context.Context, _ repository.Tx, collectionID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.store[collectionID])
	delete(m.store, collectionID)
	return n, nil
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
