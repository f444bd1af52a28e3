//go:build !integration

package postgres

import (
	"context"
	"time"

	"rag-document-backend/internal/domain/model"
	"rag-document-backend/internal/domain/ports/repository"
	red "rag-document-backend/internal/infra/redis"
)

// --- Mocks for Cache Decorator Tests ---

// mockInnerCollectionRepo mocks the database repository that the decorator wraps.
type mockInnerCollectionRepo struct {
	SaveFunc       func(ctx context.Context, tx repository.Tx, c *model.Collection) error
	DeleteFunc     func(ctx context.Context, tx repository.Tx, id string) error
	FindByIDFunc   func(ctx context.Context, tx repository.Tx, id string) (*model.Collection, error)
	FindByNameFunc func(ctx context.Context, tx repository.Tx, name string) (*model.Collection, error)
	ListAllFunc    func(ctx context.Context, tx repository.Tx) ([]*model.Collection, error)
}

func (m *mockInnerCollectionRepo) Save(ctx context.Context, tx repository.Tx, c *model.Collection) error {
	return m.SaveFunc(ctx, tx, c)
}
func (m *mockInnerCollectionRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	return m.DeleteFunc(ctx, tx, id)
}
func (m *mockInnerCollectionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Collection, error) {
	return m.FindByIDFunc(ctx, tx, id)
}
func (m *mockInnerCollectionRepo) FindByName(ctx context.Context, tx repository.Tx, name string) (*model.Collection, error) {
	return m.FindByNameFunc(ctx, tx, name)
}
func (m *mockInnerCollectionRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Collection, error) {
	return m.ListAllFunc(ctx, tx)
}

// mockRedisClient mocks our Redis client wrapper.
type mockRedisClient struct {
	GetFunc    func(ctx context.Context, key string) (string, error)
	SetFunc    func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc    func(ctx context.Context, keys ...string) error
	PingFunc   func(ctx context.Context) error
	IncrFunc   func(ctx context.Context, key string) (int64, error)
	ExpireFunc func(ctx context.Context, key string, expiration time.Duration) error
	CloseFunc  func() error
}

var _ red.RedisClient = &mockRedisClient{}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	return m.DelFunc(ctx, keys...)
}
func (m *mockRedisClient) Ping(ctx context.Context) error { return m.PingFunc(ctx) }
func (m *mockRedisClient) Incr(ctx context.Context, key string) (int64, error) {
	return m.IncrFunc(ctx, key)
}
func (m *mockRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return m.ExpireFunc(ctx, key, expiration)
}
func (m *mockRedisClient) FlushDB(ctx context.Context) error { return nil }
func (m *mockRedisClient) Close() error                      { return m.CloseFunc() }
