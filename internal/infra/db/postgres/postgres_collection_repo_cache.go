package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"rag-document-backend/internal/domain/model"
	"rag-document-backend/internal/domain/ports/repository"
	"rag-document-backend/internal/infra/metrics"
	red "rag-document-backend/internal/infra/redis"
)

var _ repository.CollectionRepository = (*collectionRepoCacheDecorator)(nil)

// collectionRepoCacheDecorator caches collection reads in Redis. Collection
// metadata is read on every ingest/search job but changes rarely.
type collectionRepoCacheDecorator struct {
	inner repository.CollectionRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewCollectionRepoCacheDecorator(inner repository.CollectionRepository, cache red.RedisClient, ttl time.Duration) repository.CollectionRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &collectionRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl}
}

func (d *collectionRepoCacheDecorator) FindByID(ctx context.Context, qx repository.Tx, id string) (*model.Collection, error) {
	key := fmt.Sprintf("collection:%s", id)
	if val, err := d.cache.Get(ctx, key); err == nil {
		var c model.Collection
		if json.Unmarshal([]byte(val), &c) == nil {
			metrics.IncCacheRequest("collection", "hit")
			return &c, nil
		}
	}

	metrics.IncCacheRequest("collection", "miss")
	c, err := d.inner.FindByID(ctx, qx, id)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(c); err == nil {
		_ = d.cache.Set(ctx, key, b, d.ttl)
	}
	return c, nil
}

func (d *collectionRepoCacheDecorator) FindByName(ctx context.Context, qx repository.Tx, name string) (*model.Collection, error) {
	// Name lookups are rare; go straight to the store.
	return d.inner.FindByName(ctx, qx, name)
}

func (d *collectionRepoCacheDecorator) ListAll(ctx context.Context, qx repository.Tx) ([]*model.Collection, error) {
	const key = "collections:all"
	if val, err := d.cache.Get(ctx, key); err == nil {
		var cs []*model.Collection
		if json.Unmarshal([]byte(val), &cs) == nil {
			metrics.IncCacheRequest("collection_list", "hit")
			return cs, nil
		}
	}

	metrics.IncCacheRequest("collection_list", "miss")
	cs, err := d.inner.ListAll(ctx, qx)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(cs); err == nil {
		_ = d.cache.Set(ctx, key, b, d.ttl)
	}
	return cs, nil
}

// Writes invalidate both the point entry and the list entry.
func (d *collectionRepoCacheDecorator) Save(ctx context.Context, qx repository.Tx, c *model.Collection) error {
	_ = d.cache.Del(ctx, fmt.Sprintf("collection:%s", c.ID), "collections:all")
	return d.inner.Save(ctx, qx, c)
}

func (d *collectionRepoCacheDecorator) Delete(ctx context.Context, qx repository.Tx, id string) error {
	_ = d.cache.Del(ctx, fmt.Sprintf("collection:%s", id), "collections:all")
	return d.inner.Delete(ctx, qx, id)
}
