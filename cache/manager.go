package cache

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"
)

// Manager coordinates a Store and a Cache: concurrent Load calls for the
// same key share one in-flight Store.Load via singleflight, and the
// resulting Object is kept in Cache until Delete or eviction frees it,
// grounded on the original's Manager::load/reload.
type Manager[K comparable, V any] struct {
	store Store[K, V]
	cache Cache[K, V]
	group singleflight.Group
}

// NewManager builds a Manager over store and cache.
func NewManager[K comparable, V any](store Store[K, V], cache Cache[K, V]) *Manager[K, V] {
	return &Manager[K, V]{store: store, cache: cache}
}

// Load returns a handle to key's cached value, loading it via the Store on
// a cache miss. The caller must Release the returned Object once done with
// it. Concurrent Load calls for the same key block on one shared Store.Load
// rather than issuing redundant loads.
func (m *Manager[K, V]) Load(ctx context.Context, key K) (Object[V], error) {
	if obj, ok := m.cache.Get(key); ok {
		return obj.Clone(), nil
	}
	return m.Reload(ctx, key)
}

// Reload is Load's miss path: it issues (or joins an in-flight) Store.Load
// for key unless the value is already cached by the time its single-flight
// call runs. An entry already in the cache is returned as is; Reload does
// not bypass or replace it.
func (m *Manager[K, V]) Reload(ctx context.Context, key K) (Object[V], error) {
	groupKey := fmt.Sprint(key)
	v, err, _ := m.group.Do(groupKey, func() (any, error) {
		if obj, ok := m.cache.Get(key); ok {
			return obj, nil
		}
		value, err := m.store.Load(ctx, key)
		if err != nil {
			return nil, err
		}
		obj := newObject(value, func(v V) { m.store.Free(context.Background(), key, v) })
		m.cache.Set(key, obj)
		return obj, nil
	})
	if err != nil {
		var zero Object[V]
		return zero, err
	}
	return v.(Object[V]).Clone(), nil
}

// Delete removes key from the cache. The Cache implementation releases its
// own reference as part of Remove; the Store's Free eventually runs once
// every other outstanding handle is also Released.
func (m *Manager[K, V]) Delete(key K) {
	m.cache.Remove(key)
}
