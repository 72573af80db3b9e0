package cache_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/udovin/solve-server/cache"
)

type countingStore struct {
	loads   atomic.Int32
	frees   atomic.Int32
	release chan struct{}
}

func newCountingStore() *countingStore {
	return &countingStore{release: make(chan struct{})}
}

func (s *countingStore) Load(ctx context.Context, key string) (string, error) {
	s.loads.Add(1)
	<-s.release
	return "value:" + key, nil
}

func (s *countingStore) Free(ctx context.Context, key string, value string) {
	s.frees.Add(1)
}

// TestManagerLoadSingleFlight checks that two concurrent Load calls for the
// same key observe the store exactly once, and that the store's Free runs
// exactly once, only after both handles are released and the entry is
// evicted.
func TestManagerLoadSingleFlight(t *testing.T) {
	store := newCountingStore()
	c := cache.NewLRUCache[string, string](8)
	m := cache.NewManager[string, string](store, c)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]cache.Object[string], 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			obj, err := m.Load(ctx, "k")
			if err != nil {
				t.Error(err)
				return
			}
			results[i] = obj
		}(i)
	}

	// Give both goroutines a chance to join the in-flight load before
	// unblocking the store.
	time.Sleep(20 * time.Millisecond)
	close(store.release)
	wg.Wait()

	if n := store.loads.Load(); n != 1 {
		t.Fatalf("expected exactly one store load, got %d", n)
	}
	for _, obj := range results {
		if obj.Value() != "value:k" {
			t.Fatalf("unexpected value: %q", obj.Value())
		}
	}

	results[0].Release()
	if n := store.frees.Load(); n != 0 {
		t.Fatalf("expected no free yet (cache still holds a reference), got %d", n)
	}
	results[1].Release()
	if n := store.frees.Load(); n != 0 {
		t.Fatalf("expected no free yet (cache still holds its own reference), got %d", n)
	}

	m.Delete("k")
	if n := store.frees.Load(); n != 1 {
		t.Fatalf("expected exactly one free after eviction, got %d", n)
	}
}

func TestManagerLoadCacheHitSkipsStore(t *testing.T) {
	store := newCountingStore()
	close(store.release)
	c := cache.NewLRUCache[string, string](8)
	m := cache.NewManager[string, string](store, c)
	ctx := context.Background()

	obj1, err := m.Load(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	obj2, err := m.Load(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	obj1.Release()
	obj2.Release()

	if n := store.loads.Load(); n != 1 {
		t.Fatalf("expected the second Load to hit the cache, got %d store loads", n)
	}
}

func TestLRUCacheEvictionReleases(t *testing.T) {
	store := newCountingStore()
	close(store.release)
	c := cache.NewLRUCache[string, string](1)
	m := cache.NewManager[string, string](store, c)
	ctx := context.Background()

	obj1, err := m.Load(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	obj1.Release()

	if _, err := m.Load(ctx, "b"); err != nil {
		t.Fatal(err)
	}

	if n := store.frees.Load(); n != 1 {
		t.Fatalf("expected capacity eviction of \"a\" to free it, got %d frees", n)
	}
}
