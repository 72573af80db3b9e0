package invoker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/udovin/solve-server/store"
	"github.com/udovin/solve-server/task"
)

// Guard wraps one claimed Task with the mutation operations a running
// Handler needs, fencing every write against the exact lease
// (kind/status/expire_time) last observed so a lease lost to a concurrent
// reclaim surfaces as an error instead of silently overwriting another
// worker's progress, grounded on the original invoker's TaskGuard.
type Guard struct {
	mu      sync.Mutex
	current *task.Task
	stored  *task.Task
	store   *task.Store
}

func newGuard(t *task.Task, ts *task.Store) *Guard {
	return &Guard{current: t, stored: t, store: ts}
}

// ID returns the claimed task's id.
func (g *Guard) ID() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current.ID
}

// Kind returns the claimed task's kind.
func (g *Guard) Kind() task.Kind {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current.Kind
}

// Status returns the last status this Guard observed for the task.
func (g *Guard) Status() task.Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current.Status
}

// ParseConfig unmarshals the task's config payload into v.
func (g *Guard) ParseConfig(v any) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current.ParseConfig(v)
}

// State unmarshals the task's current state payload into v.
func (g *Guard) State(v any) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current.ParseState(v)
}

// SetDeferredState updates the in-memory state without writing it to
// storage yet; the next SetStatus call (or lease renewal by the pinger)
// persists it alongside its own write, while a SetState call replaces it
// with its own value.
func (g *Guard) SetDeferredState(v any) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current.SetState(v)
}

// SetStatus persists a new status for the task.
func (g *Guard) SetStatus(ctx context.Context, status task.Status) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	next := *g.current
	next.Status = status
	return g.update(ctx, &next, time.Now().UTC())
}

// SetState marshals v and persists it as the task's state.
func (g *Guard) SetState(ctx context.Context, v any) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	next := *g.current
	if err := next.SetState(v); err != nil {
		return err
	}
	return g.update(ctx, &next, time.Now().UTC())
}

// ping extends the task's lease by d, used by the pinger goroutine while a
// handler is running.
func (g *Guard) ping(ctx context.Context, d time.Duration) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := time.Now().UTC()
	expire := now.Add(d)
	next := *g.current
	next.ExpireTime = &expire
	return g.update(ctx, &next, now)
}

// isExpiredAt reports whether the lease this Guard last persisted ends at
// or before now.
func (g *Guard) isExpiredAt(now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return isExpired(g.stored, now)
}

func isExpired(t *task.Task, now time.Time) bool {
	if t.ExpireTime == nil {
		return true
	}
	return !now.Before(*t.ExpireTime)
}

// update fences the write against g.stored's current kind/status/
// expire_time, the lease the caller currently believes it holds.
func (g *Guard) update(ctx context.Context, next *task.Task, now time.Time) error {
	if isExpired(g.stored, now) {
		return fmt.Errorf("invoker: task %d lease expired", g.stored.ID)
	}
	event, err := g.store.UpdateWhere(ctx, store.Ctx{}, next, task.Fence(g.stored))
	if err != nil {
		return err
	}
	g.stored = event.Object
	g.current = event.Object
	return nil
}
