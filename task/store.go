package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/udovin/solve-server/db"
	"github.com/udovin/solve-server/db/builder"
	"github.com/udovin/solve-server/store"
)

// ErrInTransaction is returned by Store.Take when called with a Ctx that
// already carries a transaction: claiming a task always needs to own its
// own transaction boundary, mirroring the original TaskStore::take_task's
// same check.
var ErrInTransaction = errors.New("task: take cannot run inside an existing transaction")

// ErrQueueEmpty is returned by Take when no queued task is available.
var ErrQueueEmpty = errors.New("task: queue is empty")

// Store wraps the generic store.Store[*Task] with the task queue's claim
// operation.
type Store struct {
	*store.Store[*Task]
}

// NewStore builds a Store backed by the solve_task / solve_task_event
// tables.
func NewStore(database *db.Database) *Store {
	return &Store{store.New[*Task](database, "solve_task", "solve_task_event", func() *Task { return &Task{} })}
}

// Take claims up to one Queued task, or one Running task whose lease has
// already expired (skipping any row whose kind decoded to KindUnknown),
// marks it Running with a lease expiring after lease, and returns it. It
// returns ErrQueueEmpty when no claimable task exists.
//
// Take always opens its own transaction and therefore rejects a Ctx that
// already carries one, matching the original's take_task guard.
func (s *Store) Take(ctx context.Context, sctx store.Ctx, lease time.Duration) (*Task, error) {
	if sctx.Tx != nil {
		return nil, ErrInTransaction
	}
	tx, err := s.DB().Begin(ctx, db.TxOptions{Isolation: db.RepeatableRead})
	if err != nil {
		return nil, err
	}
	txCtx := sctx.WithTx(tx)
	candidate, err := s.findClaimable(ctx, txCtx)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if candidate == nil {
		_ = tx.Rollback()
		return nil, ErrQueueEmpty
	}
	expire := time.Now().UTC().Add(lease)
	claimed := *candidate
	claimed.Status = StatusRunning
	claimed.ExpireTime = &expire
	fence := Fence(candidate)
	event, err := s.UpdateWhere(ctx, txCtx, &claimed, fence)
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("task: claim lost race: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return event.Object, nil
}

// findClaimable scans up to 5 claimable tasks ordered by id (Queued, or
// Running with expire_time at or before now), returning the first one whose
// kind is known.
func (s *Store) findClaimable(ctx context.Context, sctx store.Ctx) (*Task, error) {
	queued := builder.Column("status").Equal(int64(StatusQueued))
	abandoned := builder.Column("status").Equal(int64(StatusRunning)).
		And(builder.Column("expire_time").LessEqual(db.Time(time.Now().UTC())))
	sel := builder.NewSelect("", "").
		Where(queued.Or(abandoned)).
		Limit(5)
	iter, err := s.Find(ctx, sctx, sel)
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	for {
		t, ok, err := iter.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		if t.Kind == KindUnknown {
			continue
		}
		return t, nil
	}
}

// Fence builds the optimistic-concurrency predicate guarding an
// UpdateWhere against a concurrent claim or ping of this exact task: kind,
// status and expire_time must all be unchanged. Exported so callers
// holding a previously-read Task (such as a running handler's lease
// renewal) can reuse it without re-deriving the column list.
func Fence(t *Task) builder.Predicate {
	pred := builder.Column("kind").Equal(int64(t.Kind)).
		And(builder.Column("status").Equal(int64(t.Status)))
	if t.ExpireTime == nil {
		return pred.And(builder.Column("expire_time").Equal(nil))
	}
	return pred.And(builder.Column("expire_time").Equal(db.Time(*t.ExpireTime)))
}
