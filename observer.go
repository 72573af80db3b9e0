package invoker

import (
	"context"
	"errors"

	"github.com/udovin/solve-server/db/builder"
	"github.com/udovin/solve-server/store"
	"github.com/udovin/solve-server/task"
)

// Observer provides read-only access to tasks, for diagnostic, monitoring
// and administrative use. It does not participate in claim, lease or
// status-transition logic.
type Observer struct {
	tasks *task.Store
}

// NewObserver builds an Observer over tasks.
func NewObserver(tasks *task.Store) *Observer {
	return &Observer{tasks: tasks}
}

// Get returns the task identified by id, or nil if none exists.
func (o *Observer) Get(ctx context.Context, id int64) (*task.Task, error) {
	t, err := o.tasks.Get(ctx, store.Ctx{}, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return t, err
}

// List returns up to limit tasks matching status, ordered by ascending id
// (oldest first). A negative or zero limit returns every matching task.
func (o *Observer) List(ctx context.Context, status task.Status, limit int) ([]*task.Task, error) {
	sel := builder.NewSelect("", "").
		Where(builder.Column("status").Equal(int64(status))).
		OrderBy("id")
	if limit > 0 {
		sel = sel.Limit(limit)
	}
	iter, err := o.tasks.Find(ctx, store.Ctx{}, sel)
	if err != nil {
		return nil, err
	}
	return iter.Collect()
}
