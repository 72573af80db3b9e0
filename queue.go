package invoker

import (
	"context"

	"github.com/udovin/solve-server/store"
	"github.com/udovin/solve-server/task"
)

// Enqueue creates a new Queued task of the given kind with config marshaled
// to JSON, returning the stored task. This is the write-side entry point
// into the queue a Worker later claims from.
func Enqueue(ctx context.Context, tasks *task.Store, kind task.Kind, config any) (*task.Task, error) {
	t := &task.Task{Kind: kind, Status: task.StatusQueued}
	if err := t.SetConfig(config); err != nil {
		return nil, err
	}
	event, err := tasks.Create(ctx, store.Ctx{}, t)
	if err != nil {
		return nil, err
	}
	return event.Object, nil
}
