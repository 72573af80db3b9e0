package invoker

import (
	"context"
	"errors"
	"time"

	"github.com/udovin/solve-server/db/builder"
	"github.com/udovin/solve-server/store"
	"github.com/udovin/solve-server/task"
)

// ErrBadStatus indicates that a non-terminal task status was supplied to
// Cleaner. Implementations must restrict deletion to terminal states
// (Succeeded, Failed); deleting a Queued or Running task would race a
// Worker that is about to claim or is already executing it.
var ErrBadStatus = errors.New("bad task status")

// Cleaner provides a mechanism for permanently removing tasks from storage.
//
// Cleaner is intended for administrative and retention-management use. It
// does not participate in normal task dispatch and must not modify
// non-terminal tasks.
//
// Clean must only delete tasks in terminal states (Succeeded or Failed).
// Implementations must reject attempts to delete Queued or Running tasks
// with ErrBadStatus.
type Cleaner interface {
	// Clean deletes tasks matching status, restricted to those whose most
	// recent event predates before. If before is nil, no time-based
	// filtering is applied. Clean returns the number of deleted tasks.
	Clean(ctx context.Context, status task.Status, before *time.Time) (int64, error)
}

// TaskCleaner is the Cleaner backing a CleanWorker in this module: it scans
// a task.Store for rows matching status and deletes each whose latest
// recorded event is older than before, following the teacher's
// Cleaner/CleanWorker split.
type TaskCleaner struct {
	tasks *task.Store
}

// NewTaskCleaner builds a TaskCleaner over tasks.
func NewTaskCleaner(tasks *task.Store) *TaskCleaner {
	return &TaskCleaner{tasks: tasks}
}

func (c *TaskCleaner) Clean(ctx context.Context, status task.Status, before *time.Time) (int64, error) {
	if !status.IsTerminal() {
		return 0, ErrBadStatus
	}
	sel := builder.NewSelect("", "").Where(builder.Column("status").Equal(int64(status)))
	iter, err := c.tasks.Find(ctx, store.Ctx{}, sel)
	if err != nil {
		return 0, err
	}
	candidates, err := iter.Collect()
	if err != nil {
		return 0, err
	}
	var deleted int64
	for _, t := range candidates {
		if before != nil {
			event, err := c.tasks.LatestEvent(ctx, store.Ctx{}, t.ID)
			if err != nil {
				return deleted, err
			}
			if !event.Time.Before(*before) {
				continue
			}
		}
		if _, err := c.tasks.Delete(ctx, store.Ctx{}, t.ID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}
