package invoker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/udovin/solve-server/internal"
	"github.com/udovin/solve-server/store"
	"github.com/udovin/solve-server/task"
)

// ErrUnknownKind is the error logged when a claimed task's kind has no
// registered Handler. The task is failed immediately rather than retried.
var ErrUnknownKind = errors.New("invoker: no handler registered for task kind")

const defaultLease = 30 * time.Second

// WorkerConfig defines runtime behavior of a Worker.
//
// Concurrency specifies the number of tasks run concurrently.
//
// Queue specifies the internal buffering capacity between claiming tasks
// from storage and dispatching them to a Handler.
//
// Lease is the visibility window assigned to each claimed task before the
// pinger must renew it; it defaults to 30s when zero.
type WorkerConfig struct {
	Concurrency int
	Queue       int
	Lease       time.Duration
}

// Worker claims tasks from a task.Store and dispatches each to the Handler
// registered for its Kind, pinging the claimed lease while the handler
// runs.
//
// Worker has a strict lifecycle:
//   - Start may only be called once.
//   - Stop gracefully stops the claim loop and waits for every in-flight
//     handler to finish, subject to a timeout.
type Worker struct {
	lcBase
	tasks     *task.Store
	handlers  map[task.Kind]Handler
	pool      *internal.WorkerPool[*task.Task]
	log       *slog.Logger
	lease     time.Duration
	cancel    context.CancelFunc
	claimDone internal.DoneChan
}

// NewWorker builds a Worker. handlers maps each task.Kind this process can
// execute to its Handler; a claimed task whose kind has no entry fails
// immediately with ErrUnknownKind.
func NewWorker(tasks *task.Store, handlers map[task.Kind]Handler, config *WorkerConfig, log *slog.Logger) *Worker {
	lease := config.Lease
	if lease <= 0 {
		lease = defaultLease
	}
	return &Worker{
		tasks:    tasks,
		handlers: handlers,
		pool:     internal.NewWorkerPool[*task.Task](config.Concurrency, config.Queue, log),
		log:      log,
		lease:    lease,
	}
}

// claimLoop repeatedly claims one task at a time, dispatching each into the
// worker pool, backing off for emptyQueueBackoff when the queue is empty.
func (w *Worker) claimLoop(ctx context.Context) {
	defer close(w.claimDone)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		t, err := w.tasks.Take(ctx, store.Ctx{}, w.lease)
		if err != nil {
			if !errors.Is(err, task.ErrQueueEmpty) {
				w.log.Error("cannot claim task", "error", err)
			}
			if !w.sleepBackoff(ctx) {
				return
			}
			continue
		}
		if !w.pool.Push(t) {
			w.log.Debug("task push interrupted by shutdown", "task_id", t.ID)
			return
		}
	}
}

func (w *Worker) sleepBackoff(ctx context.Context) bool {
	timer := time.NewTimer(emptyQueueBackoff())
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// run executes one claimed task end to end: dispatch to its Handler, renew
// its lease via a pinger for the duration, then persist the terminal
// status.
func (w *Worker) run(ctx context.Context, t *task.Task) {
	log := w.log.With("task_id", t.ID, "kind", t.Kind.String())
	guard := newGuard(t, w.tasks)
	handler, ok := w.handlers[t.Kind]
	if !ok {
		log.Error("unknown task kind", "error", ErrUnknownKind)
		if err := guard.SetStatus(ctx, task.StatusFailed); err != nil {
			log.Error("cannot set failed status", "error", err)
		}
		return
	}
	handlerCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	p := &pinger{guard: guard, log: log}
	pingerDone := make(chan struct{})
	go func() {
		defer close(pingerDone)
		p.run(handlerCtx, cancel)
	}()
	runErr := handler.Run(handlerCtx, guard)
	cancel()
	<-pingerDone
	status := task.StatusSucceeded
	if runErr != nil {
		status = task.StatusFailed
		log.Error("task failed", "error", runErr)
	}
	if err := guard.SetStatus(ctx, status); err != nil {
		log.Error("cannot set final task status", "error", err)
	}
}

// Start begins background claiming and processing of tasks.
//
// Start returns ErrDoubleStarted if the worker has already been started.
func (w *Worker) Start(ctx context.Context) error {
	if err := w.tryStart(); err != nil {
		return err
	}
	ctx, w.cancel = context.WithCancel(ctx)
	w.claimDone = make(internal.DoneChan)
	w.pool.Start(ctx, w.run)
	go w.claimLoop(ctx)
	return nil
}

func (w *Worker) doStop() internal.DoneChan {
	w.cancel()
	return internal.Combine(w.claimDone, w.pool.Stop())
}

// Stop initiates graceful shutdown of the worker: stops claiming new tasks
// and waits for every in-flight handler to finish, subject to timeout.
//
// Stop returns ErrDoubleStopped if the worker is not running, or
// ErrStopTimeout if shutdown doesn't complete in time (in which case
// background goroutines may still be terminating).
func (w *Worker) Stop(timeout time.Duration) error {
	return w.tryStop(timeout, w.doStop)
}
