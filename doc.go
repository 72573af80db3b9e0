// Package invoker runs the task queue: claiming queued tasks with a leased
// visibility window, dispatching each to the Handler registered for its
// Kind, and renewing the lease while the handler runs.
//
// # Overview
//
// Tasks are rows in the store.Store-backed task.Store (package task);
// invoker only adds the claim/dispatch/lease machinery on top. A task's
// lifecycle is:
//
//	Queued  -> Running  (Worker.claimLoop, via task.Store.Take)
//	Running -> Succeeded | Failed (Worker.run, after Handler.Run returns)
//
// Running is never returned to Queued explicitly: if a worker dies mid-run,
// the task's lease (expire_time) simply elapses, and the next
// Worker.claimLoop iteration sees it as claimable again through the same query that finds fresh
// Queued rows.
//
// # Lease Model
//
// Claiming a task sets status=Running and expire_time=now+lease (30s by
// default). A Guard wraps the claimed task and fences every write
// (SetStatus, SetState, the internal ping) against the exact
// kind/status/expire_time the caller last observed, so a lease lost to a
// concurrent reclaim surfaces as an error instead of silently clobbering
// another worker's progress (task.Fence, store.ErrConflict).
//
// While a handler runs, a pinger renews the lease automatically: every
// second it checks whether under 15s remain and, if so, extends it by
// another 30s. If the lease is ever found already expired, the pinger
// cancels the handler's context instead of continuing to renew a lease
// that likely no longer belongs to this worker.
//
// # Dispatch
//
// Worker claims tasks one at a time and dispatches them into a bounded
// internal.WorkerPool. An empty queue is not treated as an error: the
// claim loop backs off for a jittered 800-1200ms before polling again
// (emptyQueueBackoff), so idle workers don't hammer storage in lockstep.
//
// A claimed task whose Kind has no registered Handler is failed
// immediately with ErrUnknownKind rather than retried.
//
// # Interfaces
//
//	Handler  — executes one task kind's work
//	Observer — read-only inspection of tasks, for admin/monitoring
//	Cleaner  — permanently removes old terminal tasks
//
// # Concurrency Model
//
// Worker has a strict lifecycle: Start may only be called once, and Stop
// waits for the claim loop and every in-flight handler to finish, subject
// to a timeout. Handlers must be safe to run more than once for the same
// task id, since a crash between claim and the final SetStatus leaves the
// task Running until the lease lapses and another worker reclaims it.
package invoker
