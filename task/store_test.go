package task_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/udovin/solve-server/db"
	"github.com/udovin/solve-server/db/dialect"
	"github.com/udovin/solve-server/store"
	"github.com/udovin/solve-server/task"

	_ "modernc.org/sqlite"
)

func newTestStore(t *testing.T) (*task.Store, *db.Database) {
	t.Helper()
	sqlDB, err := sql.Open("sqlite", "file::memory:?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)
	database := dialect.NewSQLiteDatabase(sqlDB)
	ctx := context.Background()
	if err := task.InitSchema(ctx, database); err != nil {
		t.Fatal(err)
	}
	return task.NewStore(database), database
}

func newQueuedTask() *task.Task {
	t := &task.Task{Kind: task.KindJudgeSolution, Status: task.StatusQueued}
	_ = t.SetConfig(task.JudgeSolutionConfig{SolutionID: 1})
	_ = t.SetState(nil)
	return t
}

func TestTakeClaimsQueuedTask(t *testing.T) {
	tasks, _ := newTestStore(t)
	ctx := context.Background()

	event, err := tasks.Create(ctx, store.Ctx{}, newQueuedTask())
	if err != nil {
		t.Fatal(err)
	}

	claimed, err := tasks.Take(ctx, store.Ctx{}, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if claimed.ID != event.Object.ID {
		t.Fatalf("expected to claim %d, got %d", event.Object.ID, claimed.ID)
	}
	if claimed.Status != task.StatusRunning {
		t.Fatalf("expected running status, got %v", claimed.Status)
	}
	if claimed.ExpireTime == nil || !claimed.ExpireTime.After(time.Now().UTC()) {
		t.Fatal("expected a future lease expiry")
	}
}

func TestTakeEmptyQueue(t *testing.T) {
	tasks, _ := newTestStore(t)
	ctx := context.Background()

	if _, err := tasks.Take(ctx, store.Ctx{}, time.Minute); err != task.ErrQueueEmpty {
		t.Fatalf("expected ErrQueueEmpty, got %v", err)
	}
}

// TestTakeSkipsUnknownKind exercises findClaimable's skip-unknown-kind path
// using a row written directly (bypassing Create's IsValid check), as a
// future build with a kind this build doesn't recognise would leave behind.
func TestTakeSkipsUnknownKind(t *testing.T) {
	tasks, database := newTestStore(t)
	ctx := context.Background()

	stmt := db.RawSQL(`INSERT INTO solve_task (kind, config, status, state, expire_time)
		VALUES (99, '{}', 0, 'null', NULL)`)
	if _, err := database.Exec(ctx, stmt); err != nil {
		t.Fatal(err)
	}

	good, err := tasks.Create(ctx, store.Ctx{}, newQueuedTask())
	if err != nil {
		t.Fatal(err)
	}

	claimed, err := tasks.Take(ctx, store.Ctx{}, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if claimed.ID != good.Object.ID {
		t.Fatalf("expected to skip the unknown-kind row and claim %d, got %d", good.Object.ID, claimed.ID)
	}
}

// TestTakeClaimRaceExactlyOneWinner simulates 4 concurrent claimers racing
// for a single queued task: exactly one claim must succeed and the rest must
// fail, either with ErrQueueEmpty (the task is already Running with a live
// lease when they look) or with ErrConflict wrapped by Take's "claim lost
// race" error (the UpdateWhere fence on kind+status+expire_time).
func TestTakeClaimRaceExactlyOneWinner(t *testing.T) {
	tasks, _ := newTestStore(t)
	ctx := context.Background()

	if _, err := tasks.Create(ctx, store.Ctx{}, newQueuedTask()); err != nil {
		t.Fatal(err)
	}

	const racers = 4
	var wg sync.WaitGroup
	var mu sync.Mutex
	var wins int
	var emptyOrLost int

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := tasks.Take(ctx, store.Ctx{}, time.Minute)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				wins++
			} else {
				emptyOrLost++
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d (others: %d)", wins, emptyOrLost)
	}
	if emptyOrLost != racers-1 {
		t.Fatalf("expected %d losers, got %d", racers-1, emptyOrLost)
	}
}

// TestTakeReclaimsAbandonedLease verifies that a task left Running with an
// expired lease can be claimed again after a fenced UpdateWhere resets it to
// Queued, exercising the fence tuple Take/Fence rely on to make that reclaim
// race-safe.
func TestTakeReclaimsAbandonedLease(t *testing.T) {
	tasks, _ := newTestStore(t)
	ctx := context.Background()

	event, err := tasks.Create(ctx, store.Ctx{}, newQueuedTask())
	if err != nil {
		t.Fatal(err)
	}
	claimed, err := tasks.Take(ctx, store.Ctx{}, time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if claimed.ID != event.Object.ID {
		t.Fatalf("unexpected claim: %+v", claimed)
	}

	time.Sleep(5 * time.Millisecond)

	expired := *claimed
	fence := task.Fence(claimed)
	expired.Status = task.StatusQueued
	expired.ExpireTime = nil
	if _, err := tasks.UpdateWhere(ctx, store.Ctx{}, &expired, fence); err != nil {
		t.Fatalf("lease sweep reset failed: %v", err)
	}

	reclaimed, err := tasks.Take(ctx, store.Ctx{}, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if reclaimed.ID != claimed.ID {
		t.Fatalf("expected to reclaim the same task, got %d", reclaimed.ID)
	}
}
