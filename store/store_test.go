package store_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/udovin/solve-server/db"
	"github.com/udovin/solve-server/db/builder"
	"github.com/udovin/solve-server/db/dialect"
	"github.com/udovin/solve-server/store"
	dbtask "github.com/udovin/solve-server/task"

	_ "modernc.org/sqlite"
)

func newTestDB(t *testing.T) *db.Database {
	t.Helper()
	sqlDB, err := sql.Open("sqlite", "file::memory:?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)
	database := dialect.NewSQLiteDatabase(sqlDB)
	ctx := context.Background()
	if err := dbtask.InitSchema(ctx, database); err != nil {
		t.Fatal(err)
	}
	return database
}

func newTask(kind dbtask.Kind) *dbtask.Task {
	t := &dbtask.Task{Kind: kind, Status: dbtask.StatusQueued}
	_ = t.SetConfig(map[string]any{})
	_ = t.SetState(nil)
	return t
}

func TestStoreCreateGet(t *testing.T) {
	database := newTestDB(t)
	tasks := dbtask.NewStore(database)
	ctx := context.Background()

	event, err := tasks.Create(ctx, store.Ctx{}, newTask(dbtask.KindJudgeSolution))
	if err != nil {
		t.Fatal(err)
	}
	if event.Kind != store.EventCreate {
		t.Fatalf("expected create event, got %v", event.Kind)
	}
	if event.Object.ID == 0 {
		t.Fatal("expected a non-zero assigned id")
	}

	got, err := tasks.Get(ctx, store.Ctx{}, event.Object.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Kind != dbtask.KindJudgeSolution || got.Status != dbtask.StatusQueued {
		t.Fatalf("unexpected task: %+v", got)
	}
}

func TestStoreGetMissing(t *testing.T) {
	database := newTestDB(t)
	tasks := dbtask.NewStore(database)
	ctx := context.Background()

	if _, err := tasks.Get(ctx, store.Ctx{}, 12345); err != store.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreUpdateWhereConflict(t *testing.T) {
	database := newTestDB(t)
	tasks := dbtask.NewStore(database)
	ctx := context.Background()

	event, err := tasks.Create(ctx, store.Ctx{}, newTask(dbtask.KindJudgeSolution))
	if err != nil {
		t.Fatal(err)
	}
	created := event.Object

	stale := *created
	stale.Status = dbtask.StatusRunning
	wrongFence := builder.Column("status").Equal(int64(dbtask.StatusRunning))
	if _, err := tasks.UpdateWhere(ctx, store.Ctx{}, &stale, wrongFence); err != store.ErrConflict {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	rightFence := builder.Column("status").Equal(int64(dbtask.StatusQueued))
	updated, err := tasks.UpdateWhere(ctx, store.Ctx{}, &stale, rightFence)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Object.Status != dbtask.StatusRunning {
		t.Fatalf("expected running status, got %v", updated.Object.Status)
	}
}

func TestStoreDeleteWhereConflict(t *testing.T) {
	database := newTestDB(t)
	tasks := dbtask.NewStore(database)
	ctx := context.Background()

	event, err := tasks.Create(ctx, store.Ctx{}, newTask(dbtask.KindJudgeSolution))
	if err != nil {
		t.Fatal(err)
	}
	id := event.Object.ID

	wrongFence := builder.Column("status").Equal(int64(dbtask.StatusRunning))
	if _, err := tasks.DeleteWhere(ctx, store.Ctx{}, id, wrongFence); err != store.ErrConflict {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	rightFence := builder.Column("status").Equal(int64(dbtask.StatusQueued))
	if _, err := tasks.DeleteWhere(ctx, store.Ctx{}, id, rightFence); err != nil {
		t.Fatal(err)
	}
	if _, err := tasks.Get(ctx, store.Ctx{}, id); err != store.ErrNotFound {
		t.Fatalf("expected row to be gone, got %v", err)
	}
}

func TestStoreLatestEvent(t *testing.T) {
	database := newTestDB(t)
	tasks := dbtask.NewStore(database)
	ctx := context.Background()

	event, err := tasks.Create(ctx, store.Ctx{}, newTask(dbtask.KindJudgeSolution))
	if err != nil {
		t.Fatal(err)
	}
	created := event.Object

	updated := *created
	updated.Status = dbtask.StatusRunning
	if _, err := tasks.Update(ctx, store.Ctx{}, &updated); err != nil {
		t.Fatal(err)
	}

	latest, err := tasks.LatestEvent(ctx, store.Ctx{}, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if latest.Kind != store.EventUpdate {
		t.Fatalf("expected the update event to be latest, got %v", latest.Kind)
	}
	if latest.Object.Status != dbtask.StatusRunning {
		t.Fatalf("unexpected status in latest event: %v", latest.Object.Status)
	}
}

func TestStoreFindOrdersByPrimaryKey(t *testing.T) {
	database := newTestDB(t)
	tasks := dbtask.NewStore(database)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 3; i++ {
		event, err := tasks.Create(ctx, store.Ctx{}, newTask(dbtask.KindJudgeSolution))
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, event.Object.ID)
	}

	sel := builder.NewSelect("", "").Where(builder.Column("status").Equal(int64(dbtask.StatusQueued)))
	iter, err := tasks.Find(ctx, store.Ctx{}, sel)
	if err != nil {
		t.Fatal(err)
	}
	found, err := iter.Collect()
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != len(ids) {
		t.Fatalf("expected %d rows, got %d", len(ids), len(found))
	}
	for i, want := range ids {
		if found[i].ID != want {
			t.Fatalf("expected ascending id order, got %+v", found)
		}
	}
}
