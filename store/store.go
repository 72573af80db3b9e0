package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/udovin/solve-server/db"
	"github.com/udovin/solve-server/db/builder"
)

// ErrNotFound is returned when a Get/Update/Delete targets an id with no
// matching row.
var ErrNotFound = errors.New("store: object not found")

// ErrConflict is returned by UpdateWhere when its fence predicate no longer
// matches the current row: another writer claimed or modified the object
// first.
var ErrConflict = errors.New("store: update predicate no longer matches (conflict)")

// writeTxOptions is the isolation level every Store-managed transaction
// starts with, matching the original's write_tx_options: strict enough that
// update_where's fenced read-modify-write is race-free without an explicit
// row lock.
func writeTxOptions() db.TxOptions {
	return db.TxOptions{Isolation: db.RepeatableRead}
}

// Store is a generic row-backed persistent store with a parallel
// append-only event log.
type Store[O Object] struct {
	database     *db.Database
	table        string
	eventTable   string
	columns      []string
	eventColumns []string
	newObject    func() O
}

// New builds a Store backed by table/eventTable. newObject must return a
// fresh zero-value O on every call; Store uses it both to discover each
// table's column list once and to decode every query result afterwards.
func New[O Object](database *db.Database, table, eventTable string, newObject func() O) *Store[O] {
	columns := newObject().IntoRow().Names()
	eventColumns := BaseEvent[O]{Object: newObject()}.IntoRow().Names()
	return &Store[O]{
		database:     database,
		table:        table,
		eventTable:   eventTable,
		columns:      columns,
		eventColumns: eventColumns,
		newObject:    newObject,
	}
}

// DB returns the underlying database, for callers that need to start their
// own transaction to compose several Store calls atomically.
func (s *Store[O]) DB() *db.Database { return s.database }

// Iter lazily decodes Rows into O as the caller consumes them.
type Iter[O Object] struct {
	rows      *db.Rows
	newObject func() O
}

// Next advances to the next decoded object. ok is false (with a nil error)
// once the result set is exhausted.
func (it *Iter[O]) Next() (O, bool, error) {
	var zero O
	row, ok, err := it.rows.Next()
	if err != nil || !ok {
		return zero, false, err
	}
	obj := it.newObject()
	if err := obj.FromRow(row); err != nil {
		return zero, false, err
	}
	return obj, true, nil
}

// Close releases the underlying driver resources. Safe to call more than
// once.
func (it *Iter[O]) Close() error { return it.rows.Close() }

// Collect drains the iterator into a slice, closing it in the process.
func (it *Iter[O]) Collect() ([]O, error) {
	defer it.Close()
	var out []O
	for {
		obj, ok, err := it.Next()
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, obj)
	}
}

// Find runs sel against the store's table, filling in the table and column
// list sel was not responsible for knowing. A caller-supplied OrderBy takes
// precedence; otherwise rows come back ordered by id.
func (s *Store[O]) Find(ctx context.Context, sctx Ctx, sel builder.Select) (*Iter[O], error) {
	sel = sel.Table(s.table).Columns(s.columns...).PrimaryKey(IDColumn)
	rows, err := sctx.executor(s.database).Query(ctx, sel)
	if err != nil {
		return nil, err
	}
	return &Iter[O]{rows: rows, newObject: s.newObject}, nil
}

// Get fetches a single object by id.
func (s *Store[O]) Get(ctx context.Context, sctx Ctx, id int64) (O, error) {
	var zero O
	iter, err := s.Find(ctx, sctx, builder.NewSelect("", "").Where(builder.Column(IDColumn).Equal(id)).Limit(1))
	if err != nil {
		return zero, err
	}
	obj, ok, err := iter.Next()
	_ = iter.Close()
	if err != nil {
		return zero, err
	}
	if !ok {
		return zero, ErrNotFound
	}
	return obj, nil
}

// Create inserts object and appends a create event, in its own transaction
// unless sctx already carries one.
func (s *Store[O]) Create(ctx context.Context, sctx Ctx, object O) (BaseEvent[O], error) {
	return s.inTx(ctx, sctx, func(ex db.Executor) (BaseEvent[O], error) {
		return s.create(ctx, ex, sctx, object)
	})
}

// Update overwrites object by id and appends an update event.
func (s *Store[O]) Update(ctx context.Context, sctx Ctx, object O) (BaseEvent[O], error) {
	return s.inTx(ctx, sctx, func(ex db.Executor) (BaseEvent[O], error) {
		return s.update(ctx, ex, sctx, object, nil)
	})
}

// UpdateWhere overwrites object by id, additionally requiring predicate to
// still hold (the optimistic-concurrency fence, e.g. "status = Queued AND
// expire_time <= now"). Zero rows affected — because the fence no longer
// matched, is reported as ErrConflict rather than ErrNotFound.
func (s *Store[O]) UpdateWhere(ctx context.Context, sctx Ctx, object O, predicate builder.Predicate) (BaseEvent[O], error) {
	event, err := s.inTx(ctx, sctx, func(ex db.Executor) (BaseEvent[O], error) {
		return s.update(ctx, ex, sctx, object, &predicate)
	})
	if errors.Is(err, ErrNotFound) {
		return BaseEvent[O]{}, ErrConflict
	}
	return event, err
}

// LatestEvent returns the most recently recorded event for id, ordered by
// event id descending. Retention sweeps use this to learn when an object
// last changed, since an Object itself carries no updated-at column
// (task.Task has none, matching the original's Task model).
func (s *Store[O]) LatestEvent(ctx context.Context, sctx Ctx, id int64) (BaseEvent[O], error) {
	sel := builder.NewSelect(s.eventTable, "").
		Columns(s.eventColumns...).
		Where(builder.Column(IDColumn).Equal(id)).
		OrderByDesc(EventIDColumn).
		Limit(1)
	rows, err := sctx.executor(s.database).Query(ctx, sel)
	if err != nil {
		return BaseEvent[O]{}, err
	}
	defer rows.Close()
	row, ok, err := rows.Next()
	if err != nil {
		return BaseEvent[O]{}, err
	}
	if !ok {
		return BaseEvent[O]{}, ErrNotFound
	}
	event := BaseEvent[O]{Object: s.newObject()}
	if err := event.FromRow(row); err != nil {
		return BaseEvent[O]{}, err
	}
	return event, nil
}

// Delete removes the object with the given id and appends a delete event.
func (s *Store[O]) Delete(ctx context.Context, sctx Ctx, id int64) (BaseEvent[O], error) {
	return s.inTx(ctx, sctx, func(ex db.Executor) (BaseEvent[O], error) {
		return s.delete(ctx, ex, sctx, id, nil)
	})
}

// DeleteWhere removes the object with the given id, additionally requiring
// predicate to still hold — the same optimistic-concurrency fence
// UpdateWhere offers, for callers that must not delete a row that changed
// out from under them.
func (s *Store[O]) DeleteWhere(ctx context.Context, sctx Ctx, id int64, predicate builder.Predicate) (BaseEvent[O], error) {
	event, err := s.inTx(ctx, sctx, func(ex db.Executor) (BaseEvent[O], error) {
		return s.delete(ctx, ex, sctx, id, &predicate)
	})
	if errors.Is(err, ErrNotFound) {
		return BaseEvent[O]{}, ErrConflict
	}
	return event, err
}

// inTx runs fn against sctx's transaction if it has one, otherwise starts
// and commits (or rolls back, on error) a fresh RepeatableRead read-write
// transaction around it.
func (s *Store[O]) inTx(ctx context.Context, sctx Ctx, fn func(db.Executor) (BaseEvent[O], error)) (BaseEvent[O], error) {
	if sctx.Tx != nil {
		return fn(sctx.Tx)
	}
	tx, err := s.database.Begin(ctx, writeTxOptions())
	if err != nil {
		return BaseEvent[O]{}, err
	}
	event, err := fn(tx)
	if err != nil {
		_ = tx.Rollback()
		return BaseEvent[O]{}, err
	}
	if err := tx.Commit(); err != nil {
		return BaseEvent[O]{}, err
	}
	return event, nil
}

func (s *Store[O]) create(ctx context.Context, ex db.Executor, sctx Ctx, object O) (BaseEvent[O], error) {
	if !object.IsValid() {
		return BaseEvent[O]{}, fmt.Errorf("store: %s: object is not valid", s.table)
	}
	row := object.IntoRow().Without(IDColumn)
	query := builder.NewInsert(s.table).Row(row).Returning(s.columns...)
	created, err := s.queryOne(ctx, ex, query)
	if err != nil {
		return BaseEvent[O]{}, err
	}
	event := newCreateEvent[O](created)
	event.AccountID = sctx.AccountID
	return s.createEvent(ctx, ex, event)
}

func (s *Store[O]) update(ctx context.Context, ex db.Executor, sctx Ctx, object O, fence *builder.Predicate) (BaseEvent[O], error) {
	if !object.IsValid() {
		return BaseEvent[O]{}, fmt.Errorf("store: %s: object is not valid", s.table)
	}
	predicate := builder.Column(IDColumn).Equal(object.ObjectID())
	if fence != nil {
		predicate = predicate.And(*fence)
	}
	row := object.IntoRow().Without(IDColumn)
	query := builder.NewUpdate(s.table).Row(row).Where(predicate).Returning(s.columns...)
	updated, err := s.queryOne(ctx, ex, query)
	if err != nil {
		return BaseEvent[O]{}, err
	}
	event := newUpdateEvent[O](updated)
	event.AccountID = sctx.AccountID
	return s.createEvent(ctx, ex, event)
}

func (s *Store[O]) delete(ctx context.Context, ex db.Executor, sctx Ctx, id int64, fence *builder.Predicate) (BaseEvent[O], error) {
	predicate := builder.Column(IDColumn).Equal(id)
	if fence != nil {
		predicate = predicate.And(*fence)
	}
	query := builder.NewDelete(s.table).Where(predicate)
	result, err := ex.Exec(ctx, query)
	if err != nil {
		return BaseEvent[O]{}, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return BaseEvent[O]{}, err
	}
	if n != 1 {
		return BaseEvent[O]{}, fmt.Errorf("%w: delete id %d affected %d rows", ErrNotFound, id, n)
	}
	deleted := s.newObject()
	deleted.SetObjectID(id)
	event := BaseEvent[O]{Kind: EventDelete, Object: deleted, Time: time.Now().UTC(), AccountID: sctx.AccountID}
	return s.createEvent(ctx, ex, event)
}

// queryOne runs q (an Insert or Update with a RETURNING clause) and decodes
// its single result row. Zero rows is reported as ErrNotFound — for an
// Update this means either the id vanished or an extra fence predicate no
// longer matched (UpdateWhere remaps that case to ErrConflict).
func (s *Store[O]) queryOne(ctx context.Context, ex db.Executor, q db.Query) (O, error) {
	var zero O
	rows, err := ex.Query(ctx, q)
	if err != nil {
		return zero, err
	}
	defer rows.Close()
	row, ok, err := rows.Next()
	if err != nil {
		return zero, err
	}
	if !ok {
		return zero, ErrNotFound
	}
	obj := s.newObject()
	if err := obj.FromRow(row); err != nil {
		return zero, err
	}
	return obj, nil
}

func (s *Store[O]) createEvent(ctx context.Context, ex db.Executor, event BaseEvent[O]) (BaseEvent[O], error) {
	row := event.IntoRow().Without(EventIDColumn)
	query := builder.NewInsert(s.eventTable).Row(row).Returning(s.eventColumns...)
	rows, err := ex.Query(ctx, query)
	if err != nil {
		return BaseEvent[O]{}, err
	}
	defer rows.Close()
	row2, ok, err := rows.Next()
	if err != nil {
		return BaseEvent[O]{}, err
	}
	if !ok {
		return BaseEvent[O]{}, fmt.Errorf("store: %s: insert returned no row", s.eventTable)
	}
	out := BaseEvent[O]{Object: s.newObject()}
	if err := out.FromRow(row2); err != nil {
		return BaseEvent[O]{}, err
	}
	return out, nil
}
