package db

import (
	"context"
	"database/sql"

	"github.com/uptrace/bun"
)

// IsolationLevel mirrors the teacher's external database contract: the
// set of isolation levels a Transaction may request.
type IsolationLevel int

const (
	ReadUncommitted IsolationLevel = iota
	ReadCommitted
	RepeatableRead
	Serializable
)

func (l IsolationLevel) sql() sql.IsolationLevel {
	switch l {
	case ReadUncommitted:
		return sql.LevelReadUncommitted
	case ReadCommitted:
		return sql.LevelReadCommitted
	case RepeatableRead:
		return sql.LevelRepeatableRead
	case Serializable:
		return sql.LevelSerializable
	default:
		return sql.LevelDefault
	}
}

// TxOptions configures a started Transaction.
type TxOptions struct {
	Isolation IsolationLevel
	ReadOnly  bool
}

// sqlExecutor is the raw-SQL surface that both *bun.DB and *bun.Tx expose
// via their embedded *sql.DB / *sql.Tx.
type sqlExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Executor runs a built Query against whichever underlying connection or
// transaction it wraps.
type Executor interface {
	Exec(ctx context.Context, q Query) (sql.Result, error)
	Query(ctx context.Context, q Query) (*Rows, error)
	// Builder returns a fresh dialect QueryBuilder for rendering a Query
	// before it is executed.
	Builder() QueryBuilder
}

type executor struct {
	raw     sqlExecutor
	newQB   func() QueryBuilder
}

func (e *executor) Builder() QueryBuilder { return e.newQB() }

func (e *executor) Exec(ctx context.Context, q Query) (sql.Result, error) {
	rq, err := q.Build(e.newQB())
	if err != nil {
		return nil, err
	}
	return e.raw.ExecContext(ctx, rq.SQL, rq.Args...)
}

func (e *executor) Query(ctx context.Context, q Query) (*Rows, error) {
	rq, err := q.Build(e.newQB())
	if err != nil {
		return nil, err
	}
	rows, err := e.raw.QueryContext(ctx, rq.SQL, rq.Args...)
	if err != nil {
		return nil, err
	}
	return NewRows(rows)
}

// Transaction is a started, uncommitted unit of work.
type Transaction interface {
	Executor
	Commit() error
	Rollback() error
}

type transaction struct {
	executor
	tx bun.Tx
}

func (t *transaction) Commit() error   { return t.tx.Commit() }
func (t *transaction) Rollback() error { return t.tx.Rollback() }

// Connection is a single logical database connection capable of starting
// transactions. In this module, backed directly by *bun.DB, whose
// internal pool plays the role the abstract contract calls "Connection".
type Connection interface {
	Executor
	Begin(ctx context.Context, opts TxOptions) (Transaction, error)
}

// Database wraps a *bun.DB and a dialect QueryBuilder factory, implementing
// the external database contract while keeping bun as the sole SQL engine
// underneath (the teacher's own choice of driver).
type Database struct {
	executor
	bun *bun.DB
}

// NewDatabase adapts an already-configured *bun.DB plus a QueryBuilder
// factory (see package dialect) into a Database.
func NewDatabase(db *bun.DB, newQB func() QueryBuilder) *Database {
	return &Database{
		executor: executor{raw: db, newQB: newQB},
		bun:      db,
	}
}

// Connection returns the single Connection this Database exposes. bun
// already pools connections internally, so Connection is this Database
// itself: the indirection exists to satisfy the abstract contract, not to
// add a second pooling layer.
func (d *Database) Connection(context.Context) (Connection, error) {
	return d, nil
}

// Begin starts a transaction directly against the database, without going
// through an explicit Connection — the common case used by every store in
// this module.
func (d *Database) Begin(ctx context.Context, opts TxOptions) (Transaction, error) {
	tx, err := d.bun.BeginTx(ctx, &sql.TxOptions{
		Isolation: opts.Isolation.sql(),
		ReadOnly:  opts.ReadOnly,
	})
	if err != nil {
		return nil, err
	}
	return &transaction{
		executor: executor{raw: tx, newQB: d.newQB},
		tx:       tx,
	}, nil
}
