package dialect

import (
	"database/sql"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/udovin/solve-server/db"
)

// NewSQLiteDatabase wraps sqlDB (already opened against modernc.org/sqlite)
// as a db.Database rendering SQLite-flavoured SQL, both for bun's own DDL
// and for the db/builder query builder.
func NewSQLiteDatabase(sqlDB *sql.DB) *db.Database {
	return db.NewDatabase(bun.NewDB(sqlDB, sqlitedialect.New()), SQLite)
}

// NewPostgresDatabase wraps sqlDB (already opened against a pgx/lib/pq
// driver) as a db.Database rendering PostgreSQL-flavoured SQL.
func NewPostgresDatabase(sqlDB *sql.DB) *db.Database {
	return db.NewDatabase(bun.NewDB(sqlDB, pgdialect.New()), Postgres)
}
