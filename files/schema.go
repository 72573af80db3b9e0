package files

import (
	"context"

	"github.com/udovin/solve-server/db"
)

// InitSchema creates the solve_file / solve_file_event tables if they
// don't already exist, for tests and local development.
func InitSchema(ctx context.Context, database *db.Database) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS solve_file (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			status INTEGER NOT NULL,
			expire_time TIMESTAMP,
			path TEXT NOT NULL,
			meta TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS solve_file_event (
			event_id INTEGER PRIMARY KEY AUTOINCREMENT,
			event_time TIMESTAMP NOT NULL,
			event_account_id INTEGER,
			event_kind INTEGER NOT NULL,
			id INTEGER NOT NULL,
			status INTEGER NOT NULL,
			expire_time TIMESTAMP,
			path TEXT NOT NULL,
			meta TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_solve_file_status ON solve_file (status)`,
	}
	for _, stmt := range stmts {
		if _, err := database.Exec(ctx, db.RawSQL(stmt)); err != nil {
			return err
		}
	}
	return nil
}
