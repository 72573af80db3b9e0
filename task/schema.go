package task

import (
	"context"

	"github.com/udovin/solve-server/db"
)

// InitSchema creates the solve_task / solve_task_event tables if they
// don't already exist, for tests and local development (the production
// deployment path manages schema separately, outside this module's scope).
func InitSchema(ctx context.Context, database *db.Database) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS solve_task (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			kind INTEGER NOT NULL,
			config TEXT NOT NULL,
			status INTEGER NOT NULL,
			state TEXT NOT NULL,
			expire_time TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS solve_task_event (
			event_id INTEGER PRIMARY KEY AUTOINCREMENT,
			event_time TIMESTAMP NOT NULL,
			event_account_id INTEGER,
			event_kind INTEGER NOT NULL,
			id INTEGER NOT NULL,
			kind INTEGER NOT NULL,
			config TEXT NOT NULL,
			status INTEGER NOT NULL,
			state TEXT NOT NULL,
			expire_time TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_solve_task_status ON solve_task (status)`,
		`CREATE INDEX IF NOT EXISTS idx_solve_task_event_id ON solve_task_event (id)`,
	}
	for _, stmt := range stmts {
		if _, err := database.Exec(ctx, db.RawSQL(stmt)); err != nil {
			return err
		}
	}
	return nil
}
