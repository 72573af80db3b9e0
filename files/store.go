package files

import (
	"github.com/udovin/solve-server/db"
	"github.com/udovin/solve-server/store"
)

// Store wraps the generic store.Store[*File] backing the solve_file /
// solve_file_event tables.
type Store struct {
	*store.Store[*File]
}

// NewStore builds a Store backed by the solve_file / solve_file_event
// tables.
func NewStore(database *db.Database) *Store {
	return &Store{store.New[*File](database, "solve_file", "solve_file_event", func() *File { return &File{} })}
}
