package db

import (
	"database/sql"
)

// Rows is a lazy sequence of Row produced by a query, mirroring the
// teacher's bun.Rows / the original's solve_db::Rows.
type Rows struct {
	rows    *sql.Rows
	columns *ColumnIndex
}

// NewRows wraps a *sql.Rows (as returned by an Executor's QueryContext)
// into the Row iterator this package exposes to callers.
func NewRows(rows *sql.Rows) (*Rows, error) {
	names, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		return nil, err
	}
	return &Rows{rows: rows, columns: NewColumnIndex(names)}, nil
}

// Next advances to the next row. It returns ok=false (and a nil error) once
// the result set is exhausted.
func (r *Rows) Next() (Row, bool, error) {
	if !r.rows.Next() {
		return Row{}, false, r.rows.Err()
	}
	n := r.columns.Len()
	scan := make([]any, n)
	dest := make([]any, n)
	for i := range scan {
		dest[i] = &scan[i]
	}
	if err := r.rows.Scan(dest...); err != nil {
		return Row{}, false, err
	}
	values := make([]Value, n)
	for i, v := range scan {
		values[i] = FromNative(v)
	}
	return NewRow(r.columns, values), true, nil
}

// Close releases the underlying driver resources. It is safe to call more
// than once.
func (r *Rows) Close() error {
	return r.rows.Close()
}

// Collect drains the remaining rows into a slice, for small result sets
// such as the claimed-task batch in take_task.
func (r *Rows) Collect() ([]Row, error) {
	defer r.Close()
	var out []Row
	for {
		row, ok, err := r.Next()
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, row)
	}
}
