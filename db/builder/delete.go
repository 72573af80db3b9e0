package builder

import "github.com/udovin/solve-server/db"

// Delete builds a parameterised DELETE statement.
type Delete struct {
	table     string
	predicate Predicate
}

func NewDelete(table string) Delete {
	return Delete{table: table, predicate: Bool(false)}
}

func (d Delete) Where(p Predicate) Delete {
	d.predicate = p
	return d
}

func (d Delete) Build(qb db.QueryBuilder) (db.RawQuery, error) {
	qb.PushString("DELETE FROM ")
	if err := qb.PushName(d.table); err != nil {
		return db.RawQuery{}, err
	}
	qb.PushString(" WHERE ")
	if err := d.predicate.PushInto(qb); err != nil {
		return db.RawQuery{}, err
	}
	return qb.Build(), nil
}
