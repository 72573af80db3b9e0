package builder

import "github.com/udovin/solve-server/db"

// Update builds a parameterised UPDATE statement. The WHERE predicate is
// the optimistic-concurrency fence applied when produced via
// update_where.
type Update struct {
	table     string
	row       db.SimpleRow
	predicate Predicate
	returning []string
}

func NewUpdate(table string) Update {
	return Update{table: table, predicate: Bool(false)}
}

func (u Update) Row(row db.SimpleRow) Update {
	u.row = row
	return u
}

func (u Update) Where(p Predicate) Update {
	u.predicate = p
	return u
}

func (u Update) Returning(columns ...string) Update {
	u.returning = columns
	return u
}

func (u Update) Build(qb db.QueryBuilder) (db.RawQuery, error) {
	if len(u.row) == 0 {
		panic("builder: update requires at least one assignment")
	}
	qb.PushString("UPDATE ")
	if err := qb.PushName(u.table); err != nil {
		return db.RawQuery{}, err
	}
	qb.PushString(" SET ")
	for i, nv := range u.row {
		if i > 0 {
			qb.PushString(", ")
		}
		if err := qb.PushName(nv.Name); err != nil {
			return db.RawQuery{}, err
		}
		qb.PushString(" = ")
		qb.PushValue(nv.Value)
	}
	qb.PushString(" WHERE ")
	if err := u.predicate.PushInto(qb); err != nil {
		return db.RawQuery{}, err
	}
	if err := writeReturning(qb, u.returning); err != nil {
		return db.RawQuery{}, err
	}
	return qb.Build(), nil
}
