package builder

import "github.com/udovin/solve-server/db"

// Insert builds a parameterised INSERT statement, optionally with a
// RETURNING clause used to read back server-assigned columns such as the
// primary key.
type Insert struct {
	table     string
	row       db.SimpleRow
	returning []string
}

func NewInsert(table string) Insert {
	return Insert{table: table}
}

func (ins Insert) Row(row db.SimpleRow) Insert {
	ins.row = row
	return ins
}

func (ins Insert) Returning(columns ...string) Insert {
	ins.returning = columns
	return ins
}

func (ins Insert) Build(qb db.QueryBuilder) (db.RawQuery, error) {
	qb.PushString("INSERT INTO ")
	if err := qb.PushName(ins.table); err != nil {
		return db.RawQuery{}, err
	}
	qb.PushString(" (")
	for i, nv := range ins.row {
		if i > 0 {
			qb.PushString(", ")
		}
		if err := qb.PushName(nv.Name); err != nil {
			return db.RawQuery{}, err
		}
	}
	qb.PushString(") VALUES (")
	for i, nv := range ins.row {
		if i > 0 {
			qb.PushString(", ")
		}
		qb.PushValue(nv.Value)
	}
	qb.PushString(")")
	if err := writeReturning(qb, ins.returning); err != nil {
		return db.RawQuery{}, err
	}
	return qb.Build(), nil
}

func writeReturning(qb db.QueryBuilder, columns []string) error {
	if len(columns) == 0 {
		return nil
	}
	qb.PushString(" RETURNING ")
	for i, name := range columns {
		if i > 0 {
			qb.PushString(", ")
		}
		if err := qb.PushName(name); err != nil {
			return err
		}
	}
	return nil
}
