package builder

import "github.com/udovin/solve-server/db"

// Select builds a parameterised SELECT statement.
type Select struct {
	table     string
	columns   []string
	predicate Predicate
	orderBy   []string
	orderDesc bool
	limit     int
	// primaryKey is appended to orderBy automatically when the caller has
	// not supplied an explicit ordering, for deterministic pagination.
	primaryKey string
}

// NewSelect starts a new Select against table, defaulting to a false
// predicate (matching the Rust original's Predicate::Bool(false) default,
// so an unconfigured Select never accidentally selects every row).
func NewSelect(table string, primaryKey string) Select {
	return Select{table: table, predicate: Bool(false), primaryKey: primaryKey}
}

// Table overrides the target table, used by package store to bind a
// caller-built Select (whose table is normally left blank) to the store's
// own table name.
func (s Select) Table(name string) Select {
	s.table = name
	return s
}

// PrimaryKey overrides the column auto-appended to ORDER BY when the
// caller left OrderBy unset.
func (s Select) PrimaryKey(name string) Select {
	s.primaryKey = name
	return s
}

func (s Select) Columns(columns ...string) Select {
	s.columns = columns
	return s
}

func (s Select) Where(p Predicate) Select {
	s.predicate = p
	return s
}

func (s Select) OrderBy(columns ...string) Select {
	s.orderBy = columns
	s.orderDesc = false
	return s
}

// OrderByDesc orders by columns descending. Unlike OrderBy, direction
// applies to the whole clause rather than per column; store package only
// ever uses this with a single column (most-recent-event lookups).
func (s Select) OrderByDesc(columns ...string) Select {
	s.orderBy = columns
	s.orderDesc = true
	return s
}

func (s Select) Limit(n int) Select {
	s.limit = n
	return s
}

func (s Select) Build(qb db.QueryBuilder) (db.RawQuery, error) {
	if len(s.columns) == 0 {
		panic("builder: select requires at least one column")
	}
	qb.PushString("SELECT ")
	for i, c := range s.columns {
		if i > 0 {
			qb.PushString(", ")
		}
		if err := qb.PushName(c); err != nil {
			return db.RawQuery{}, err
		}
	}
	qb.PushString(" FROM ")
	if err := qb.PushName(s.table); err != nil {
		return db.RawQuery{}, err
	}
	qb.PushString(" WHERE ")
	if err := s.predicate.PushInto(qb); err != nil {
		return db.RawQuery{}, err
	}
	orderBy := s.orderBy
	if len(orderBy) == 0 && s.primaryKey != "" {
		orderBy = []string{s.primaryKey}
	}
	if len(orderBy) > 0 {
		qb.PushString(" ORDER BY ")
		for i, name := range orderBy {
			if i > 0 {
				qb.PushString(", ")
			}
			if err := qb.PushName(name); err != nil {
				return db.RawQuery{}, err
			}
		}
		if s.orderDesc {
			qb.PushString(" DESC")
		}
	}
	if s.limit > 0 {
		qb.PushString(" LIMIT ")
		qb.PushString(itoa(s.limit))
	}
	return qb.Build(), nil
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
