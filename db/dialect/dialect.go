// Package dialect provides db.QueryBuilder implementations for SQLite and
// PostgreSQL, the two dialects the teacher's bun-backed storage layer
// targets.
package dialect

import (
	"strings"

	"github.com/udovin/solve-server/db"
)

// genericBuilder accumulates SQL text and bound arguments; the two dialects
// differ only in how they render a placeholder token for a bound value.
type genericBuilder struct {
	sql        strings.Builder
	args       []any
	placeholder func(index int) string
}

func (b *genericBuilder) PushRune(r rune) {
	b.sql.WriteRune(r)
}

func (b *genericBuilder) PushString(s string) {
	b.sql.WriteString(s)
}

func (b *genericBuilder) PushName(name string) error {
	if err := db.CheckIdentifier(name); err != nil {
		return err
	}
	b.sql.WriteByte('"')
	b.sql.WriteString(name)
	b.sql.WriteByte('"')
	return nil
}

func (b *genericBuilder) PushValue(v db.Value) {
	b.args = append(b.args, v.Native())
	b.sql.WriteString(b.placeholder(len(b.args)))
}

func (b *genericBuilder) Build() db.RawQuery {
	return db.RawQuery{SQL: b.sql.String(), Args: b.args}
}

// SQLite returns a fresh QueryBuilder that renders "?" positional
// placeholders, matching modernc.org/sqlite's driver expectations.
func SQLite() db.QueryBuilder {
	return &genericBuilder{placeholder: func(int) string { return "?" }}
}

// Postgres returns a fresh QueryBuilder that renders "$N" placeholders
// numbered from 1 in insertion order.
func Postgres() db.QueryBuilder {
	return &genericBuilder{placeholder: func(i int) string { return "$" + itoa(i) }}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
