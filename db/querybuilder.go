package db

import "strings"

// RawQuery is a fully-rendered statement ready for execution: a SQL string
// with its positional argument list, in the dialect's own placeholder
// syntax.
type RawQuery struct {
	SQL  string
	Args []any
}

// QueryBuilder accumulates SQL text and bound values for one statement. It
// is the dialect-supplied sink that Select/Insert/Update/Delete write into.
type QueryBuilder interface {
	PushRune(r rune)
	PushString(s string)
	// PushName renders a quoted identifier. Implementations must reject
	// names containing a quote or backslash character.
	PushName(name string) error
	// PushValue binds a value and emits the dialect's placeholder token
	// for it (e.g. "?" or "$3").
	PushValue(v Value)
	Build() RawQuery
}

// ErrInvalidIdentifier is returned by PushName when an identifier contains
// a character that would allow escaping the quoting scheme.
type ErrInvalidIdentifier struct {
	Name string
}

func (e *ErrInvalidIdentifier) Error() string {
	return "db: invalid identifier " + e.Name
}

// CheckIdentifier rejects embedded quote and backslash characters, shared
// by every dialect's PushName.
func CheckIdentifier(name string) error {
	if strings.ContainsAny(name, "\"\\") {
		return &ErrInvalidIdentifier{Name: name}
	}
	return nil
}

// Query is anything that can render itself into a RawQuery given a fresh
// QueryBuilder from a dialect. Build surfaces any PushName rejection (an
// invalid identifier) instead of swallowing it.
type Query interface {
	Build(qb QueryBuilder) (RawQuery, error)
}

// RawSQL is a literal, already-dialect-correct statement (schema DDL,
// migrations) that bypasses the builder entirely.
type RawSQL string

func (s RawSQL) Build(QueryBuilder) (RawQuery, error) {
	return RawQuery{SQL: string(s)}, nil
}
