// Package builder provides composable SELECT/INSERT/UPDATE/DELETE builders
// and the Predicate/Expression AST they share, mirroring the teacher's
// fluent query style generalized to the value/row model in package db.
package builder

import "github.com/udovin/solve-server/db"

// exprKind discriminates Expression variants without reflection.
type exprKind int

const (
	exprValue exprKind = iota
	exprColumn
	exprRaw
)

// Expression is one of: a bound Value, a Column reference, or a Raw SQL
// fragment.
type Expression struct {
	kind   exprKind
	value  db.Value
	column string
	raw    string
}

// Val wraps a Go value as a bound Expression.
func Val(v any) Expression {
	return Expression{kind: exprValue, value: db.IntoValue(v)}
}

// Column references a named column.
func Column(name string) Expression {
	return Expression{kind: exprColumn, column: name}
}

// Raw embeds a literal SQL fragment, unescaped.
func Raw(sql string) Expression {
	return Expression{kind: exprRaw, raw: sql}
}

func (e Expression) writeTo(qb db.QueryBuilder) error {
	switch e.kind {
	case exprValue:
		qb.PushValue(e.value)
		return nil
	case exprColumn:
		return qb.PushName(e.column)
	case exprRaw:
		qb.PushString(e.raw)
		return nil
	default:
		return nil
	}
}

// Equal builds `this = rhs`, rewritten to `IS NULL` when rhs is Null.
func (e Expression) Equal(rhs any) Predicate {
	r := toExpression(rhs)
	if r.kind == exprValue && r.value.IsNull() {
		return Predicate{kind: predIsNull, operand: e}
	}
	return Predicate{kind: predEqual, left: e, right: r}
}

// NotEqual builds `this <> rhs`, rewritten to `IS NOT NULL` when rhs is Null.
func (e Expression) NotEqual(rhs any) Predicate {
	r := toExpression(rhs)
	if r.kind == exprValue && r.value.IsNull() {
		return Predicate{kind: predIsNotNull, operand: e}
	}
	return Predicate{kind: predNotEqual, left: e, right: r}
}

func (e Expression) Less(rhs any) Predicate {
	return Predicate{kind: predLess, left: e, right: toExpression(rhs)}
}

func (e Expression) LessEqual(rhs any) Predicate {
	return Predicate{kind: predLessEqual, left: e, right: toExpression(rhs)}
}

func (e Expression) Greater(rhs any) Predicate {
	return Predicate{kind: predGreater, left: e, right: toExpression(rhs)}
}

func (e Expression) GreaterEqual(rhs any) Predicate {
	return Predicate{kind: predGreaterEqual, left: e, right: toExpression(rhs)}
}

func toExpression(v any) Expression {
	if e, ok := v.(Expression); ok {
		return e
	}
	return Val(v)
}
