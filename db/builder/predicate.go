package builder

import "github.com/udovin/solve-server/db"

type predKind int

const (
	predBool predKind = iota
	predAnd
	predOr
	predEqual
	predNotEqual
	predLess
	predLessEqual
	predGreater
	predGreaterEqual
	predIsNull
	predIsNotNull
)

// Predicate is a boolean expression: a constant, a logical And/Or over two
// predicates, a comparison between two Expressions, or a null test.
type Predicate struct {
	kind    predKind
	b       bool
	left    Expression
	right   Expression
	operand Expression
	lhsPred *Predicate
	rhsPred *Predicate
}

// Bool builds a constant true/false predicate.
func Bool(v bool) Predicate {
	return Predicate{kind: predBool, b: v}
}

// And combines two predicates with AND.
func (p Predicate) And(rhs Predicate) Predicate {
	return Predicate{kind: predAnd, lhsPred: &p, rhsPred: &rhs}
}

// Or combines two predicates with OR.
func (p Predicate) Or(rhs Predicate) Predicate {
	return Predicate{kind: predOr, lhsPred: &p, rhsPred: &rhs}
}

// PushInto renders the predicate into qb without any outer parenthesisation
// decision (that is left to the caller via writeNested, used when a
// predicate is embedded inside a differently-operatored parent).
func (p Predicate) PushInto(qb db.QueryBuilder) error {
	switch p.kind {
	case predBool:
		if p.b {
			qb.PushString("true")
		} else {
			qb.PushString("false")
		}
		return nil
	case predAnd:
		return p.writeBinary(qb, " AND ")
	case predOr:
		return p.writeBinary(qb, " OR ")
	case predEqual:
		return p.writeComparison(qb, " = ")
	case predNotEqual:
		return p.writeComparison(qb, " <> ")
	case predLess:
		return p.writeComparison(qb, " < ")
	case predLessEqual:
		return p.writeComparison(qb, " <= ")
	case predGreater:
		return p.writeComparison(qb, " > ")
	case predGreaterEqual:
		return p.writeComparison(qb, " >= ")
	case predIsNull:
		if err := p.operand.writeTo(qb); err != nil {
			return err
		}
		qb.PushString(" IS NULL")
		return nil
	case predIsNotNull:
		if err := p.operand.writeTo(qb); err != nil {
			return err
		}
		qb.PushString(" IS NOT NULL")
		return nil
	default:
		return nil
	}
}

func (p Predicate) writeComparison(qb db.QueryBuilder, op string) error {
	if err := p.left.writeTo(qb); err != nil {
		return err
	}
	qb.PushString(op)
	return p.right.writeTo(qb)
}

// writeBinary renders an And/Or node, wrapping a child subtree in
// parentheses only when the child's top-level operator differs from this
// node's operator.
func (p Predicate) writeBinary(qb db.QueryBuilder, delim string) error {
	if err := p.lhsPred.writeNested(qb, p.kind); err != nil {
		return err
	}
	qb.PushString(delim)
	return p.rhsPred.writeNested(qb, p.kind)
}

func (p *Predicate) writeNested(qb db.QueryBuilder, parent predKind) error {
	wrap := (p.kind == predAnd || p.kind == predOr) && p.kind != parent
	if wrap {
		qb.PushString("(")
	}
	if err := p.PushInto(qb); err != nil {
		return err
	}
	if wrap {
		qb.PushString(")")
	}
	return nil
}
