package builder_test

import (
	"testing"

	"github.com/udovin/solve-server/db"
	"github.com/udovin/solve-server/db/builder"
	"github.com/udovin/solve-server/db/dialect"
)

func render(t *testing.T, q db.Query, qb db.QueryBuilder) db.RawQuery {
	t.Helper()
	raw, err := q.Build(qb)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return raw
}

func TestPredicateEqualRewritesToIsNull(t *testing.T) {
	p := builder.Column("deleted_at").Equal(nil)
	raw := render(t, builder.NewSelect("t", "id").Columns("id").Where(p), dialect.SQLite())
	want := `SELECT "id" FROM "t" WHERE "deleted_at" IS NULL ORDER BY "id"`
	if raw.SQL != want {
		t.Fatalf("got %q, want %q", raw.SQL, want)
	}
}

func TestPredicateNotEqualRewritesToIsNotNull(t *testing.T) {
	p := builder.Column("deleted_at").NotEqual(nil)
	raw := render(t, builder.NewSelect("t", "id").Columns("id").Where(p), dialect.SQLite())
	want := `SELECT "id" FROM "t" WHERE "deleted_at" IS NOT NULL ORDER BY "id"`
	if raw.SQL != want {
		t.Fatalf("got %q, want %q", raw.SQL, want)
	}
}

func TestPredicateComparisonBindsValue(t *testing.T) {
	p := builder.Column("status").Equal(int64(2))
	raw := render(t, builder.NewSelect("t", "id").Columns("id").Where(p), dialect.SQLite())
	want := `SELECT "id" FROM "t" WHERE "status" = ? ORDER BY "id"`
	if raw.SQL != want {
		t.Fatalf("got %q, want %q", raw.SQL, want)
	}
	if len(raw.Args) != 1 || raw.Args[0] != int64(2) {
		t.Fatalf("unexpected args: %#v", raw.Args)
	}
}

func TestPredicateSameOperatorNotParenthesized(t *testing.T) {
	p := builder.Column("a").Equal(int64(1)).
		And(builder.Column("b").Equal(int64(2))).
		And(builder.Column("c").Equal(int64(3)))
	raw := render(t, builder.NewSelect("t", "id").Columns("id").Where(p), dialect.SQLite())
	want := `SELECT "id" FROM "t" WHERE "a" = ? AND "b" = ? AND "c" = ? ORDER BY "id"`
	if raw.SQL != want {
		t.Fatalf("got %q, want %q", raw.SQL, want)
	}
}

func TestPredicateMixedOperatorParenthesized(t *testing.T) {
	p := builder.Column("a").Equal(int64(1)).
		Or(builder.Column("b").Equal(int64(2))).
		And(builder.Column("c").Equal(int64(3)))
	raw := render(t, builder.NewSelect("t", "id").Columns("id").Where(p), dialect.SQLite())
	want := `SELECT "id" FROM "t" WHERE ("a" = ? OR "b" = ?) AND "c" = ? ORDER BY "id"`
	if raw.SQL != want {
		t.Fatalf("got %q, want %q", raw.SQL, want)
	}
}

func TestPredicateOrOfAndsParenthesized(t *testing.T) {
	lhs := builder.Column("a").Equal(int64(1)).And(builder.Column("b").Equal(int64(2)))
	rhs := builder.Column("c").Equal(int64(3)).And(builder.Column("d").Equal(int64(4)))
	p := lhs.Or(rhs)
	raw := render(t, builder.NewSelect("t", "id").Columns("id").Where(p), dialect.SQLite())
	want := `SELECT "id" FROM "t" WHERE ("a" = ? AND "b" = ?) OR ("c" = ? AND "d" = ?) ORDER BY "id"`
	if raw.SQL != want {
		t.Fatalf("got %q, want %q", raw.SQL, want)
	}
}

func TestPredicateBoolConstant(t *testing.T) {
	raw := render(t, builder.NewSelect("t", "id").Columns("id"), dialect.SQLite())
	want := `SELECT "id" FROM "t" WHERE false ORDER BY "id"`
	if raw.SQL != want {
		t.Fatalf("got %q, want %q", raw.SQL, want)
	}
}

func TestSelectOrderByDescAppliesToWholeClause(t *testing.T) {
	sel := builder.NewSelect("t", "id").Columns("id", "event_id").
		Where(builder.Bool(true)).
		OrderByDesc("event_id").
		Limit(1)
	raw := render(t, sel, dialect.SQLite())
	want := `SELECT "id", "event_id" FROM "t" WHERE true ORDER BY "event_id" DESC LIMIT 1`
	if raw.SQL != want {
		t.Fatalf("got %q, want %q", raw.SQL, want)
	}
}

func TestSelectPostgresPlaceholders(t *testing.T) {
	p := builder.Column("a").Equal(int64(1)).And(builder.Column("b").Equal(int64(2)))
	raw := render(t, builder.NewSelect("t", "id").Columns("id").Where(p), dialect.Postgres())
	want := `SELECT "id" FROM "t" WHERE "a" = $1 AND "b" = $2 ORDER BY "id"`
	if raw.SQL != want {
		t.Fatalf("got %q, want %q", raw.SQL, want)
	}
}

func TestInsertWithReturning(t *testing.T) {
	row := db.SimpleRow{
		{Name: "kind", Value: db.BigInt(1)},
		{Name: "status", Value: db.BigInt(0)},
	}
	ins := builder.NewInsert("t").Row(row).Returning("id")
	raw := render(t, ins, dialect.SQLite())
	want := `INSERT INTO "t" ("kind", "status") VALUES (?, ?) RETURNING "id"`
	if raw.SQL != want {
		t.Fatalf("got %q, want %q", raw.SQL, want)
	}
	if len(raw.Args) != 2 {
		t.Fatalf("unexpected args: %#v", raw.Args)
	}
}

func TestUpdateWhereFence(t *testing.T) {
	row := db.SimpleRow{{Name: "status", Value: db.BigInt(1)}}
	fence := builder.Column("status").Equal(int64(0))
	upd := builder.NewUpdate("t").Row(row).Where(fence)
	raw := render(t, upd, dialect.SQLite())
	want := `UPDATE "t" SET "status" = ? WHERE "status" = ?`
	if raw.SQL != want {
		t.Fatalf("got %q, want %q", raw.SQL, want)
	}
	if len(raw.Args) != 2 || raw.Args[0] != int64(1) || raw.Args[1] != int64(0) {
		t.Fatalf("unexpected args: %#v", raw.Args)
	}
}

func TestDeleteWhere(t *testing.T) {
	del := builder.NewDelete("t").Where(builder.Column("id").Equal(int64(5)))
	raw := render(t, del, dialect.SQLite())
	want := `DELETE FROM "t" WHERE "id" = ?`
	if raw.SQL != want {
		t.Fatalf("got %q, want %q", raw.SQL, want)
	}
}

func TestSelectRequiresColumns(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for empty columns")
		}
	}()
	_, _ = builder.NewSelect("t", "id").Build(dialect.SQLite())
}

func TestSelectBuildSurfacesInvalidIdentifier(t *testing.T) {
	sel := builder.NewSelect(`t"`, "id").Columns("id")
	_, err := sel.Build(dialect.SQLite())
	if err == nil {
		t.Fatal("expected error for table name containing a quote")
	}
}

func TestPushNameRejectsQuote(t *testing.T) {
	if err := db.CheckIdentifier(`t"`); err == nil {
		t.Fatal("expected error for identifier containing a quote")
	}
	if err := db.CheckIdentifier(`t\`); err == nil {
		t.Fatal("expected error for identifier containing a backslash")
	}
	if err := db.CheckIdentifier("valid_name"); err != nil {
		t.Fatalf("unexpected error for valid identifier: %v", err)
	}
}
