// Package builder implements the fluent Select/Insert/Update/Delete
// builders and the Predicate/Expression AST used to compose their WHERE
// clauses, against the dialect-supplied db.QueryBuilder.
//
// Building the same query twice with equivalent inputs yields byte-identical
// SQL and value lists, since every builder here is an immutable value
// type: each With-style method returns a modified copy rather than
// mutating shared state.
package builder
