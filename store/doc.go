// Package store implements the generic row-backed object store with a
// parallel append-only event log used by every persisted entity in this
// module (task.Task, files.File, ...). It generalizes the teacher's plain
// SQL helpers to the Value/Row model in package db and the Predicate/Select
// builder in package db/builder, following the shape of the original
// source's PersistentStore.
package store
