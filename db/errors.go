package db

import "errors"

// ErrTransient marks an error the caller may retry without changing any
// input: a dropped connection, a driver-reported serialization failure, or
// similar. Components built on this package should wrap their own
// transient failures with %w so errors.Is(err, db.ErrTransient) keeps
// working through any number of wrapping layers.
var ErrTransient = errors.New("db: transient error, safe to retry")
