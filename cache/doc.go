// Package cache implements a refcounted load-once-many cache, grounded on
// the original solve-cache crate's Manager/Store/Cache/Object split. A
// Manager dedupes concurrent loads of the same key via singleflight and
// hands out Object handles that run a caller-supplied free function once
// the last handle is Released, instead of relying on a destructor the way
// the Rust original's Drop impl did.
package cache
