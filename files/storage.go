package files

import (
	"context"
	"io"
)

// UploadResult is what Storage.Upload reports about the bytes it wrote,
// before any hashing the caller layers on top.
type UploadResult struct {
	Size int64
}

// Storage is the backing object store a Manager resolves File paths
// against. Keys are opaque strings generated by GenerateKey;
// implementations are free to lay them out
// hierarchically (this module's drivers use the first two hex characters
// as a directory prefix, so millions of files don't pile into one flat
// directory).
type Storage interface {
	// Load resolves key to a local filesystem path, downloading it first
	// if the backing store is remote.
	Load(ctx context.Context, key string) (string, error)
	// Free releases whatever Load allocated (e.g. a local scratch copy of
	// a remote object). A no-op for storage that is already local.
	Free(ctx context.Context, key string, path string)
	// GenerateKey allocates a new, as yet unused key.
	GenerateKey(ctx context.Context) (string, error)
	// Upload streams r into the object named key.
	Upload(ctx context.Context, key string, r io.Reader) (UploadResult, error)
	// Delete removes the object named key. Deleting an already-absent key
	// is not an error.
	Delete(ctx context.Context, key string) error
}

// keyPrefix returns the two-character directory prefix a hierarchical
// Storage implementation shards objects by.
func keyPrefix(key string) string {
	if len(key) < 2 {
		return "00"
	}
	return key[:2]
}
