// Package files implements the file manager: a File row moves
// Pending -> Available once its upload is confirmed, and its content is
// resolved to a local path through the cache manager on every load.
// Grounded on the original's models::File / managers::files.
package files
