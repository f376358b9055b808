// Package blob defines the byte-object store the executor reads audio
// from and writes artifacts to, plus its Google Cloud Storage backend.
package blob

import (
	"context"
	"errors"
)

// ErrNotFound is returned when the addressed object does not exist.
var ErrNotFound = errors.New("object not found")

// ObjectInfo is the metadata subset the executor dispatches on.
type ObjectInfo struct {
	ContentType string
	Size        int64
}

// Store is the byte-object contract used by the executor and normalizer.
type Store interface {
	// Attrs returns object metadata for the given key.
	Attrs(ctx context.Context, key string) (ObjectInfo, error)
	// Download copies the object's bytes to a local file path.
	Download(ctx context.Context, key, destPath string) error
	// Upload streams a local file into the object under key.
	Upload(ctx context.Context, key, srcPath, contentType string) error
	// UploadBytes writes an in-memory payload into the object under key.
	UploadBytes(ctx context.Context, key string, data []byte, contentType string) error
	// Delete removes the object. Deleting a missing object is a no-op.
	Delete(ctx context.Context, key string) error
}
