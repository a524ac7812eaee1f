package object

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrNotFound means no object exists under the given storage key.
	ErrNotFound = errors.New("object not found")

	// ErrInvalidKey means the storage key would resolve outside the store's
	// root. Treated as a security violation, never served.
	ErrInvalidKey = errors.New("invalid storage key")
)

// ObjectStore is a pure blob capability: it persists and retrieves opaque
// byte streams by a generated key and never inspects content semantics.
// Save must generate a collision-resistant key independent of the suggested
// file name, so hostile names cannot collide with or overwrite other objects.
type ObjectStore interface {
	Save(ctx context.Context, fileName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
}
