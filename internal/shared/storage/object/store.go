package object

import (
	"context"
	"io"
)

// ObjectStore defines the contract for saving and retrieving binary objects.
type ObjectStore interface {
	Save(ctx context.Context, userId string, fileName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
}

// Remover is implemented by stores that can delete objects. Callers use it for
// best-effort cleanup when a record insert fails after the object was saved.
type Remover interface {
	Remove(ctx context.Context, storageKey string) error
}
