// Package imagestore stores uploaded perfume images by opaque key.
package imagestore

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when no image exists under a key.
var ErrNotFound = errors.New("image not found")

type ImageStore interface {
	Save(ctx context.Context, prefix, mimeType string, r io.Reader) (storageKey string, err error)
	Get(ctx context.Context, storageKey string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, storageKey string) error
}
