package storage

import (
	"context"
	"errors"
)

// ErrForeignURL is returned when a URL was not issued by the store asked to delete it.
var ErrForeignURL = errors.New("storage: url does not belong to this store")

// Object is an encoded blob ready to be stored.
type Object struct {
	Data        []byte
	ContentType string
	Ext         string
}

// BlobStore persists binary assets and addresses them by URL.
type BlobStore interface {
	// Driver names the backend for logs and metrics.
	Driver() string
	// Put stores obj and returns the stable URL clients use to fetch it.
	Put(ctx context.Context, obj Object) (string, error)
	// Delete removes the blob addressed by url.
	Delete(ctx context.Context, url string) error
}
