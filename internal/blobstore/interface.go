package blobstore

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Open when no blob exists at the key.
var ErrNotFound = errors.New("blob not found")

// BlobStore is the byte-storage abstraction used by the transfer service.
// Keys are relative slash-separated paths derived from the transfer id, e.g.
// "ab3f…/0-report.pdf"; every blob of one transfer shares the id prefix so
// DeletePrefix can reclaim a whole transfer.
type BlobStore interface {
	// Put streams content to the given key and returns the byte count written.
	Put(ctx context.Context, key string, r io.Reader, size int64) (int64, error)
	// Open returns a reader for the blob at key.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// DeletePrefix removes every blob under the given key prefix and reports
	// the number of objects removed.
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}
