// Package storage provides the blob half of the persistence layer: the
// uploaded PDFs and code archives live in an S3-compatible bucket, while
// all metadata stays in the key-value store (see internal/repo).
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when a requested object does not exist.
var ErrNotFound = errors.New("blob not found")

// Object is a retrieved blob: its content stream plus the metadata
// needed to serve it over HTTP. Callers must Close the Body.
type Object struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
}

// BlobStore abstracts the object bucket. Implementations must tolerate
// concurrent use; Delete of an absent key is not an error.
type BlobStore interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) error
	Get(ctx context.Context, key string) (*Object, error)
	Delete(ctx context.Context, key string) error
}
