package object

import (
	"context"
	"errors"
	"io"
	"time"
)

var ErrNotFound = errors.New("object not found")

// Object describes a stored blob.
type Object struct {
	Key         string
	Size        int64
	ContentType string
}

// Store saves, serves and deletes binary objects such as exported PDFs.
type Store interface {
	Put(ctx context.Context, userID, fileName, contentType string, r io.Reader) (Object, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// DownloadURL returns a time-limited URL; fileName sets the attachment name.
	DownloadURL(ctx context.Context, key, fileName string, ttl time.Duration) (string, error)
	// Delete removes the object; deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error
}
