package storage

import (
	"context"
)

// Object is the source side of a transfer: a single object in a bucket.
type Object interface {
	// Stat reads the object metadata once. A missing object yields an error wrapping ErrNotFound.
	Stat(ctx context.Context, uri ObjectURI) (*ObjectDescriptor, error)

	// DownloadRange writes the inclusive byte range [start, end] of the object into target,
	// creating or truncating it.
	DownloadRange(ctx context.Context, uri ObjectURI, target string, start, end int64) error

	// Delete removes the object.
	Delete(ctx context.Context, uri ObjectURI) error

	// Close releases the underlying client.
	Close() error
}

// ObjectDescriptor contains the metadata read before a transfer
type ObjectDescriptor struct {
	Name        string
	Size        int64
	MD5         []byte // Empty for composite objects
	CRC32C      uint32
	Generation  int64
	ContentType string
}

// HasMD5 reports whether the store published an MD5 for the object.
func (d *ObjectDescriptor) HasMD5() bool {
	return len(d.MD5) > 0
}
