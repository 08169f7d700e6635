package dataroom

import (
	"context"
	"io"
	"time"
)

// ProgressFunc reports upload progress. transferred is the number of bytes
// sent so far; total is the expected total, or a value <= 0 when the store
// does not know it.
type ProgressFunc func(transferred, total int64)

// FileRecord describes one stored object as reported by a listing call.
// Path is the full store path and is the record's identity; everything else
// is optional metadata the backend may or may not supply.
type FileRecord struct {
	Path         string
	Size         int64
	LastModified time.Time
	ETag         string
}

// LocalFile is a file selected for upload: a display name plus a readable
// byte stream. Size is the byte count when known, or a value < 0 when it
// is not (the stream is then read to the end).
type LocalFile struct {
	Name string
	Size int64
	Body io.Reader
}

// ObjectStore provides an interface for object storage backends.
// Put streams from an io.Reader to support large files without loading
// them entirely into memory. These three calls are the only interaction
// the core has with storage.
type ObjectStore interface {
	// List returns all objects whose path starts with prefix. Backends
	// that page results fetch every page before returning.
	List(ctx context.Context, prefix string) ([]FileRecord, error)

	// Put stores the content read from r at path. progress may be nil;
	// when set it is invoked as bytes are transferred.
	Put(ctx context.Context, path string, r io.Reader, size int64, progress ProgressFunc) error

	// Delete removes the object at path.
	Delete(ctx context.Context, path string) error
}
