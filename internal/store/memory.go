package store

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"dataroom/internal/dataroom"
)

// MemoryStore is an in-memory implementation of the ObjectStore interface.
// Objects live in a map for the lifetime of the process, which makes it
// useful for tests and for trying the CLI without a real backend. Safe for
// concurrent use.
type MemoryStore struct {
	clock dataroom.Clock

	mu      sync.RWMutex
	objects map[string]memoryObject
}

type memoryObject struct {
	data     []byte
	modified time.Time
	etag     string
}

// NewMemoryStore creates an empty MemoryStore stamping objects with times
// from the given clock.
func NewMemoryStore(clock dataroom.Clock) *MemoryStore {
	return &MemoryStore{
		clock:   clock,
		objects: make(map[string]memoryObject),
	}
}

// List returns records for every object whose path starts with prefix,
// ordered by path.
func (m *MemoryStore) List(ctx context.Context, prefix string) ([]dataroom.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	var records []dataroom.FileRecord
	for path, obj := range m.objects {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		records = append(records, dataroom.FileRecord{
			Path:         path,
			Size:         int64(len(obj.data)),
			LastModified: obj.modified,
			ETag:         obj.etag,
		})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Path < records[j].Path })
	return records, nil
}

// Put stores the content read from r at path. size must match the actual
// byte count when non-negative. The ETag mirrors S3: the MD5 of the
// content, quoted.
func (m *MemoryStore) Put(ctx context.Context, path string, r io.Reader, size int64, progress dataroom.ProgressFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := io.ReadAll(newProgressReader(r, size, progress))
	if err != nil {
		return fmt.Errorf("reading content: %w", err)
	}
	if size >= 0 && int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	sum := md5.Sum(data)
	m.mu.Lock()
	m.objects[path] = memoryObject{
		data:     data,
		modified: m.clock.Now(),
		etag:     `"` + hex.EncodeToString(sum[:]) + `"`,
	}
	m.mu.Unlock()
	return nil
}

// Delete removes the object at path. Deleting a missing object is not an
// error, matching S3 semantics.
func (m *MemoryStore) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, path)
	return nil
}

// Compile-time check that MemoryStore implements the ObjectStore interface
var _ dataroom.ObjectStore = (*MemoryStore)(nil)
