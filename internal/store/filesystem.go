package store

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"dataroom/internal/dataroom"
)

// FileSystemStore keeps objects as plain files under a root directory.
// Store paths map to file paths relative to the root, so the namespace and
// folder structure appear as a directory tree on disk. Writes are atomic
// (temp file + rename).
type FileSystemStore struct {
	root string
}

// NewFileSystemStore creates a store rooted at the given directory,
// creating it if needed.
func NewFileSystemStore(root string) (*FileSystemStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store root: %w", err)
	}
	return &FileSystemStore{root: root}, nil
}

// resolve maps a store path to a location under the root, rejecting paths
// that would escape it.
func (s *FileSystemStore) resolve(path string) (string, error) {
	local := filepath.FromSlash(path)
	if !filepath.IsLocal(local) {
		return "", fmt.Errorf("invalid store path: %s", path)
	}
	return filepath.Join(s.root, local), nil
}

// List walks the root and returns a record for every regular file whose
// store path starts with prefix, ordered by path. ETags are left empty;
// they are optional metadata this backend does not provide.
func (s *FileSystemStore) List(ctx context.Context, prefix string) ([]dataroom.FileRecord, error) {
	var records []dataroom.FileRecord
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return fmt.Errorf("computing store path: %w", err)
		}
		storePath := filepath.ToSlash(rel)
		if !strings.HasPrefix(storePath, prefix) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", p, err)
		}
		records = append(records, dataroom.FileRecord{
			Path:         storePath,
			Size:         info.Size(),
			LastModified: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking store root: %w", err)
	}
	return records, nil
}

// Put stores the content read from r at path, creating intermediate
// directories as needed.
func (s *FileSystemStore) Put(ctx context.Context, path string, r io.Reader, size int64, progress dataroom.ProgressFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dest, err := s.resolve(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create object directory: %w", err)
	}

	// Create temp file in the same directory to ensure atomic rename works
	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	// Clean up temp file on failure
	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, newProgressReader(r, size, progress))
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if size >= 0 && written != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, written)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// Delete removes the object at path. Deleting a missing object is not an
// error, matching S3 semantics.
func (s *FileSystemStore) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dest, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove object: %w", err)
	}
	return nil
}

// Compile-time check that FileSystemStore implements the ObjectStore interface
var _ dataroom.ObjectStore = (*FileSystemStore)(nil)
