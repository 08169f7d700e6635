package testutil

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"dataroom/internal/dataroom"
)

// ScriptedStore is an in-memory ObjectStore with failure injection, call
// recording, and controllable progress reporting. Safe for concurrent use.
type ScriptedStore struct {
	mu      sync.Mutex
	objects map[string]scriptedObject
	clock   *StubClock

	putFailures    []putFailure
	listErr        error
	deleteErr      error
	progressChunks int
	unknownTotal   bool

	gate      chan struct{}
	gateMatch string

	putPaths     []string
	listPrefixes []string
	deletePaths  []string
}

type scriptedObject struct {
	data     []byte
	modified time.Time
}

type putFailure struct {
	match string
	err   error
}

var _ dataroom.ObjectStore = (*ScriptedStore)(nil)

// NewScriptedStore creates an empty ScriptedStore stamping objects with
// FixedClock time.
func NewScriptedStore() *ScriptedStore {
	return &ScriptedStore{
		objects: make(map[string]scriptedObject),
		clock:   FixedClock(),
	}
}

// AddObject seeds the store with an object, bypassing Put.
func (s *ScriptedStore) AddObject(path string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[path] = scriptedObject{data: data, modified: s.clock.Now()}
}

// FailPut makes any Put whose path contains match fail with err. The
// failing put reports partial progress first, so callers can verify that
// failure discards it.
func (s *ScriptedStore) FailPut(match string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putFailures = append(s.putFailures, putFailure{match: match, err: err})
}

// FailList makes every subsequent List fail with err.
func (s *ScriptedStore) FailList(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listErr = err
}

// FailDelete makes every subsequent Delete fail with err.
func (s *ScriptedStore) FailDelete(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteErr = err
}

// SetProgressChunks makes successful puts report progress in n steps
// instead of one.
func (s *ScriptedStore) SetProgressChunks(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progressChunks = n
}

// ReportUnknownTotal makes progress callbacks pass a zero total, the way a
// backend that cannot size the transfer up front would.
func (s *ScriptedStore) ReportUnknownTotal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unknownTotal = true
}

// HoldPuts blocks every Put whose path contains match until ReleasePuts is
// called or the put's context is canceled. An empty match holds all puts.
func (s *ScriptedStore) HoldPuts(match string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gate = make(chan struct{})
	s.gateMatch = match
}

// ReleasePuts unblocks puts held by HoldPuts.
func (s *ScriptedStore) ReleasePuts() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gate != nil {
		close(s.gate)
		s.gate = nil
	}
}

func (s *ScriptedStore) List(_ context.Context, prefix string) ([]dataroom.FileRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listPrefixes = append(s.listPrefixes, prefix)
	if s.listErr != nil {
		return nil, s.listErr
	}

	var records []dataroom.FileRecord
	for path, obj := range s.objects {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		records = append(records, dataroom.FileRecord{
			Path:         path,
			Size:         int64(len(obj.data)),
			LastModified: obj.modified,
			ETag:         ETag(obj.data),
		})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Path < records[j].Path })
	return records, nil
}

func (s *ScriptedStore) Put(ctx context.Context, path string, r io.Reader, size int64, progress dataroom.ProgressFunc) error {
	s.mu.Lock()
	s.putPaths = append(s.putPaths, path)
	gate := s.gate
	gateMatch := s.gateMatch
	chunks := s.progressChunks
	unknownTotal := s.unknownTotal
	var failErr error
	for _, f := range s.putFailures {
		if strings.Contains(path, f.match) {
			failErr = f.err
			break
		}
	}
	s.mu.Unlock()

	if gate != nil && strings.Contains(path, gateMatch) {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if failErr != nil {
		if progress != nil && size > 0 {
			progress(size/2, size)
		}
		return failErr
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading content: %w", err)
	}
	if size >= 0 && int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	if chunks < 1 {
		chunks = 1
	}
	if total := int64(len(data)); progress != nil && total > 0 {
		reported := total
		if unknownTotal {
			reported = 0
		}
		for i := 1; i <= chunks; i++ {
			progress(total*int64(i)/int64(chunks), reported)
		}
	}

	s.mu.Lock()
	s.objects[path] = scriptedObject{data: data, modified: s.clock.Now()}
	s.mu.Unlock()
	return nil
}

func (s *ScriptedStore) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletePaths = append(s.deletePaths, path)
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.objects, path)
	return nil
}

// Objects returns the stored paths in sorted order.
func (s *ScriptedStore) Objects() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	paths := make([]string, 0, len(s.objects))
	for path := range s.objects {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// ObjectData returns the content stored at path.
func (s *ScriptedStore) ObjectData(path string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[path]
	return obj.data, ok
}

// PutPaths returns the paths passed to Put, in call order.
func (s *ScriptedStore) PutPaths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.putPaths...)
}

// ListPrefixes returns the prefixes passed to List, in call order.
func (s *ScriptedStore) ListPrefixes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.listPrefixes...)
}

// DeletePaths returns the paths passed to Delete, in call order.
func (s *ScriptedStore) DeletePaths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deletePaths...)
}
