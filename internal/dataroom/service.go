package dataroom

import (
	"context"
	"fmt"
	"time"
)

// Service is the single entry point over the upload orchestrator, the
// listing coordinator and the folder selector. Uploads target the folder
// active at submission time, and every operation that changes the stored
// file set triggers a listing refresh so the read model catches up.
type Service struct {
	uploader *Uploader
	listing  *Listing
	selector *Selector
	store    ObjectStore
	logger   Logger
}

// NewService wires a Service around the given store and identity provider.
func NewService(store ObjectStore, identity TokenProvider, idgen IDGenerator, logger Logger, concurrency int, linger time.Duration) *Service {
	s := &Service{
		store:    store,
		listing:  NewListing(store, identity, logger),
		selector: NewSelector(),
		logger:   logger,
	}
	s.uploader = NewUploader(store, identity, idgen, logger, concurrency, linger).WithAfterBatch(s.batchFinished)
	return s
}

// Upload submits files against the currently selected folder and returns
// the batch handle. Changing the folder afterwards does not retarget an
// in-flight batch.
func (s *Service) Upload(ctx context.Context, files []LocalFile) (*Batch, error) {
	return s.uploader.Submit(ctx, files, s.selector.Current())
}

// batchFinished logs the batch outcome and refreshes the listing so newly
// stored files become visible. It runs inline before the batch reports
// done, which keeps the refresh ordered ahead of anyone waiting on it.
func (s *Service) batchFinished(result BatchResult) {
	if result.PartialFailure() {
		s.logger.Warn("upload batch finished with failures", "uploaded", result.Uploaded, "failed", len(result.Failed))
	} else {
		s.logger.Info("upload batch finished", "uploaded", result.Uploaded)
	}
	if _, err := s.Refresh(context.Background()); err != nil {
		s.logger.Warn("refresh after upload failed", "error", err)
	}
}

// Refresh re-fetches the file list for the current folder.
func (s *Service) Refresh(ctx context.Context) ([]FileRecord, error) {
	return s.listing.Refresh(ctx, s.selector.Current())
}

// Files returns the published file list.
func (s *Service) Files() []FileRecord { return s.listing.Files() }

// Tasks returns the published upload task list.
func (s *Service) Tasks() []Task { return s.uploader.Tasks() }

// SetTaskObserver registers fn to receive task list snapshots on every
// upload state change.
func (s *Service) SetTaskObserver(fn TaskObserver) { s.uploader.SetObserver(fn) }

// Delete removes the stored object at path and refreshes the listing. A
// store failure wraps ErrDeleteFailed and leaves the published list
// untouched; a failed follow-up refresh is logged, not returned, since the
// delete itself succeeded.
func (s *Service) Delete(ctx context.Context, path string) error {
	if err := s.store.Delete(ctx, path); err != nil {
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}
	s.logger.Info("file deleted", "path", path)
	if _, err := s.Refresh(ctx); err != nil {
		s.logger.Warn("refresh after delete failed", "error", err)
	}
	return nil
}

// ChangeFolder makes prefix the active folder and refreshes under it. The
// folder changes even if the refresh fails, so a retry lists the new
// folder.
func (s *Service) ChangeFolder(ctx context.Context, prefix string) ([]FileRecord, error) {
	scope := s.selector.Set(prefix)
	s.logger.Info("folder changed", "folder", scope.Prefix)
	return s.listing.Refresh(ctx, scope)
}

// ResetFolder returns to the root folder and refreshes.
func (s *Service) ResetFolder(ctx context.Context) ([]FileRecord, error) {
	return s.ChangeFolder(ctx, "")
}

// RestoreFolder positions the selector without contacting the store, used
// to pick up a folder persisted by an earlier session.
func (s *Service) RestoreFolder(prefix string) {
	s.selector.Set(prefix)
}

// Folder returns the active folder prefix. The root folder is the empty
// string.
func (s *Service) Folder() string {
	return s.selector.Current().Prefix
}
