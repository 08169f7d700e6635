package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"dataroom/internal/config"
	"dataroom/internal/dataroom"
	"dataroom/internal/fs"
	"dataroom/internal/identity"
	"dataroom/internal/store"
)

// DataroomApp is the application layer between the CLI and the dataroom
// service. It constructs all dependencies from config, exposes high-level
// operations that accept raw string paths, and persists the active folder
// back to the config file.
type DataroomApp struct {
	cfg        *config.Config
	configPath string
	finder     *fs.Finder
	service    *dataroom.Service
	logFile    *os.File
}

// NewDataroomApp creates a fully wired DataroomApp from the given config.
// configPath is where folder changes are persisted. The caller must call
// Close when done.
func NewDataroomApp(ctx context.Context, cfg *config.Config, configPath string) (*DataroomApp, error) {
	finder := fs.NewFinder(cfg.Filesystem.Ignore)

	st, err := store.NewStoreFromConfig(ctx, cfg.Store, dataroom.RealClock{})
	if err != nil {
		return nil, fmt.Errorf("creating store: %w", err)
	}

	provider, err := identity.NewTokenProviderFromConfig(cfg.Identity)
	if err != nil {
		return nil, fmt.Errorf("creating identity provider: %w", err)
	}

	opID := uuid.New().String()
	logger, logFile, err := newLogger(cfg.LogDir, opID)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	linger := time.Duration(cfg.Upload.LingerMs) * time.Millisecond
	svc := dataroom.NewService(st, provider, dataroom.UUIDGenerator{}, &slogAdapter{l: logger}, cfg.Upload.Concurrency, linger)
	svc.RestoreFolder(cfg.Folder)

	return &DataroomApp{
		cfg:        cfg,
		configPath: configPath,
		finder:     finder,
		service:    svc,
		logFile:    logFile,
	}, nil
}

// Upload collects the files named by rawPaths and submits them as one batch.
// Directories are expanded to the files they contain; recursive includes
// subdirectories. The returned batch reports progress until Done.
func (a *DataroomApp) Upload(ctx context.Context, rawPaths []string, recursive bool) (*dataroom.Batch, error) {
	files, err := a.finder.CollectFiles(rawPaths, recursive)
	if err != nil {
		return nil, fmt.Errorf("collecting files: %w", err)
	}

	batch, err := a.service.Upload(ctx, files)
	if err != nil {
		// The batch never started, so ownership of the open files stays here.
		closeFiles(files)
		return nil, err
	}
	return batch, nil
}

// List fetches the remote file list for the active folder and returns it.
func (a *DataroomApp) List(ctx context.Context) ([]dataroom.FileRecord, error) {
	return a.service.Refresh(ctx)
}

// Files returns the most recently fetched file list without contacting the store.
func (a *DataroomApp) Files() []dataroom.FileRecord {
	return a.service.Files()
}

// Delete removes the object at the given path from the store.
func (a *DataroomApp) Delete(ctx context.Context, path string) error {
	return a.service.Delete(ctx, path)
}

// ChangeFolder switches the active folder, refreshes the listing, and
// persists the new folder to the config file. The folder is persisted even
// when the refresh fails, matching what the next invocation will see.
func (a *DataroomApp) ChangeFolder(ctx context.Context, prefix string) ([]dataroom.FileRecord, error) {
	records, err := a.service.ChangeFolder(ctx, prefix)
	if saveErr := a.persistFolder(); saveErr != nil && err == nil {
		err = saveErr
	}
	return records, err
}

// ResetFolder switches back to the namespace root, refreshes the listing,
// and persists the change.
func (a *DataroomApp) ResetFolder(ctx context.Context) ([]dataroom.FileRecord, error) {
	return a.ChangeFolder(ctx, "")
}

// Folder returns the active folder prefix. Empty means the namespace root.
func (a *DataroomApp) Folder() string {
	return a.service.Folder()
}

// persistFolder writes the active folder back to the config file.
func (a *DataroomApp) persistFolder() error {
	a.cfg.Folder = a.service.Folder()
	if err := config.Save(a.configPath, a.cfg); err != nil {
		return fmt.Errorf("persisting folder: %w", err)
	}
	return nil
}

// Tasks returns a snapshot of the upload tasks currently published.
func (a *DataroomApp) Tasks() []dataroom.Task {
	return a.service.Tasks()
}

// SetTaskObserver registers fn to receive task snapshots as uploads progress.
func (a *DataroomApp) SetTaskObserver(fn dataroom.TaskObserver) {
	a.service.SetTaskObserver(fn)
}

// Close releases resources held by the app.
func (a *DataroomApp) Close() error {
	if a.logFile != nil {
		return a.logFile.Close()
	}
	return nil
}

// closeFiles closes every collected file that is closeable.
func closeFiles(files []dataroom.LocalFile) {
	for _, f := range files {
		if c, ok := f.Body.(io.Closer); ok {
			c.Close()
		}
	}
}
