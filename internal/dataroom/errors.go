package dataroom

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure categories surfaced by the service.
// Callers match them with errors.Is; the underlying backend cause is
// carried in the message.
var (
	// ErrAuthRequired means the identity token could not be resolved.
	// Nothing was submitted or changed.
	ErrAuthRequired = errors.New("identity token required")

	// ErrListFailed means a listing call failed. The previously published
	// file list is left untouched.
	ErrListFailed = errors.New("listing files failed")

	// ErrUploadFailed is the category for per-file upload failures.
	// The concrete error is always an *UploadError.
	ErrUploadFailed = errors.New("file upload failed")

	// ErrDeleteFailed means a delete call failed. The published file list
	// is left untouched.
	ErrDeleteFailed = errors.New("file delete failed")
)

// UploadError reports the failure of a single file within a batch. It
// carries the file's display name so callers can tell the user which file
// to retry. Matches ErrUploadFailed under errors.Is.
type UploadError struct {
	Name string
	Err  error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("uploading %s: %v", e.Name, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

func (e *UploadError) Is(target error) bool { return target == ErrUploadFailed }
