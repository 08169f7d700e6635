package dataroom

import (
	"context"
	"fmt"
	"sync"
)

// Listing is the read model over the stored file set. Refresh replaces the
// published list wholesale; a failed refresh leaves the previous list in
// place so readers never observe a half-updated view.
type Listing struct {
	store    ObjectStore
	identity TokenProvider
	logger   Logger

	mu    sync.RWMutex
	files []FileRecord
}

// NewListing creates a Listing with an empty published list.
func NewListing(store ObjectStore, identity TokenProvider, logger Logger) *Listing {
	return &Listing{store: store, identity: identity, logger: logger}
}

// Refresh fetches the complete file set under the given scope and replaces
// the published list with it. On error nothing is published: an identity
// failure wraps ErrAuthRequired, a store failure wraps ErrListFailed.
func (l *Listing) Refresh(ctx context.Context, scope Scope) ([]FileRecord, error) {
	token, err := l.identity.IdentityToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthRequired, err)
	}

	prefix := Namespace(token) + scope.Prefix
	records, err := l.store.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrListFailed, err)
	}

	l.mu.Lock()
	l.files = append([]FileRecord(nil), records...)
	l.mu.Unlock()

	l.logger.Debug("file list refreshed", "prefix", prefix, "count", len(records))
	return records, nil
}

// Files returns a copy of the most recently published file list. Before
// the first successful Refresh it is empty.
func (l *Listing) Files() []FileRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]FileRecord(nil), l.files...)
}
