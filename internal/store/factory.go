package store

import (
	"context"
	"fmt"

	"dataroom/internal/config"
	"dataroom/internal/dataroom"
)

// NewStoreFromConfig creates an ObjectStore implementation based on the store config type.
func NewStoreFromConfig(ctx context.Context, cfg config.StoreConfig, clock dataroom.Clock) (dataroom.ObjectStore, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryStore(clock), nil
	case "s3":
		s, err := NewS3Store(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "filesystem":
		if cfg.FSStoreRoot == "" {
			return nil, fmt.Errorf("filesystem store requires fs_store_root to be set")
		}
		s, err := NewFileSystemStore(cfg.FSStoreRoot)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store type: %s", cfg.Type)
	}
}
