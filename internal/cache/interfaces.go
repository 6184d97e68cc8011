package cache

import (
	"context"

	"github.com/bassista/go_wind/internal/repository"
)

// ReadOnlyStore is the minimal cache API for read-only controllers.
type ReadOnlyStore interface {
	Snapshot() (repository.Document, error)
}

// SpotStore is the cache API needed by spot handlers.
type SpotStore interface {
	ReadOnlyStore
	AddSpot(ctx context.Context, spot repository.Spot) (repository.Document, error)
	UpdateSpot(ctx context.Context, name string, spot repository.Spot) (repository.Document, error)
	RenameSpot(ctx context.Context, oldName, newName string) (repository.Document, error)
	RemoveSpot(ctx context.Context, name string) (repository.Document, error)
	ReorderSpots(ctx context.Context, names []string) (repository.Document, error)
}

// RotationStore is the cache API needed by the rotation settings handler.
type RotationStore interface {
	ReadOnlyStore
	SetRotation(ctx context.Context, rotation repository.Rotation) (repository.Document, error)
}

// AppStore is the cache contract the application container exposes.
// It supports controllers and the repository watcher.
type AppStore interface {
	repository.CacheStore
	SpotStore
	RotationStore
}
