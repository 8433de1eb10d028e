package ports

import (
	"context"
	"errors"

	"github.com/statelyhq/stately/pkg/domain"
)

// ErrExecutionNotFound is returned by Load when the execution is unknown.
var ErrExecutionNotFound = errors.New("execution not found")

// ExecutionStore persists execution snapshots keyed by execution name.
// Implementations must be safe for concurrent use.
type ExecutionStore interface {
	// Save persists the snapshot, overwriting any previous one.
	Save(ctx context.Context, name string, snap *domain.Snapshot) error

	// Load retrieves a snapshot, or ErrExecutionNotFound.
	Load(ctx context.Context, name string) (*domain.Snapshot, error)

	// Delete removes a snapshot. Deleting an unknown name is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the stored execution names.
	List(ctx context.Context) ([]string, error)
}
