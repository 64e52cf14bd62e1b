package snapshot

import (
	"context"

	"github.com/croplands/parcel-recon/internal/entity"
)

// Gateway is the narrow persistence contract the core consumes. A successful
// Save followed by a Load must return an equivalent snapshot; everything else
// about durability is the backend's business.
type Gateway interface {
	// Save replaces the persisted snapshot.
	Save(ctx context.Context, snap entity.Snapshot) error
	// Load returns the persisted snapshot, or ok=false if none exists.
	Load(ctx context.Context) (snap entity.Snapshot, ok bool, err error)
	// Clear removes the persisted snapshot.
	Clear(ctx context.Context) error
	Close() error
}
