package addon

import (
	"context"

	"github.com/flexprice/grants/internal/types"
)

type Repository interface {
	Create(ctx context.Context, a *Addon) error
	ListByAccountID(ctx context.Context, accountID string) ([]*Addon, error)
	ListBySourceID(ctx context.Context, sourceID string) ([]*Addon, error)
	// UpdateStatusBySourceID returns the number of records moved to the status
	UpdateStatusBySourceID(ctx context.Context, sourceID string, status types.AddonStatus) (int64, error)
}
