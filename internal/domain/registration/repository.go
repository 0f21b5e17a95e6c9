package registration

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, r *PendingRegistration) error
	Get(ctx context.Context, accountID string) (*PendingRegistration, error)
	// Complete marks an open registration as completed. It returns false when there was
	// no open registration for the account, so only one caller ever observes true.
	Complete(ctx context.Context, accountID string, at time.Time) (bool, error)
}
