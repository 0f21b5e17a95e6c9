package account

import (
	"context"
	"time"
)

// Repository defines the persistence operations billing reconciliation performs on accounts.
// Every counter change is a single atomic statement; none of them span more than one table.
type Repository interface {
	Create(ctx context.Context, a *Account) error
	GetByID(ctx context.Context, id string) (*Account, error)
	// GetByEmail matches case-insensitively
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetBySubscriptionID(ctx context.Context, subscriptionID string) (*Account, error)
	GetByCustomerID(ctx context.Context, customerID string) (*Account, error)

	// Entitlement mutations
	ApplyPlanGrant(ctx context.Context, id string, grant PlanGrant) error
	ResetRenewableCredits(ctx context.Context, id string, credits int64, nextBillingDate *time.Time) error
	AddPayAsYouGoCredits(ctx context.Context, id string, amount int64, customerID string) error
	AddExtraSlots(ctx context.Context, id string, slots int64) error
	DowngradeToFree(ctx context.Context, id string, plan FreePlan) error

	// Subscription state
	ActivateSubscription(ctx context.Context, id string, subscriptionID string) error
	ScheduleCancellation(ctx context.Context, id string, schedule CancellationSchedule) error

	// Correlation and onboarding flags
	SetCustomerID(ctx context.Context, id string, customerID string) error
	MarkWelcomeEmailSent(ctx context.Context, id string) error
}
