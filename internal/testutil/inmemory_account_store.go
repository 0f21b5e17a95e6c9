package testutil

import (
	"context"
	"time"

	"github.com/flexprice/grants/internal/domain/account"
	ierr "github.com/flexprice/grants/internal/errors"
	"github.com/flexprice/grants/internal/types"
	"github.com/samber/lo"
)

// InMemoryAccountStore implements account.Repository. It stores copies so callers
// observe state the way they would after reading a row back from the database.
type InMemoryAccountStore struct {
	*InMemoryStore[account.Account]
}

func NewInMemoryAccountStore() *InMemoryAccountStore {
	return &InMemoryAccountStore{
		InMemoryStore: NewInMemoryStore[account.Account](),
	}
}

func (s *InMemoryAccountStore) Create(ctx context.Context, a *account.Account) error {
	c := *a
	c.Email = account.NormalizeEmail(c.Email)
	return s.InMemoryStore.Create(ctx, a.ID, c)
}

func (s *InMemoryAccountStore) GetByID(ctx context.Context, id string) (*account.Account, error) {
	a, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *InMemoryAccountStore) GetByEmail(ctx context.Context, email string) (*account.Account, error) {
	normalized := account.NormalizeEmail(email)
	return s.find(ctx, func(a account.Account) bool { return a.Email == normalized })
}

func (s *InMemoryAccountStore) GetBySubscriptionID(ctx context.Context, subscriptionID string) (*account.Account, error) {
	if subscriptionID == "" {
		return nil, ierr.NewError("item not found").Mark(ierr.ErrNotFound)
	}
	return s.find(ctx, func(a account.Account) bool { return a.GetSubscriptionID() == subscriptionID })
}

func (s *InMemoryAccountStore) GetByCustomerID(ctx context.Context, customerID string) (*account.Account, error) {
	if customerID == "" {
		return nil, ierr.NewError("item not found").Mark(ierr.ErrNotFound)
	}
	return s.find(ctx, func(a account.Account) bool { return a.GetCustomerID() == customerID })
}

func (s *InMemoryAccountStore) find(ctx context.Context, fn FilterFunc[account.Account]) (*account.Account, error) {
	a, err := s.InMemoryStore.Find(ctx, fn)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *InMemoryAccountStore) ApplyPlanGrant(ctx context.Context, id string, grant account.PlanGrant) error {
	if grant.RenewableCredits < 0 || grant.PayAsYouGoCredits < 0 {
		return negativeAmount()
	}
	return s.Mutate(ctx, id, func(a account.Account) (account.Account, error) {
		a.PlanCode = grant.PlanCode
		a.RenewableCredits = grant.RenewableCredits
		a.PayAsYouGoCredits += grant.PayAsYouGoCredits
		a.ProviderSubscriptionID = lo.ToPtr(grant.SubscriptionID)
		if grant.CustomerID != "" {
			a.ProviderCustomerID = lo.ToPtr(grant.CustomerID)
		}
		if grant.NextBillingDate != nil {
			a.NextBillingDate = grant.NextBillingDate
		}
		a.SubscriptionStatus = types.SubscriptionStatusActive
		a.UpdatedAt = time.Now().UTC()
		return a, nil
	})
}

func (s *InMemoryAccountStore) ResetRenewableCredits(ctx context.Context, id string, credits int64, nextBillingDate *time.Time) error {
	if credits < 0 {
		return negativeAmount()
	}
	return s.Mutate(ctx, id, func(a account.Account) (account.Account, error) {
		a.RenewableCredits = credits
		if nextBillingDate != nil {
			a.NextBillingDate = nextBillingDate
		}
		a.UpdatedAt = time.Now().UTC()
		return a, nil
	})
}

func (s *InMemoryAccountStore) AddPayAsYouGoCredits(ctx context.Context, id string, amount int64, customerID string) error {
	if amount < 0 {
		return negativeAmount()
	}
	return s.Mutate(ctx, id, func(a account.Account) (account.Account, error) {
		a.PayAsYouGoCredits += amount
		if customerID != "" {
			a.ProviderCustomerID = lo.ToPtr(customerID)
		}
		a.UpdatedAt = time.Now().UTC()
		return a, nil
	})
}

func (s *InMemoryAccountStore) AddExtraSlots(ctx context.Context, id string, slots int64) error {
	if slots < 0 {
		return negativeAmount()
	}
	return s.Mutate(ctx, id, func(a account.Account) (account.Account, error) {
		a.ExtraSlots += slots
		a.UpdatedAt = time.Now().UTC()
		return a, nil
	})
}

func (s *InMemoryAccountStore) DowngradeToFree(ctx context.Context, id string, plan account.FreePlan) error {
	return s.Mutate(ctx, id, func(a account.Account) (account.Account, error) {
		a.PlanCode = plan.PlanCode
		a.RenewableCredits = plan.RenewableCredits
		a.SubscriptionStatus = types.SubscriptionStatusCancelled
		a.ProviderSubscriptionID = nil
		a.NextBillingDate = nil
		a.CancellationScheduledAt = nil
		a.CancellationEffectiveDate = nil
		a.PreCancellationPlanCode = nil
		a.UpdatedAt = time.Now().UTC()
		return a, nil
	})
}

func (s *InMemoryAccountStore) ActivateSubscription(ctx context.Context, id string, subscriptionID string) error {
	return s.Mutate(ctx, id, func(a account.Account) (account.Account, error) {
		a.SubscriptionStatus = types.SubscriptionStatusActive
		if subscriptionID != "" {
			a.ProviderSubscriptionID = lo.ToPtr(subscriptionID)
		}
		a.UpdatedAt = time.Now().UTC()
		return a, nil
	})
}

func (s *InMemoryAccountStore) ScheduleCancellation(ctx context.Context, id string, schedule account.CancellationSchedule) error {
	return s.Mutate(ctx, id, func(a account.Account) (account.Account, error) {
		a.CancellationScheduledAt = lo.ToPtr(schedule.ScheduledAt)
		a.CancellationEffectiveDate = schedule.EffectiveDate
		a.PreCancellationPlanCode = lo.ToPtr(a.PlanCode)
		a.SubscriptionStatus = types.SubscriptionStatusCancellationScheduled
		a.UpdatedAt = time.Now().UTC()
		return a, nil
	})
}

func (s *InMemoryAccountStore) SetCustomerID(ctx context.Context, id string, customerID string) error {
	return s.Mutate(ctx, id, func(a account.Account) (account.Account, error) {
		a.ProviderCustomerID = lo.ToPtr(customerID)
		a.UpdatedAt = time.Now().UTC()
		return a, nil
	})
}

func (s *InMemoryAccountStore) MarkWelcomeEmailSent(ctx context.Context, id string) error {
	return s.Mutate(ctx, id, func(a account.Account) (account.Account, error) {
		a.WelcomeEmailSent = true
		a.UpdatedAt = time.Now().UTC()
		return a, nil
	})
}

func negativeAmount() error {
	return ierr.NewError("credit and slot amounts must not be negative").Mark(ierr.ErrValidation)
}
