package service

import (
	"context"

	"github.com/flexprice/grants/internal/domain/account"
	ierr "github.com/flexprice/grants/internal/errors"
)

// UserResolver finds the account a billing event belongs to. Every method returns an
// error marked ErrUserNotFound when no strategy matches.
type UserResolver interface {
	// BySubscriptionID matches only the stored provider subscription id
	BySubscriptionID(ctx context.Context, subscriptionID string) (*account.Account, error)
	// ByEmail matches the account email case-insensitively
	ByEmail(ctx context.Context, email string) (*account.Account, error)
	// BySubscriptionIDOrEmail tries the subscription id first, then the email
	BySubscriptionIDOrEmail(ctx context.Context, subscriptionID, email string) (*account.Account, error)
	// ByCustomerID tries the stored customer id, then the email of the customer
	// fetched from the provider API
	ByCustomerID(ctx context.Context, customerID string) (*account.Account, error)
	// ByCustomerIDOrEmail tries the stored customer id, then the email carried in the
	// event, then the provider API
	ByCustomerIDOrEmail(ctx context.Context, customerID, email string) (*account.Account, error)
}

type userResolver struct {
	ServiceParams
}

func NewUserResolver(params ServiceParams) UserResolver {
	return &userResolver{ServiceParams: params}
}

func (r *userResolver) BySubscriptionID(ctx context.Context, subscriptionID string) (*account.Account, error) {
	if subscriptionID == "" {
		return nil, userNotFound("no subscription id to resolve the account by", nil)
	}

	acct, err := r.AccountRepo.GetBySubscriptionID(ctx, subscriptionID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, userNotFound("no account holds the subscription", map[string]any{
				"subscription_id": subscriptionID,
			})
		}
		return nil, err
	}
	return acct, nil
}

func (r *userResolver) ByEmail(ctx context.Context, email string) (*account.Account, error) {
	if email == "" {
		return nil, userNotFound("no customer email to resolve the account by", nil)
	}

	acct, err := r.AccountRepo.GetByEmail(ctx, email)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, userNotFound("no account matches the customer email", map[string]any{
				"email": email,
			})
		}
		return nil, err
	}
	return acct, nil
}

func (r *userResolver) BySubscriptionIDOrEmail(ctx context.Context, subscriptionID, email string) (*account.Account, error) {
	acct, err := r.BySubscriptionID(ctx, subscriptionID)
	if err == nil || !ierr.IsUserNotFound(err) {
		return acct, err
	}
	return r.ByEmail(ctx, email)
}

func (r *userResolver) ByCustomerID(ctx context.Context, customerID string) (*account.Account, error) {
	return r.ByCustomerIDOrEmail(ctx, customerID, "")
}

func (r *userResolver) ByCustomerIDOrEmail(ctx context.Context, customerID, email string) (*account.Account, error) {
	if customerID != "" {
		acct, err := r.AccountRepo.GetByCustomerID(ctx, customerID)
		if err == nil {
			return acct, nil
		}
		if !ierr.IsNotFound(err) {
			return nil, err
		}
	}

	if email != "" {
		acct, err := r.AccountRepo.GetByEmail(ctx, email)
		if err == nil {
			r.backfillCustomerID(ctx, acct, customerID, "event")
			return acct, nil
		}
		if !ierr.IsNotFound(err) {
			return nil, err
		}
	}

	if customerID == "" {
		return nil, userNotFound("no customer id or email to resolve the account by", nil)
	}

	customer, err := r.CustomerClient.RetrieveCustomer(ctx, customerID)
	if err != nil {
		r.Logger.Warnw("provider customer lookup failed",
			"customer_id", customerID,
			"error", err)
		return nil, userNotFound("customer could not be fetched from the provider", map[string]any{
			"customer_id": customerID,
		})
	}
	if customer.Email == "" {
		return nil, userNotFound("provider customer has no email", map[string]any{
			"customer_id": customerID,
		})
	}

	acct, err := r.AccountRepo.GetByEmail(ctx, customer.Email)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, userNotFound("no account matches the provider customer email", map[string]any{
				"customer_id": customerID,
				"email":       customer.Email,
			})
		}
		return nil, err
	}

	r.backfillCustomerID(ctx, acct, customerID, "provider_api")
	return acct, nil
}

// backfillCustomerID stores the customer id so later events resolve on the first tier.
// A failed write leaves the account resolvable through the slower tiers.
func (r *userResolver) backfillCustomerID(ctx context.Context, acct *account.Account, customerID, via string) {
	if customerID == "" || acct.GetCustomerID() == customerID {
		return
	}

	if err := r.AccountRepo.SetCustomerID(ctx, acct.ID, customerID); err != nil {
		r.Logger.Errorw("failed to backfill customer id",
			"account_id", acct.ID,
			"customer_id", customerID,
			"error", err)
		return
	}

	acct.ProviderCustomerID = &customerID
	r.Logger.Infow("backfilled customer id",
		"account_id", acct.ID,
		"customer_id", customerID,
		"resolved_via", via)
}

func userNotFound(msg string, details map[string]any) error {
	b := ierr.NewError(msg).
		WithHint("The billing event could not be matched to an account")
	if details != nil {
		b = b.WithReportableDetails(details)
	}
	return b.Mark(ierr.ErrUserNotFound)
}
