package service

import (
	"context"
	"strconv"
	"time"

	"github.com/flexprice/grants/internal/domain/account"
	"github.com/flexprice/grants/internal/domain/catalog"
	"github.com/flexprice/grants/internal/email"
	ierr "github.com/flexprice/grants/internal/errors"
	"github.com/flexprice/grants/internal/integration/chargebee"
	"github.com/flexprice/grants/internal/types"
	"github.com/samber/lo"
)

// SubscriptionLifecycleService moves an account through
// created -> active -> cancellation_scheduled -> cancelled
type SubscriptionLifecycleService interface {
	HandleSubscriptionCreated(ctx context.Context, content *chargebee.Content) error
	HandleSubscriptionActivated(ctx context.Context, content *chargebee.Content) error
	HandleSubscriptionCancellationScheduled(ctx context.Context, content *chargebee.Content) error
	HandleSubscriptionCancelled(ctx context.Context, content *chargebee.Content) error
}

type subscriptionLifecycleService struct {
	ServiceParams
	resolver   UserResolver
	granter    *entitlementGranter
	onboarding OnboardingService
}

func NewSubscriptionLifecycleService(params ServiceParams, resolver UserResolver, onboarding OnboardingService) SubscriptionLifecycleService {
	return &subscriptionLifecycleService{
		ServiceParams: params,
		resolver:      resolver,
		granter:       newEntitlementGranter(params),
		onboarding:    onboarding,
	}
}

func (s *subscriptionLifecycleService) HandleSubscriptionCreated(ctx context.Context, content *chargebee.Content) error {
	sub, err := requireSubscription(content)
	if err != nil {
		return err
	}

	acct, err := s.resolver.ByEmail(ctx, content.CustomerEmail())
	if err != nil {
		return err
	}

	entry, err := subscriptionEntry(s.Catalog, sub)
	if err != nil {
		return err
	}

	s.Logger.Infow("processing subscription created",
		"account_id", acct.ID,
		"subscription_id", sub.ID,
		"price_id", entry.PriceID,
		"is_addon", entry.IsAddon)

	// Only a recurring plan may overwrite plan_code. Addons and one-time prices sold as a
	// subscription item are additive.
	if entry.IsAddon || !entry.IsMonthly() {
		if err := s.granter.grantOneTime(ctx, acct, entry, grantSource{
			Type:       types.AddonSourceSubscription,
			ID:         sub.ID,
			CustomerID: lo.CoalesceOrEmpty(sub.CustomerID, content.CustomerID()),
		}); err != nil {
			return err
		}
	} else {
		if err := s.applyPlan(ctx, acct, entry, sub, content); err != nil {
			return err
		}
	}

	s.onboarding.OnEntitlementGranted(ctx, acct.ID, lo.CoalesceOrEmpty(entry.DisplayName, entry.PlanCode))
	return nil
}

// applyPlan overwrites the plan of the account in a single update
func (s *subscriptionLifecycleService) applyPlan(ctx context.Context, acct *account.Account, entry catalog.Entry, sub *chargebee.Subscription, content *chargebee.Content) error {
	grant := account.PlanGrant{
		PlanCode:          entry.PlanCode,
		RenewableCredits:  entry.RenewableCredits,
		PayAsYouGoCredits: entry.PayAsYouGoCredits,
		SubscriptionID:    sub.ID,
		CustomerID:        lo.CoalesceOrEmpty(sub.CustomerID, content.CustomerID()),
		NextBillingDate:   chargebee.TimestampToTime(sub.NextBillingAt),
	}
	if err := s.AccountRepo.ApplyPlanGrant(ctx, acct.ID, grant); err != nil {
		return err
	}

	s.Logger.Infow("applied plan grant",
		"account_id", acct.ID,
		"previous_plan", acct.PlanCode,
		"plan_code", entry.PlanCode,
		"renewable_credits", entry.RenewableCredits,
		"payasyougo_credits", entry.PayAsYouGoCredits,
		"subscription_id", sub.ID)

	s.Notifier.NotifyAdmin(ctx, acct.ID, email.AdminNotification{
		Subject: "New subscription",
		Body:    "An account subscribed to a plan",
		Fields: map[string]string{
			"account_id":      acct.ID,
			"email":           acct.Email,
			"plan_code":       entry.PlanCode,
			"price":           entry.Price.String(),
			"renewable":       strconv.FormatInt(entry.RenewableCredits, 10),
			"subscription_id": sub.ID,
		},
	})
	return nil
}

func (s *subscriptionLifecycleService) HandleSubscriptionActivated(ctx context.Context, content *chargebee.Content) error {
	sub, err := requireSubscription(content)
	if err != nil {
		return err
	}

	acct, err := s.resolver.BySubscriptionIDOrEmail(ctx, sub.ID, content.CustomerEmail())
	if err != nil {
		return err
	}

	if err := s.AccountRepo.ActivateSubscription(ctx, acct.ID, sub.ID); err != nil {
		return err
	}

	s.Logger.Infow("activated subscription",
		"account_id", acct.ID,
		"subscription_id", sub.ID,
		"previous_status", acct.SubscriptionStatus)
	return nil
}

func (s *subscriptionLifecycleService) HandleSubscriptionCancellationScheduled(ctx context.Context, content *chargebee.Content) error {
	sub, err := requireSubscription(content)
	if err != nil {
		return err
	}

	acct, err := s.resolver.ByEmail(ctx, content.CustomerEmail())
	if err != nil {
		return err
	}

	effective := chargebee.TimestampToTime(sub.CurrentTermEnd)
	if effective == nil {
		effective = chargebee.TimestampToTime(sub.CancelledAt)
	}

	schedule := account.CancellationSchedule{
		ScheduledAt:   time.Now().UTC(),
		EffectiveDate: effective,
	}
	if err := s.AccountRepo.ScheduleCancellation(ctx, acct.ID, schedule); err != nil {
		return err
	}

	s.Logger.Infow("recorded scheduled cancellation",
		"account_id", acct.ID,
		"subscription_id", sub.ID,
		"plan_code", acct.PlanCode,
		"effective_date", effective)
	return nil
}

func (s *subscriptionLifecycleService) HandleSubscriptionCancelled(ctx context.Context, content *chargebee.Content) error {
	sub, err := requireSubscription(content)
	if err != nil {
		return err
	}

	acct, err := s.resolver.ByEmail(ctx, content.CustomerEmail())
	if err != nil {
		return err
	}

	free := account.FreePlan{
		PlanCode:         s.Config.Billing.FreePlanCode,
		RenewableCredits: s.Config.Billing.FreeRenewableCredits,
	}
	if err := s.AccountRepo.DowngradeToFree(ctx, acct.ID, free); err != nil {
		return err
	}

	s.Logger.Infow("downgraded account to free plan",
		"account_id", acct.ID,
		"subscription_id", sub.ID,
		"previous_plan", acct.PlanCode,
		"plan_code", free.PlanCode)
	return nil
}

func requireSubscription(content *chargebee.Content) (*chargebee.Subscription, error) {
	if content == nil || content.Subscription == nil || content.Subscription.ID == "" {
		return nil, ierr.NewError("event has no subscription").
			WithHint("Subscription events must carry the subscription").
			Mark(ierr.ErrValidation)
	}
	return content.Subscription, nil
}

// subscriptionEntry maps a subscription to a catalog entry: the plan item first, then
// any other mapped item on the subscription
func subscriptionEntry(c *catalog.Catalog, sub *chargebee.Subscription) (catalog.Entry, error) {
	for _, id := range sub.ItemPriceIDs() {
		if entry, ok := c.Lookup(id); ok {
			return entry, nil
		}
	}
	return catalog.Entry{}, ierr.NewErrorf("no mapped price on subscription %s", sub.ID).
		WithHint("Add the price to the plans configuration").
		WithReportableDetails(map[string]any{
			"subscription_id": sub.ID,
			"price_ids":       sub.ItemPriceIDs(),
		}).
		Mark(ierr.ErrUnknownPlanID)
}
