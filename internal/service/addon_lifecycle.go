package service

import (
	"context"

	"github.com/flexprice/grants/internal/domain/catalog"
	"github.com/flexprice/grants/internal/email"
	ierr "github.com/flexprice/grants/internal/errors"
	"github.com/flexprice/grants/internal/integration/chargebee"
	"github.com/flexprice/grants/internal/types"
	"github.com/samber/lo"
)

// AddonLifecycleService handles the events of the addon integration endpoint. Slots
// granted by an addon are never taken back; only the addon record status follows the
// subscription.
type AddonLifecycleService interface {
	HandleSubscriptionCreated(ctx context.Context, content *chargebee.Content) error
	HandleSubscriptionRenewed(ctx context.Context, content *chargebee.Content) error
	HandleSubscriptionCancelled(ctx context.Context, content *chargebee.Content) error
	HandleSubscriptionReactivated(ctx context.Context, content *chargebee.Content) error
	HandlePaymentFailed(ctx context.Context, content *chargebee.Content) error
}

type addonLifecycleService struct {
	ServiceParams
	resolver UserResolver
	granter  *entitlementGranter
}

func NewAddonLifecycleService(params ServiceParams, resolver UserResolver) AddonLifecycleService {
	return &addonLifecycleService{
		ServiceParams: params,
		resolver:      resolver,
		granter:       newEntitlementGranter(params),
	}
}

func (s *addonLifecycleService) HandleSubscriptionCreated(ctx context.Context, content *chargebee.Content) error {
	sub, err := requireSubscription(content)
	if err != nil {
		return err
	}

	entry, err := subscriptionEntry(s.Catalog, sub)
	if err != nil {
		return err
	}

	var (
		addonEntry catalog.Entry
		found      bool
	)
	for _, id := range sub.ItemPriceIDs() {
		if e, ok := s.Catalog.Lookup(id); ok && e.IsAddon {
			addonEntry, found = e, true
			break
		}
	}
	if !found {
		s.Logger.Infow("subscription has no addon price, plan grants are handled by the primary endpoint",
			"subscription_id", sub.ID,
			"price_id", entry.PriceID)
		return nil
	}

	acct, err := s.resolver.ByCustomerIDOrEmail(ctx, sub.CustomerID, content.CustomerEmail())
	if err != nil {
		return err
	}

	return s.granter.grantAddon(ctx, acct, addonEntry, grantSource{
		Type:       types.AddonSourceSubscription,
		ID:         sub.ID,
		CustomerID: sub.CustomerID,
	})
}

func (s *addonLifecycleService) HandleSubscriptionRenewed(ctx context.Context, content *chargebee.Content) error {
	sub, err := requireSubscription(content)
	if err != nil {
		return err
	}

	records, err := s.AddonRepo.ListBySourceID(ctx, sub.ID)
	if err != nil {
		return err
	}

	s.Logger.Infow("addon subscription renewed, slots persist",
		"subscription_id", sub.ID,
		"addon_records", len(records))
	return nil
}

func (s *addonLifecycleService) HandleSubscriptionCancelled(ctx context.Context, content *chargebee.Content) error {
	return s.updateStatus(ctx, content, types.AddonStatusCancelled)
}

func (s *addonLifecycleService) HandleSubscriptionReactivated(ctx context.Context, content *chargebee.Content) error {
	return s.updateStatus(ctx, content, types.AddonStatusActive)
}

func (s *addonLifecycleService) updateStatus(ctx context.Context, content *chargebee.Content, status types.AddonStatus) error {
	sub, err := requireSubscription(content)
	if err != nil {
		return err
	}

	updated, err := s.AddonRepo.UpdateStatusBySourceID(ctx, sub.ID, status)
	if err != nil {
		return err
	}

	s.Logger.Infow("updated addon status",
		"subscription_id", sub.ID,
		"status", status,
		"updated", updated)
	return nil
}

func (s *addonLifecycleService) HandlePaymentFailed(ctx context.Context, content *chargebee.Content) error {
	if content == nil {
		return ierr.NewError("event has no content").Mark(ierr.ErrValidation)
	}

	fields := map[string]string{
		"customer_id": content.CustomerID(),
		"email":       content.CustomerEmail(),
	}
	if content.Invoice != nil {
		fields["invoice_id"] = content.Invoice.ID
		fields["subscription_id"] = content.Invoice.SubscriptionID
	}
	if content.Subscription != nil {
		fields["subscription_id"] = content.Subscription.ID
	}

	var accountID string
	if customerID := content.CustomerID(); customerID != "" {
		if acct, err := s.AccountRepo.GetByCustomerID(ctx, customerID); err == nil {
			accountID = acct.ID
			fields["account_id"] = acct.ID
		}
	}

	s.Logger.Warnw("addon payment failed",
		"account_id", accountID,
		"customer_id", fields["customer_id"],
		"invoice_id", fields["invoice_id"],
		"subscription_id", fields["subscription_id"])

	s.Notifier.NotifyAdmin(ctx, accountID, email.AdminNotification{
		Subject: "Addon payment failed",
		Body:    "A payment for an addon subscription failed",
		Fields:  lo.OmitByValues(fields, []string{""}),
	})
	return nil
}
